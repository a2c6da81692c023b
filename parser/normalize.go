package parser

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"richdoc/dom"
	"richdoc/schema"
)

// Normalize rewrites wrapped tree in place against parser schema and
// conversion rules.
func (p *Parser) Normalize() {
	Normalize(p.tree, p.root, p.schema, p.conversion, p.log)
}

// Normalize rewrites subtree of root in place: legacy shapes are converted,
// elements unknown to schema are unwrapped, inline elements are lifted out of
// inline and mark parents and mark elements are split so each carries only
// what its rule permits. Cards and their content are left alone. Normalizing
// an already normalized tree changes nothing.
func Normalize(t *dom.Tree, root dom.NodeID, s *schema.Schema, c *schema.Conversion, log *zap.Logger) {
	if s == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	n := &normalizer{t: t, root: root, s: s, c: c, log: log, lineage: make(map[dom.NodeID]map[int]bool)}
	n.run()
}

type normalizer struct {
	t       *dom.Tree
	root    dom.NodeID
	s       *schema.Schema
	c       *schema.Conversion
	log     *zap.Logger
	lineage map[dom.NodeID]map[int]bool
}

func (n *normalizer) run() {
	t := n.t
	queue := t.Descendants(n.root)
	for i := 0; i < len(queue); i++ {
		id := queue[i]
		if !t.IsElement(id) || id == n.root || !t.Contains(n.root, id) || t.InCard(id) {
			continue
		}

		created, replaced := n.convert(id)
		if len(created) > 0 {
			queue = slices.Insert(queue, i+1, created...)
		}
		if replaced || t.IsCard(id) {
			continue
		}

		rule := n.s.GetRule(t, id)
		if rule == nil {
			if t.Attr(id, dom.ElementAttr) != dom.EditableValue {
				t.Unwrap(id)
			}
			continue
		}

		if rule.Type == schema.TypeInline && t.Name(id) != "br" {
			n.liftInline(id)
		}
		if rule.Type == schema.TypeMark {
			n.splitMark(id, rule)
			continue
		}
		n.s.Filter(t, id, rule)
	}
}

// convert applies conversion rules until none unused matches. Each match
// puts rewritten element around children of the node, cards and same named
// rewrites replace the node instead. Returns created elements in document
// order.
func (n *normalizer) convert(id dom.NodeID) ([]dom.NodeID, bool) {
	if n.c == nil {
		return nil, false
	}
	t := n.t
	used := maps.Clone(n.lineage[id])
	if used == nil {
		used = make(map[int]bool)
	}

	var created []dom.NodeID
	for {
		res, ok := n.c.Transform(t, id, func(rule int) bool { return used[rule] })
		if !ok {
			return created, false
		}
		used[res.Rule] = true

		w := t.CreateElement(res.Name)
		t.SetAttrs(w, res.Attrs)
		t.SetStyles(w, res.Styles)
		n.lineage[w] = maps.Clone(used)

		if t.IsCard(id) || res.Name == t.Name(id) {
			t.Replace(id, w)
			return append([]dom.NodeID{w}, created...), true
		}
		t.MoveChildren(id, w)
		t.Append(id, w)
		created = append([]dom.NodeID{w}, created...)
	}
}

// liftInline resolves inline nesting: an inline parent is unwrapped, mark
// parents are split around the node so it ends up above them.
func (n *normalizer) liftInline(id dom.NodeID) {
	t := n.t
	for {
		parent := t.Parent(id)
		if parent == dom.Nil || parent == n.root {
			return
		}
		switch n.s.GetType(t, parent) {
		case schema.TypeInline:
			n.log.Debug("Unwrapping outer inline", zap.String("outer", t.Name(parent)), zap.String("inner", t.Name(id)))
			t.Unwrap(parent)
		case schema.TypeMark:
			n.hoist(id, parent)
		default:
			return
		}
	}
}

// hoist moves inline node out of its mark parent. Content of the mark
// before and after the node stays wrapped in clones of the mark, content of
// the node gets its own clone.
func (n *normalizer) hoist(id, mark dom.NodeID) {
	t := n.t
	before := t.CloneNode(mark, false)
	for c := t.FirstChild(mark); c != id; c = t.FirstChild(mark) {
		t.Append(before, c)
	}
	after := t.CloneNode(mark, false)
	for c := t.Next(id); c != dom.Nil; c = t.Next(id) {
		t.Append(after, c)
	}
	if t.FirstChild(id) != dom.Nil {
		inside := t.CloneNode(mark, false)
		t.MoveChildren(id, inside)
		t.Append(id, inside)
	}
	if t.FirstChild(before) != dom.Nil {
		t.InsertBefore(mark, before)
	}
	t.InsertBefore(mark, id)
	if t.FirstChild(after) != dom.Nil {
		t.InsertBefore(mark, after)
	}
	t.Detach(mark)
}

// splitMark keeps on the node only what its rule permits. Rejected
// properties move to a nested clone as long as some unused mark rule accepts
// them, anything left is dropped.
func (n *normalizer) splitMark(id dom.NodeID, rule *schema.Rule) {
	t := n.t
	used := map[*schema.Rule]bool{rule: true}
	for cur := id; ; {
		attrs, restAttrs := n.s.FilterAttrs(rule, t.Attrs(cur))
		styles, restStyles := n.s.FilterStyles(rule, t.Styles(cur))
		t.SetAttrs(cur, attrs)
		t.SetStyles(cur, styles)
		if len(restAttrs)+len(restStyles) == 0 {
			return
		}

		nested := t.CreateElement(t.Name(cur))
		t.SetAttrs(nested, restAttrs)
		t.SetStyles(nested, restStyles)
		next := n.s.GetRuleExcluding(t, nested, used)
		if next == nil || next.Type != schema.TypeMark {
			return
		}
		t.MoveChildren(cur, nested)
		t.Append(cur, nested)
		used[next] = true
		cur, rule = nested, next
	}
}
