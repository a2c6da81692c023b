package markrange

import (
	"strings"

	"richdoc/dom"
	"richdoc/schema"
)

// wrapper covers content of a range with mark of a single key. Content
// already inside a mark of the same key is never nested: that mark is split
// around the range and its covered part is tagged instead.
type wrapper struct {
	t      *dom.Tree
	root   dom.NodeID
	key    string
	schema *schema.Schema

	// create returns fresh detached mark element.
	create func() dom.NodeID
	// tag marks existing element (same key span or card) in place.
	tag func(id dom.NodeID)
	// skip reports nodes which must stay outside of created marks when
	// they are on the edge of wrapped run.
	skip func(id dom.NodeID) bool

	marked []dom.NodeID
}

func (w *wrapper) wrapRange(r dom.Range) {
	r = w.t.SplitBoundaries(r)
	w.wrapNodes(w.t.CoveredNodes(w.root, r))
}

// wrapNodes splits nodes into runs of adjacent siblings.
func (w *wrapper) wrapNodes(nodes []dom.NodeID) {
	for i := 0; i < len(nodes); {
		j := i + 1
		for j < len(nodes) && w.t.Next(nodes[j-1]) == nodes[j] {
			j++
		}
		w.wrapGroup(nodes[i:j])
		i = j
	}
}

func (w *wrapper) wrapGroup(group []dom.NodeID) {
	t := w.t
	if anc := w.enclosingMark(t.Parent(group[0])); anc != dom.Nil {
		if group = w.trim(group); len(group) > 0 {
			w.mark(w.isolate(group, anc))
		}
		return
	}

	var run []dom.NodeID
	for _, n := range group {
		switch {
		case t.IsCard(n):
			w.flush(run)
			run = nil
			w.mark(n)
		case t.IsText(n) || w.skip(n):
			run = append(run, n)
		case w.isBlock(n):
			w.flush(run)
			run = nil
			if c := t.Children(n); len(c) > 0 {
				w.wrapGroup(c)
			}
		case w.isMark(n):
			w.flush(run)
			run = nil
			w.mark(n)
		case w.holdsMarks(n):
			w.flush(run)
			run = nil
			w.wrapGroup(t.Children(n))
		default:
			run = append(run, n)
		}
	}
	w.flush(run)
}

func (w *wrapper) mark(id dom.NodeID) {
	w.tag(id)
	w.marked = append(w.marked, id)
}

// flush wraps run of siblings into new mark element.
func (w *wrapper) flush(run []dom.NodeID) {
	t := w.t
	if run = w.trim(run); len(run) == 0 {
		return
	}
	if w.formatting(run) {
		return
	}
	span := w.create()
	t.InsertBefore(run[0], span)
	for _, n := range run {
		t.Append(span, n)
	}
	w.marked = append(w.marked, span)
}

// trim drops skipped nodes from both ends of run.
func (w *wrapper) trim(run []dom.NodeID) []dom.NodeID {
	for len(run) > 0 && w.skip(run[0]) {
		run = run[1:]
	}
	for len(run) > 0 && w.skip(run[len(run)-1]) {
		run = run[:len(run)-1]
	}
	return run
}

// formatting reports run of whitespace between blocks.
func (w *wrapper) formatting(run []dom.NodeID) bool {
	t := w.t
	for _, n := range run {
		if w.skip(n) {
			continue
		}
		if !t.IsText(n) || strings.TrimSpace(t.Text(n)) != "" {
			return false
		}
	}
	for _, c := range t.Children(t.Parent(run[0])) {
		if w.isBlock(c) {
			return true
		}
	}
	return false
}

// enclosingMark returns nearest ancestor which is mark of wrapped key
// without crossing block or card boundary.
func (w *wrapper) enclosingMark(id dom.NodeID) dom.NodeID {
	t := w.t
	for n := id; n != dom.Nil && n != w.root; n = t.Parent(n) {
		if t.IsCard(n) || w.isBlock(n) {
			return dom.Nil
		}
		if w.isMark(n) {
			return n
		}
	}
	return dom.Nil
}

// isolate splits every element from group parent up to anc so group ends
// up being the whole content of a copy of anc, which is returned.
func (w *wrapper) isolate(group []dom.NodeID, anc dom.NodeID) dom.NodeID {
	t := w.t
	for {
		first, last := group[0], group[len(group)-1]
		p := t.Parent(first)
		if t.FirstChild(p) != first {
			before := t.CloneNode(p, false)
			t.InsertBefore(p, before)
			for c := t.FirstChild(p); c != first; c = t.FirstChild(p) {
				t.Append(before, c)
			}
		}
		if t.LastChild(p) != last {
			after := t.CloneNode(p, false)
			t.InsertAfter(p, after)
			for c := t.Next(last); c != dom.Nil; c = t.Next(last) {
				t.Append(after, c)
			}
		}
		if p == anc {
			return p
		}
		group = []dom.NodeID{p}
	}
}

func (w *wrapper) isBlock(id dom.NodeID) bool {
	return w.t.IsBlockCard(id) || (!w.t.IsCard(id) && w.schema.IsBlock(w.t, id))
}

func (w *wrapper) isMark(id dom.NodeID) bool {
	return w.t.IsElement(id) && !w.t.IsCard(id) && w.t.Attr(id, MarkKeyAttr) == w.key
}

// holdsMarks reports element containing marks of the key or cards which
// must not end up nested in a new mark.
func (w *wrapper) holdsMarks(id dom.NodeID) bool {
	for _, n := range w.t.Descendants(id) {
		if w.t.IsCard(n) || w.isMark(n) || w.isBlock(n) {
			return true
		}
	}
	return false
}

// coveredText returns text of range with cards replaced by placeholders.
func coveredText(t *dom.Tree, nodes []dom.NodeID) string {
	var b strings.Builder
	var walk func(id dom.NodeID)
	walk = func(id dom.NodeID) {
		switch {
		case t.IsCard(id):
			b.WriteString("[card:" + t.Attr(id, "name") + "," + t.CardID(id) + "]")
		case t.IsText(id):
			b.WriteString(t.Text(id))
		default:
			for _, c := range t.Children(id) {
				walk(c)
			}
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

// tidy merges adjacent copies of the same mark element left behind after
// marks were split and later dropped.
func (e *Engine) tidy(key string, parents []dom.NodeID) {
	t := e.tree
	seen := make(map[dom.NodeID]bool, len(parents))
	for _, p := range parents {
		if seen[p] || !e.inside(p) {
			continue
		}
		seen[p] = true
		e.mergeSiblings(key, p, false)
		t.MergeText(p)
	}
}

func (e *Engine) mergeSiblings(key string, parent dom.NodeID, loose bool) {
	t := e.tree
	for c := t.FirstChild(parent); c != dom.Nil; {
		next := t.Next(c)
		if next != dom.Nil && e.mergeable(key, c, next, loose) {
			t.MoveChildren(next, c)
			t.Detach(next)
			e.mergeSiblings(key, c, true)
			continue
		}
		if t.IsElement(c) && !t.IsCard(c) {
			e.mergeSiblings(key, c, false)
		}
		c = next
	}
}

func (e *Engine) mergeable(key string, a, b dom.NodeID, loose bool) bool {
	t := e.tree
	if !t.IsElement(a) || !t.IsElement(b) || t.IsCard(a) || t.IsCard(b) {
		return false
	}
	if t.Name(a) != t.Name(b) || !t.Attrs(a).Equal(t.Attrs(b)) || !t.Styles(a).Equal(t.Styles(b)) {
		return false
	}
	if t.Attr(a, MarkKeyAttr) == key {
		return true
	}
	return loose && e.schema.IsMark(t, a)
}
