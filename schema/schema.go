// Package schema classifies content tree elements and limits their
// attributes and styles.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"richdoc/dom"
)

// Type is element classification.
type Type uint8

const (
	TypeNone Type = iota
	TypeBlock
	TypeInline
	TypeMark
)

var typeNames = map[Type]string{TypeNone: "none", TypeBlock: "block", TypeInline: "inline", TypeMark: "mark"}

func (t Type) String() string { return typeNames[t] }

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	for k, v := range typeNames {
		if v == string(text) && k != TypeNone {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown schema type %q", string(text))
}

// Rule describes one allowed shape of an element.
type Rule struct {
	Name       string                `yaml:"name"`
	Type       Type                  `yaml:"type"`
	Attributes map[string]Constraint `yaml:"attributes,omitempty"`
	Styles     map[string]Constraint `yaml:"styles,omitempty"`

	order int
}

func (r *Rule) required() int {
	n := 0
	for _, c := range r.Attributes {
		if c.Required {
			n++
		}
	}
	for _, c := range r.Styles {
		if c.Required {
			n++
		}
	}
	return n
}

// Global extends every rule of the type with additional properties.
type Global struct {
	Type       Type                  `yaml:"type"`
	Attributes map[string]Constraint `yaml:"attributes,omitempty"`
	Styles     map[string]Constraint `yaml:"styles,omitempty"`
}

// Card root attributes always kept on cards.
var cardAttributes = []string{
	"type", "name", "id", "value", "editable",
	dom.CardKeyAttr, dom.CardTypeAttr, dom.CardIDAttr, dom.CardValueAttr, dom.CardElementAttr,
}

// DefaultVoid lists elements serialized self-closing.
var DefaultVoid = []string{"br", "hr", "img", "input", "col", "embed", "link", "meta", "param", "source", "track", "wbr", "area", "base"}

// Schema is a rule table.
type Schema struct {
	log     *zap.Logger
	rules   map[string][]*Rule
	count   int
	globals map[Type]*Global
	void    map[string]bool
}

// New creates empty schema with default void elements.
func New(log *zap.Logger) *Schema {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Schema{
		log:     log.Named("schema"),
		rules:   make(map[string][]*Rule),
		globals: make(map[Type]*Global),
		void:    make(map[string]bool),
	}
	s.SetVoid(DefaultVoid...)
	return s
}

// Clone returns independent copy of the schema sharing nothing mutable.
func (s *Schema) Clone() *Schema {
	cp := &Schema{
		log:     s.log,
		rules:   make(map[string][]*Rule, len(s.rules)),
		count:   s.count,
		globals: make(map[Type]*Global, len(s.globals)),
		void:    maps.Clone(s.void),
	}
	for name, rules := range s.rules {
		for _, r := range rules {
			nr := *r
			nr.Attributes = maps.Clone(r.Attributes)
			nr.Styles = maps.Clone(r.Styles)
			cp.rules[name] = append(cp.rules[name], &nr)
		}
	}
	for t, g := range s.globals {
		cp.globals[t] = &Global{Type: g.Type, Attributes: maps.Clone(g.Attributes), Styles: maps.Clone(g.Styles)}
	}
	return cp
}

// Add registers rules. Rules with the same name are tried most specific
// first: more required constraints win, declaration order breaks ties.
func (s *Schema) Add(rules ...Rule) {
	for _, r := range rules {
		rule := r
		rule.order = s.count
		s.count++
		list := append(s.rules[rule.Name], &rule)
		sort.SliceStable(list, func(i, j int) bool {
			ri, rj := list[i].required(), list[j].required()
			if ri != rj {
				return ri > rj
			}
			return list[i].order < list[j].order
		})
		s.rules[rule.Name] = list
	}
}

// AddGlobal merges global properties for the type.
func (s *Schema) AddGlobal(globals ...Global) {
	for _, g := range globals {
		cur, ok := s.globals[g.Type]
		if !ok {
			cur = &Global{Type: g.Type, Attributes: map[string]Constraint{}, Styles: map[string]Constraint{}}
			s.globals[g.Type] = cur
		}
		maps.Copy(cur.Attributes, g.Attributes)
		maps.Copy(cur.Styles, g.Styles)
	}
}

// SetVoid replaces void element set.
func (s *Schema) SetVoid(names ...string) {
	s.void = make(map[string]bool, len(names))
	for _, n := range names {
		s.void[n] = true
	}
}

// IsVoid reports whether element is serialized self-closing.
func (s *Schema) IsVoid(name string) bool { return s.void[name] }

// Rules returns all rules in declaration order.
func (s *Schema) Rules() []Rule {
	var out []Rule
	for _, list := range s.rules {
		for _, r := range list {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// Globals returns merged globals ordered by type.
func (s *Schema) Globals() []Global {
	var out []Global
	for _, t := range []Type{TypeBlock, TypeInline, TypeMark} {
		if g, ok := s.globals[t]; ok {
			out = append(out, *g)
		}
	}
	return out
}

// Void returns void elements in natural order.
func (s *Schema) Void() []string {
	names := slices.Collect(maps.Keys(s.void))
	sort.Sort(natural.StringSlice(names))
	return names
}

// GetRule returns best rule for the node or nil.
func (s *Schema) GetRule(t *dom.Tree, id dom.NodeID) *Rule {
	return s.GetRuleExcluding(t, id, nil)
}

// GetRuleExcluding returns best rule for the node skipping rules listed in
// used.
func (s *Schema) GetRuleExcluding(t *dom.Tree, id dom.NodeID, used map[*Rule]bool) *Rule {
	switch t.Kind(id) {
	case dom.KindCard:
		return s.cardRule(t, id)
	case dom.KindElement:
	default:
		return nil
	}
	attrs, styles := t.Attrs(id), t.Styles(id)
	for _, r := range s.rules[t.Name(id)] {
		if used[r] {
			continue
		}
		if s.matches(r, attrs, styles) {
			return r
		}
	}
	return nil
}

func (s *Schema) cardRule(t *dom.Tree, id dom.NodeID) *Rule {
	r := &Rule{Name: t.Name(id), Type: TypeInline, Attributes: make(map[string]Constraint, len(cardAttributes))}
	if t.IsBlockCard(id) {
		r.Type = TypeBlock
	}
	for _, a := range cardAttributes {
		r.Attributes[a] = Any()
	}
	return r
}

func (s *Schema) matches(r *Rule, attrs, styles dom.Attrs) bool {
	for k, c := range r.Attributes {
		if !c.Required {
			continue
		}
		if v, ok := attrs.Get(k); !ok || !c.Check(v) {
			return false
		}
	}
	for k, c := range r.Styles {
		if !c.Required {
			continue
		}
		if v, ok := styles.Get(k); !ok || !c.Check(v) {
			return false
		}
	}
	if r.Type != TypeMark || len(r.Attributes)+len(r.Styles) == 0 {
		return true
	}
	// a mark declaring properties must carry at least one of them
	for _, a := range attrs {
		if c, ok := r.Attributes[a.Key]; ok && c.Check(a.Val) {
			return true
		}
	}
	for _, a := range styles {
		if c, ok := r.Styles[a.Key]; ok && c.Check(a.Val) {
			return true
		}
	}
	return false
}

// GetType classifies the node.
func (s *Schema) GetType(t *dom.Tree, id dom.NodeID) Type {
	if r := s.GetRule(t, id); r != nil {
		return r.Type
	}
	return TypeNone
}

func (s *Schema) IsBlock(t *dom.Tree, id dom.NodeID) bool  { return s.GetType(t, id) == TypeBlock }
func (s *Schema) IsInline(t *dom.Tree, id dom.NodeID) bool { return s.GetType(t, id) == TypeInline }
func (s *Schema) IsMark(t *dom.Tree, id dom.NodeID) bool   { return s.GetType(t, id) == TypeMark }

// AllowsAttribute reports whether rule (or globals of its type) permits value.
func (s *Schema) AllowsAttribute(r *Rule, key, value string) bool {
	return s.allows(r.Attributes, s.globalAttrs(r.Type), key, value)
}

// AllowsStyle reports whether rule (or globals of its type) permits value.
func (s *Schema) AllowsStyle(r *Rule, key, value string) bool {
	return s.allows(r.Styles, s.globalStyles(r.Type), key, value)
}

func (s *Schema) allows(own, global map[string]Constraint, key, value string) bool {
	if c, ok := own[key]; ok && c.Check(value) {
		return true
	}
	if c, ok := global[key]; ok && c.Check(value) {
		return true
	}
	return false
}

func (s *Schema) globalAttrs(t Type) map[string]Constraint {
	if g, ok := s.globals[t]; ok {
		return g.Attributes
	}
	return nil
}

func (s *Schema) globalStyles(t Type) map[string]Constraint {
	if g, ok := s.globals[t]; ok {
		return g.Styles
	}
	return nil
}

// FilterAttrs splits attributes into permitted and rejected by rule.
func (s *Schema) FilterAttrs(r *Rule, attrs dom.Attrs) (kept, rest dom.Attrs) {
	for _, a := range attrs {
		if s.AllowsAttribute(r, a.Key, a.Val) {
			kept = append(kept, a)
		} else {
			rest = append(rest, a)
		}
	}
	return kept, rest
}

// FilterStyles splits styles into permitted and rejected by rule.
func (s *Schema) FilterStyles(r *Rule, styles dom.Attrs) (kept, rest dom.Attrs) {
	for _, a := range styles {
		if s.AllowsStyle(r, a.Key, a.Val) {
			kept = append(kept, a)
		} else {
			rest = append(rest, a)
		}
	}
	return kept, rest
}

// Filter removes from the node everything rule does not permit.
func (s *Schema) Filter(t *dom.Tree, id dom.NodeID, r *Rule) {
	if r == nil {
		return
	}
	attrs, _ := s.FilterAttrs(r, t.Attrs(id))
	styles, _ := s.FilterStyles(r, t.Styles(id))
	t.SetAttrs(id, attrs)
	t.SetStyles(id, styles)
}
