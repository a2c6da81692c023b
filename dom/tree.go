// Package dom implements mutable content tree used by the document engine.
//
// Nodes live in an arena owned by Tree and are addressed by NodeID. Links
// between nodes are explicit, so cloning a tree or a subtree never aliases
// state of the original.
package dom

import (
	"strings"
	"unicode/utf8"

	"richdoc/css"
)

// NodeID addresses node inside its Tree. Zero value is never a valid node.
type NodeID int32

// Nil is an absent node.
const Nil NodeID = 0

// Kind is node variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindElement
	KindText
	KindCard
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindCard:
		return "card"
	}
	return "none"
}

// Reserved attributes and tags.
const (
	CardTag         = "card"
	CardKeyAttr     = "data-card-key"
	CardTypeAttr    = "data-card-type"
	CardIDAttr      = "data-card-id"
	CardValueAttr   = "data-card-value"
	CardElementAttr = "data-card-element"
	ElementAttr     = "data-element"
	EditableValue   = "editable"
	StyleAttr       = "style"
	BlockCardType   = "block"
	InlineCardType  = "inline"
)

var styles = css.NewParser(nil)

type node struct {
	kind   Kind
	name   string
	attrs  Attrs
	styles Attrs
	text   string

	parent, first, last, prev, next NodeID
}

// Tree is an arena of nodes with a single "body" root element. Nodes created
// by the tree stay detached until inserted under some parent.
type Tree struct {
	nodes []node
	root  NodeID
}

// NewTree returns empty tree.
func NewTree() *Tree {
	t := &Tree{nodes: make([]node, 1, 64)}
	t.root = t.CreateElement("body")
	return t
}

// Root returns root element.
func (t *Tree) Root() NodeID { return t.root }

// Valid reports whether id addresses a node of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id > Nil && int(id) < len(t.nodes)
}

// CreateElement allocates detached element.
func (t *Tree) CreateElement(name string) NodeID {
	t.nodes = append(t.nodes, node{kind: KindElement, name: strings.ToLower(name)})
	return NodeID(len(t.nodes) - 1)
}

// CreateText allocates detached text node.
func (t *Tree) CreateText(text string) NodeID {
	t.nodes = append(t.nodes, node{kind: KindText, text: text})
	return NodeID(len(t.nodes) - 1)
}

// Kind returns node variant, elements recognized as cards report KindCard.
func (t *Tree) Kind(id NodeID) Kind {
	if !t.Valid(id) {
		return KindNone
	}
	n := &t.nodes[id]
	if n.kind == KindElement && (n.name == CardTag || n.attrs.Has(CardKeyAttr)) {
		return KindCard
	}
	return n.kind
}

// IsText reports whether id is a text node.
func (t *Tree) IsText(id NodeID) bool { return t.Valid(id) && t.nodes[id].kind == KindText }

// IsElement reports whether id is an element, cards included.
func (t *Tree) IsElement(id NodeID) bool { return t.Valid(id) && t.nodes[id].kind == KindElement }

// IsCard reports whether id is a card root.
func (t *Tree) IsCard(id NodeID) bool { return t.Kind(id) == KindCard }

// Name returns lower case tag name, empty for text.
func (t *Tree) Name(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	return t.nodes[id].name
}

// SetName renames element.
func (t *Tree) SetName(id NodeID, name string) {
	if t.IsElement(id) {
		t.nodes[id].name = strings.ToLower(name)
	}
}

// Text returns text node content.
func (t *Tree) Text(id NodeID) string {
	if !t.Valid(id) {
		return ""
	}
	return t.nodes[id].text
}

// SetText replaces text node content.
func (t *Tree) SetText(id NodeID, text string) {
	if t.IsText(id) {
		t.nodes[id].text = text
	}
}

// Attr returns attribute value. The "style" attribute is rebuilt from styles.
func (t *Tree) Attr(id NodeID, key string) string {
	v, _ := t.LookupAttr(id, key)
	return v
}

// LookupAttr returns attribute value and whether it is present.
func (t *Tree) LookupAttr(id NodeID, key string) (string, bool) {
	if !t.IsElement(id) {
		return "", false
	}
	if key == StyleAttr {
		if len(t.nodes[id].styles) == 0 {
			return "", false
		}
		return css.Format(toDeclarations(t.nodes[id].styles)), true
	}
	return t.nodes[id].attrs.Get(key)
}

// HasAttr reports whether attribute is present.
func (t *Tree) HasAttr(id NodeID, key string) bool {
	_, ok := t.LookupAttr(id, key)
	return ok
}

// SetAttr sets attribute. Setting "style" replaces all styles of the node.
func (t *Tree) SetAttr(id NodeID, key, val string) {
	if !t.IsElement(id) {
		return
	}
	key = strings.ToLower(key)
	if key == StyleAttr {
		t.nodes[id].styles = ParseStyle(val)
		return
	}
	t.nodes[id].attrs.Set(key, val)
}

// RemoveAttr removes attribute, "style" removes all styles.
func (t *Tree) RemoveAttr(id NodeID, key string) {
	if !t.IsElement(id) {
		return
	}
	if key == StyleAttr {
		t.nodes[id].styles = nil
		return
	}
	t.nodes[id].attrs.Delete(key)
}

// Attrs returns copy of node attributes, "style" is not included.
func (t *Tree) Attrs(id NodeID) Attrs {
	if !t.IsElement(id) {
		return nil
	}
	return t.nodes[id].attrs.Clone()
}

// SetAttrs replaces all attributes except styles.
func (t *Tree) SetAttrs(id NodeID, attrs Attrs) {
	if !t.IsElement(id) {
		return
	}
	t.nodes[id].attrs = nil
	for _, a := range attrs {
		t.SetAttr(id, a.Key, a.Val)
	}
}

// Style returns inline style property value.
func (t *Tree) Style(id NodeID, key string) string {
	if !t.IsElement(id) {
		return ""
	}
	return t.nodes[id].styles.Value(key)
}

// SetStyle sets inline style property.
func (t *Tree) SetStyle(id NodeID, key, val string) {
	if t.IsElement(id) {
		t.nodes[id].styles.Set(strings.ToLower(key), val)
	}
}

// RemoveStyle removes inline style property.
func (t *Tree) RemoveStyle(id NodeID, key string) {
	if t.IsElement(id) {
		t.nodes[id].styles.Delete(key)
	}
}

// Styles returns copy of inline styles.
func (t *Tree) Styles(id NodeID) Attrs {
	if !t.IsElement(id) {
		return nil
	}
	return t.nodes[id].styles.Clone()
}

// SetStyles replaces inline styles.
func (t *Tree) SetStyles(id NodeID, s Attrs) {
	if t.IsElement(id) {
		t.nodes[id].styles = s.Clone()
	}
}

// ParseStyle parses style attribute text into ordered properties.
func ParseStyle(s string) Attrs {
	var out Attrs
	for _, d := range styles.ParseInline(s) {
		out.Set(d.Property, d.Value)
	}
	return out
}

// FormatStyle renders properties as style attribute text.
func FormatStyle(s Attrs) string {
	return css.Format(toDeclarations(s))
}

func toDeclarations(s Attrs) []css.Declaration {
	decls := make([]css.Declaration, 0, len(s))
	for _, a := range s {
		decls = append(decls, css.Declaration{Property: a.Key, Value: a.Val})
	}
	return decls
}

// Parent returns parent of id or Nil.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.link(id, func(n *node) NodeID { return n.parent })
}

// FirstChild returns first child of id or Nil.
func (t *Tree) FirstChild(id NodeID) NodeID {
	return t.link(id, func(n *node) NodeID { return n.first })
}

// LastChild returns last child of id or Nil.
func (t *Tree) LastChild(id NodeID) NodeID {
	return t.link(id, func(n *node) NodeID { return n.last })
}

// Prev returns previous sibling of id or Nil.
func (t *Tree) Prev(id NodeID) NodeID {
	return t.link(id, func(n *node) NodeID { return n.prev })
}

// Next returns next sibling of id or Nil.
func (t *Tree) Next(id NodeID) NodeID {
	return t.link(id, func(n *node) NodeID { return n.next })
}

func (t *Tree) link(id NodeID, get func(*node) NodeID) NodeID {
	if !t.Valid(id) {
		return Nil
	}
	return get(&t.nodes[id])
}

// Children returns snapshot of child ids.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.FirstChild(id); c != Nil; c = t.Next(c) {
		out = append(out, c)
	}
	return out
}

// ChildCount returns number of children.
func (t *Tree) ChildCount(id NodeID) int {
	n := 0
	for c := t.FirstChild(id); c != Nil; c = t.Next(c) {
		n++
	}
	return n
}

// ChildAt returns i-th child or Nil.
func (t *Tree) ChildAt(id NodeID, i int) NodeID {
	if i < 0 {
		return Nil
	}
	c := t.FirstChild(id)
	for ; c != Nil && i > 0; i-- {
		c = t.Next(c)
	}
	return c
}

// Index returns position of the node among its siblings, -1 when detached.
func (t *Tree) Index(id NodeID) int {
	if t.Parent(id) == Nil {
		return -1
	}
	i := 0
	for c := t.Prev(id); c != Nil; c = t.Prev(c) {
		i++
	}
	return i
}

// Len returns rune length of a text node or child count of an element.
func (t *Tree) Len(id NodeID) int {
	if t.IsText(id) {
		return utf8.RuneCountInString(t.nodes[id].text)
	}
	return t.ChildCount(id)
}

// Detach removes node (with its subtree) from its parent.
func (t *Tree) Detach(id NodeID) {
	if !t.Valid(id) {
		return
	}
	n := &t.nodes[id]
	if n.parent == Nil {
		return
	}
	p := &t.nodes[n.parent]
	if n.prev != Nil {
		t.nodes[n.prev].next = n.next
	} else {
		p.first = n.next
	}
	if n.next != Nil {
		t.nodes[n.next].prev = n.prev
	} else {
		p.last = n.prev
	}
	n.parent, n.prev, n.next = Nil, Nil, Nil
}

// Append makes child the last child of parent.
func (t *Tree) Append(parent, child NodeID) {
	if !t.Valid(parent) || !t.Valid(child) || parent == child {
		return
	}
	t.Detach(child)
	p, c := &t.nodes[parent], &t.nodes[child]
	c.parent, c.prev = parent, p.last
	if p.last != Nil {
		t.nodes[p.last].next = child
	} else {
		p.first = child
	}
	p.last = child
}

// InsertBefore inserts child as previous sibling of ref.
func (t *Tree) InsertBefore(ref, child NodeID) {
	if !t.Valid(ref) || !t.Valid(child) || ref == child {
		return
	}
	t.Detach(child)
	r := &t.nodes[ref]
	if r.parent == Nil {
		return
	}
	c := &t.nodes[child]
	c.parent, c.prev, c.next = r.parent, r.prev, ref
	if r.prev != Nil {
		t.nodes[r.prev].next = child
	} else {
		t.nodes[r.parent].first = child
	}
	r.prev = child
}

// InsertAfter inserts child as next sibling of ref.
func (t *Tree) InsertAfter(ref, child NodeID) {
	if !t.Valid(ref) || !t.Valid(child) || ref == child {
		return
	}
	if next := t.Next(ref); next != Nil {
		t.InsertBefore(next, child)
		return
	}
	if p := t.Parent(ref); p != Nil {
		t.Append(p, child)
	}
}

// InsertAt inserts child at index among children of parent.
func (t *Tree) InsertAt(parent NodeID, index int, child NodeID) {
	if ref := t.ChildAt(parent, index); ref != Nil {
		t.InsertBefore(ref, child)
		return
	}
	t.Append(parent, child)
}

// MoveChildren appends all children of from to to.
func (t *Tree) MoveChildren(from, to NodeID) {
	for c := t.FirstChild(from); c != Nil; c = t.FirstChild(from) {
		t.Append(to, c)
	}
}

// Replace puts repl where old was and moves all children of old into repl.
func (t *Tree) Replace(old, repl NodeID) {
	if old == repl || t.Parent(old) == Nil {
		return
	}
	t.InsertBefore(old, repl)
	t.MoveChildren(old, repl)
	t.Detach(old)
}

// Wrap puts wrapper where id was and makes id its last child.
func (t *Tree) Wrap(id, wrapper NodeID) {
	if t.Parent(id) == Nil || id == wrapper {
		return
	}
	t.InsertBefore(id, wrapper)
	t.Append(wrapper, id)
}

// Unwrap promotes children of id to its parent and detaches id.
func (t *Tree) Unwrap(id NodeID) {
	if t.Parent(id) == Nil {
		return
	}
	for c := t.FirstChild(id); c != Nil; c = t.FirstChild(id) {
		t.InsertBefore(id, c)
	}
	t.Detach(id)
}

// CloneNode copies node, with its subtree when deep. Result is detached.
func (t *Tree) CloneNode(id NodeID, deep bool) NodeID {
	return t.CopyInto(t, id, deep)
}

// CopyInto copies node into dst tree (which may be the same tree) and
// returns detached copy.
func (t *Tree) CopyInto(dst *Tree, id NodeID, deep bool) NodeID {
	if !t.Valid(id) {
		return Nil
	}
	n := t.nodes[id]
	dst.nodes = append(dst.nodes, node{
		kind:   n.kind,
		name:   n.name,
		text:   n.text,
		attrs:  n.attrs.Clone(),
		styles: n.styles.Clone(),
	})
	cp := NodeID(len(dst.nodes) - 1)
	if deep {
		for c := t.FirstChild(id); c != Nil; c = t.Next(c) {
			dst.Append(cp, t.CopyInto(dst, c, true))
		}
	}
	return cp
}

// Clone returns independent copy of the whole arena. Node ids are preserved.
func (t *Tree) Clone() *Tree {
	cp := &Tree{nodes: make([]node, len(t.nodes)), root: t.root}
	copy(cp.nodes, t.nodes)
	for i := range cp.nodes {
		cp.nodes[i].attrs = cp.nodes[i].attrs.Clone()
		cp.nodes[i].styles = cp.nodes[i].styles.Clone()
	}
	return cp
}

// Descendants returns all nodes under id in document (pre-)order, id itself
// excluded.
func (t *Tree) Descendants(id NodeID) []NodeID {
	var out []NodeID
	for n := t.NextInOrder(id, id); n != Nil; n = t.NextInOrder(n, id) {
		out = append(out, n)
	}
	return out
}

// NextInOrder returns node following id in pre-order without leaving within.
func (t *Tree) NextInOrder(id, within NodeID) NodeID {
	if c := t.FirstChild(id); c != Nil {
		return c
	}
	return t.NextSkipping(id, within)
}

// NextSkipping returns node following id in pre-order without descending
// into the subtree of id.
func (t *Tree) NextSkipping(id, within NodeID) NodeID {
	for n := id; n != Nil && n != within; n = t.Parent(n) {
		if next := t.Next(n); next != Nil {
			return next
		}
	}
	return Nil
}

// Contains reports whether id is ancestor or self of other.
func (t *Tree) Contains(id, other NodeID) bool {
	for n := other; n != Nil; n = t.Parent(n) {
		if n == id {
			return true
		}
	}
	return false
}

// Attached reports whether node is reachable from root.
func (t *Tree) Attached(id NodeID) bool {
	return t.Contains(t.root, id)
}

// Closest returns id or its nearest ancestor satisfying pred.
func (t *Tree) Closest(id NodeID, pred func(NodeID) bool) NodeID {
	for n := id; n != Nil; n = t.Parent(n) {
		if pred(n) {
			return n
		}
	}
	return Nil
}

// TextContent concatenates all text under id.
func (t *Tree) TextContent(id NodeID) string {
	if t.IsText(id) {
		return t.nodes[id].text
	}
	var b strings.Builder
	for _, n := range t.Descendants(id) {
		if t.IsText(n) {
			b.WriteString(t.nodes[n].text)
		}
	}
	return b.String()
}

// CardID returns identifier of card root.
func (t *Tree) CardID(id NodeID) string {
	if v, ok := t.LookupAttr(id, CardIDAttr); ok {
		return v
	}
	return t.Attr(id, "id")
}

// CardType returns "block" or "inline" for card root.
func (t *Tree) CardType(id NodeID) string {
	if v, ok := t.LookupAttr(id, CardTypeAttr); ok {
		return v
	}
	if v := t.Attr(id, "type"); v != "" {
		return v
	}
	return InlineCardType
}

// IsBlockCard reports whether id is a block card.
func (t *Tree) IsBlockCard(id NodeID) bool {
	return t.IsCard(id) && t.CardType(id) == BlockCardType
}

// InCard reports whether id is strictly inside a card.
func (t *Tree) InCard(id NodeID) bool {
	for n := t.Parent(id); n != Nil; n = t.Parent(n) {
		if t.IsCard(n) {
			return true
		}
	}
	return false
}

// SplitText splits text node at rune offset. Original node keeps the head,
// returned node holds the tail and is inserted right after it.
func (t *Tree) SplitText(id NodeID, offset int) NodeID {
	if !t.IsText(id) {
		return Nil
	}
	r := []rune(t.nodes[id].text)
	offset = max(0, min(offset, len(r)))
	t.nodes[id].text = string(r[:offset])
	tail := t.CreateText(string(r[offset:]))
	if t.Parent(id) != Nil {
		t.InsertAfter(id, tail)
	}
	return tail
}

// MergeText joins adjacent text nodes and drops empty ones in subtree of id.
func (t *Tree) MergeText(id NodeID) {
	for c := t.FirstChild(id); c != Nil; {
		next := t.Next(c)
		if !t.IsText(c) {
			t.MergeText(c)
			c = next
			continue
		}
		for next != Nil && t.IsText(next) {
			t.nodes[c].text += t.nodes[next].text
			after := t.Next(next)
			t.Detach(next)
			next = after
		}
		if t.nodes[c].text == "" {
			t.Detach(c)
		}
		c = next
	}
}
