// Package events carries synchronous observer hooks fired by the parser and
// the mark engine. Hooks must not mutate the tree they are given except
// through the fields explicitly offered to them.
package events

import (
	"richdoc/dom"
)

// Node is element about to be serialized. Hooks may edit Attrs and Styles,
// the tree itself must be left alone.
type Node struct {
	Tree   *dom.Tree
	ID     dom.NodeID
	Name   string
	Attrs  dom.Attrs
	Styles dom.Attrs
}

type (
	TreeHook   func(t *dom.Tree, root dom.NodeID)
	NodeHook   func(n *Node) bool
	StringHook func(s string) string
	SelectHook func(key, id string)
	ChangeHook func(key string, added, removed []string)
)

// Emitter holds registered hooks. Zero value is ready to use, nil emitter
// fires nothing.
type Emitter struct {
	valueBefore []TreeHook
	value       []NodeHook
	valueAfter  []StringHook
	htmlBefore  []TreeHook
	html        []TreeHook
	htmlAfter   []StringHook
	selectHooks []SelectHook
	change      []ChangeHook
}

// New returns empty emitter.
func New() *Emitter { return &Emitter{} }

func (e *Emitter) OnValueBefore(h TreeHook)  { e.valueBefore = append(e.valueBefore, h) }
func (e *Emitter) OnValue(h NodeHook)        { e.value = append(e.value, h) }
func (e *Emitter) OnValueAfter(h StringHook) { e.valueAfter = append(e.valueAfter, h) }
func (e *Emitter) OnHTMLBefore(h TreeHook)   { e.htmlBefore = append(e.htmlBefore, h) }
func (e *Emitter) OnHTML(h TreeHook)         { e.html = append(e.html, h) }
func (e *Emitter) OnHTMLAfter(h StringHook)  { e.htmlAfter = append(e.htmlAfter, h) }
func (e *Emitter) OnSelect(h SelectHook)     { e.selectHooks = append(e.selectHooks, h) }
func (e *Emitter) OnChange(h ChangeHook)     { e.change = append(e.change, h) }

// ValueBefore fires before serialization walk starts.
func (e *Emitter) ValueBefore(t *dom.Tree, root dom.NodeID) {
	if e == nil {
		return
	}
	for _, h := range e.valueBefore {
		h(t, root)
	}
}

// Value asks every hook about the node. Any hook returning false vetoes
// emission of the node together with its subtree.
func (e *Emitter) Value(n *Node) bool {
	if e == nil {
		return true
	}
	ok := true
	for _, h := range e.value {
		if !h(n) {
			ok = false
		}
	}
	return ok
}

// ValueAfter passes serialized value through hooks.
func (e *Emitter) ValueAfter(value string) string {
	if e == nil {
		return value
	}
	for _, h := range e.valueAfter {
		value = h(value)
	}
	return value
}

// HTMLBefore fires before presentation tree is built.
func (e *Emitter) HTMLBefore(t *dom.Tree, root dom.NodeID) {
	if e == nil {
		return
	}
	for _, h := range e.htmlBefore {
		h(t, root)
	}
}

// HTML fires on presentation tree before rendering. Hooks may mutate it.
func (e *Emitter) HTML(t *dom.Tree, root dom.NodeID) {
	if e == nil {
		return
	}
	for _, h := range e.html {
		h(t, root)
	}
}

// HTMLAfter passes rendered markup through hooks.
func (e *Emitter) HTMLAfter(html string) string {
	if e == nil {
		return html
	}
	for _, h := range e.htmlAfter {
		html = h(html)
	}
	return html
}

// Select reports mark resolved for current selection, empty key when none.
func (e *Emitter) Select(key, id string) {
	if e == nil {
		return
	}
	for _, h := range e.selectHooks {
		h(key, id)
	}
}

// Change reports ids added to or removed from the document.
func (e *Emitter) Change(key string, added, removed []string) {
	if e == nil {
		return
	}
	for _, h := range e.change {
		h(key, added, removed)
	}
}
