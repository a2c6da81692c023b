package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse builds tree from markup fragment parsed in "body" context.
func Parse(markup string) (*Tree, error) {
	t := NewTree()
	if err := t.ParseInto(t.Root(), markup); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseInto parses markup fragment and appends resulting nodes to parent.
// Comments and doctype declarations are dropped.
func (t *Tree) ParseInto(parent NodeID, markup string) error {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("unable to parse markup: %w", err)
	}
	for _, n := range nodes {
		if id := t.importNode(n); id != Nil {
			t.Append(parent, id)
		}
	}
	return nil
}

func (t *Tree) importNode(n *html.Node) NodeID {
	switch n.Type {
	case html.TextNode:
		return t.CreateText(n.Data)
	case html.ElementNode:
		id := t.CreateElement(n.Data)
		for _, a := range n.Attr {
			if a.Namespace != "" {
				t.SetAttr(id, a.Namespace+":"+a.Key, a.Val)
				continue
			}
			t.SetAttr(id, a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if cid := t.importNode(c); cid != Nil {
				t.Append(id, cid)
			}
		}
		return id
	}
	return Nil
}

// HTMLNode converts subtree of id into x/net/html node suitable for rendering.
func (t *Tree) HTMLNode(id NodeID) *html.Node {
	switch {
	case t.IsText(id):
		return &html.Node{Type: html.TextNode, Data: t.Text(id)}
	case t.IsElement(id):
		n := &html.Node{Type: html.ElementNode, Data: t.Name(id), DataAtom: atom.Lookup([]byte(t.Name(id)))}
		for _, a := range t.nodes[id].attrs {
			n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
		if s := t.nodes[id].styles; len(s) > 0 {
			n.Attr = append(n.Attr, html.Attribute{Key: StyleAttr, Val: FormatStyle(s)})
		}
		for c := t.FirstChild(id); c != Nil; c = t.Next(c) {
			n.AppendChild(t.HTMLNode(c))
		}
		return n
	}
	return nil
}

// OuterHTML renders node with its subtree.
func (t *Tree) OuterHTML(id NodeID) string {
	n := t.HTMLNode(id)
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// InnerHTML renders children of node.
func (t *Tree) InnerHTML(id NodeID) string {
	var b strings.Builder
	for c := t.FirstChild(id); c != Nil; c = t.Next(c) {
		b.WriteString(t.OuterHTML(c))
	}
	return b.String()
}
