package parser

import (
	"fmt"

	"github.com/beevik/etree"

	"richdoc/dom"
)

// HTMLResult is presentation markup with its plain text.
type HTMLResult struct {
	HTML string
	Text string
}

// ToHTML renders presentation markup: content is wrapped into a div,
// elements hidden from selection are dropped and paragraphs get the
// presentation style.
func (p *Parser) ToHTML() HTMLResult {
	t := p.tree.Clone()
	wrapper := t.CreateElement("div")
	for c := t.FirstChild(p.root); c != dom.Nil; c = t.Next(c) {
		t.Append(wrapper, t.CloneNode(c, true))
	}

	p.events.HTMLBefore(t, wrapper)
	for _, id := range t.Descendants(wrapper) {
		if t.IsElement(id) && t.Style(id, "user-select") == "none" && t.Parent(id) != dom.Nil {
			t.Detach(id)
		}
	}
	p.events.HTML(t, wrapper)
	for _, id := range t.Descendants(wrapper) {
		if t.Name(id) != "p" {
			continue
		}
		for _, s := range p.paragraph {
			t.SetStyle(id, s.Key, s.Val)
		}
	}

	return HTMLResult{
		HTML: p.events.HTMLAfter(t.InnerHTML(wrapper)),
		Text: p.derive(t, wrapper).ToText(p.schema, true),
	}
}

var renderedCardAttrs = map[string]string{
	"name":  dom.CardKeyAttr,
	"type":  dom.CardTypeAttr,
	"id":    dom.CardIDAttr,
	"value": dom.CardValueAttr,
}

// ToXHTML renders canonical value as a standalone XHTML document.
func (p *Parser) ToXHTML(title string) (string, error) {
	t, err := p.ToDOM(p.Canonical())
	if err != nil {
		return "", err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := html.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")
	head.CreateElement("title").SetText(title)

	body := html.CreateElement("body")
	for c := t.FirstChild(t.Root()); c != dom.Nil; c = t.Next(c) {
		p.appendXHTML(body, t, c)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("unable to write XHTML: %w", err)
	}
	return out, nil
}

func (p *Parser) appendXHTML(parent *etree.Element, t *dom.Tree, id dom.NodeID) {
	if t.IsText(id) {
		parent.CreateText(t.Text(id))
		return
	}
	name, attrs := t.Name(id), t.Attrs(id)
	if t.IsCard(id) {
		name = "span"
		if t.IsBlockCard(id) {
			name = "div"
		}
		_, cardAttrs := CardValueTag(t, id, attrs)
		attrs = nil
		for _, a := range cardAttrs {
			key, ok := renderedCardAttrs[a.Key]
			if !ok {
				key = a.Key
			}
			attrs = append(attrs, dom.Attr{Key: key, Val: a.Val})
		}
	}
	el := parent.CreateElement(name)
	for _, a := range attrs {
		el.CreateAttr(a.Key, a.Val)
	}
	if s := t.Styles(id); len(s) > 0 {
		el.CreateAttr(dom.StyleAttr, dom.FormatStyle(s))
	}
	for c := t.FirstChild(id); c != dom.Nil; c = t.Next(c) {
		p.appendXHTML(el, t, c)
	}
}
