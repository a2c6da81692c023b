package parser

import (
	"strings"

	"richdoc/dom"
	"richdoc/schema"
)

// Callbacks receive walk events. OnOpen returning false skips the node
// subtree and its close.
type Callbacks struct {
	OnOpen  func(id dom.NodeID, name string, attrs, styles dom.Attrs) bool
	OnText  func(id dom.NodeID, text string)
	OnClose func(id dom.NodeID, name string, attrs, styles dom.Attrs)
}

// WalkTree walks children of node depth first. When s is given elements it
// does not classify are not reported (their content is), and reported
// properties are limited to what matching rule permits. Cards are not
// entered unless includeCard is set. Text is reported escaped, with
// formatting whitespace at block edges removed.
func (p *Parser) WalkTree(t *dom.Tree, node dom.NodeID, s *schema.Schema, cb Callbacks, includeCard bool) {
	p.walk(t, node, node, s, cb, includeCard)
}

func (p *Parser) walk(t *dom.Tree, top, node dom.NodeID, s *schema.Schema, cb Callbacks, includeCard bool) {
	for c := t.FirstChild(node); c != dom.Nil; c = t.Next(c) {
		if t.IsText(c) {
			text := p.blockEdgeText(t, top, c)
			if cb.OnText != nil {
				cb.OnText(c, text)
			}
			continue
		}

		name, attrs, styles := t.Name(c), t.Attrs(c), t.Styles(c)
		part := attrs.Value(dom.CardElementAttr)
		if part == "left" || part == "right" {
			continue
		}

		passed := true
		if s != nil && attrs.Value(dom.ElementAttr) != dom.EditableValue {
			if rule := s.GetRule(t, c); rule == nil {
				passed = false
			} else {
				attrs, _ = s.FilterAttrs(rule, attrs)
				styles, _ = s.FilterStyles(rule, styles)
			}
		}

		report := passed && part != "center"
		if report && cb.OnOpen != nil && !cb.OnOpen(c, name, attrs, styles) {
			continue
		}
		if !t.IsCard(c) || includeCard {
			p.walk(t, top, c, s, cb, includeCard)
		}
		if report && cb.OnClose != nil {
			cb.OnClose(c, name, attrs, styles)
		}
	}
}

func (p *Parser) blockEdgeText(t *dom.Tree, top, id dom.NodeID) string {
	text := Escape(t.Text(id))
	parent := t.Parent(id)
	prev, next := t.Prev(id), t.Next(id)
	if parent == top || p.isBlock(t, parent) {
		if prev == dom.Nil {
			text = strings.TrimLeft(text, " \n")
		}
		if next == dom.Nil {
			text = strings.TrimRight(text, " \n")
		}
	}
	// <p>foo</p>\n<p>bar</p>
	if prev != dom.Nil && next != dom.Nil && p.isBlock(t, prev) && p.isBlock(t, next) && strings.TrimSpace(text) == "" {
		text = ""
	}
	return strings.ReplaceAll(text, "\u200b", "")
}

// TrimBlockEdges removes from text under node what WalkTree drops at block
// edges, so offsets taken in the tree stay valid in serialized value. Nodes
// accepted by skip are treated as absent and adjacent texts as one run.
func (p *Parser) TrimBlockEdges(t *dom.Tree, node dom.NodeID, skip func(dom.NodeID) bool) {
	p.trimEdges(t, node, node, skip)
}

func (p *Parser) trimEdges(t *dom.Tree, top, node dom.NodeID, skip func(dom.NodeID) bool) {
	var (
		run  []dom.NodeID
		prev = dom.Nil
	)
	edge := node == top || p.isBlock(t, node)
	flush := func(next dom.NodeID) {
		if len(run) > 0 {
			p.trimRun(t, run, edge, prev, next)
		}
		run = run[:0]
	}
	for c := t.FirstChild(node); c != dom.Nil; c = t.Next(c) {
		switch {
		case skip != nil && skip(c):
		case t.IsText(c):
			run = append(run, c)
		default:
			flush(c)
			prev = c
			if !t.IsCard(c) {
				p.trimEdges(t, top, c, skip)
			}
		}
	}
	flush(dom.Nil)
}

// trimRun applies blockEdgeText rules to texts which merge into one node.
func (p *Parser) trimRun(t *dom.Tree, run []dom.NodeID, edge bool, prev, next dom.NodeID) {
	if edge && prev == dom.Nil {
		for _, id := range run {
			text := strings.TrimLeft(t.Text(id), " \n")
			t.SetText(id, text)
			if text != "" {
				break
			}
		}
	}
	if edge && next == dom.Nil {
		for i := len(run) - 1; i >= 0; i-- {
			text := strings.TrimRight(t.Text(run[i]), " \n")
			t.SetText(run[i], text)
			if text != "" {
				break
			}
		}
	}
	blank := prev != dom.Nil && next != dom.Nil && p.isBlock(t, prev) && p.isBlock(t, next)
	for _, id := range run {
		if strings.TrimSpace(t.Text(id)) != "" {
			blank = false
		}
	}
	for _, id := range run {
		text := t.Text(id)
		if blank {
			text = ""
		}
		t.SetText(id, strings.ReplaceAll(text, "\u200b", ""))
	}
}
