package parser

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"richdoc/dom"
	"richdoc/schema"
)

const listItemFlag = "data-list-item"

var reNewlines = regexp.MustCompile(`\n{2,}`)

// ToText extracts plain text. Line breaks and block ends become newlines,
// list items are prefixed with their markers. Blocks are recognized with s,
// parser schema is used when s is nil.
func (p *Parser) ToText(s *schema.Schema, includeCard bool) string {
	if s == nil {
		s = p.schema
	}
	t := p.tree.Clone()

	var result []string
	p.WalkTree(t, p.root, nil, Callbacks{
		OnOpen: func(id dom.NodeID, name string, attrs, styles dom.Attrs) bool {
			switch name {
			case "br":
				result = append(result, "\n")
			case "li":
				if marker := p.listMarker(t, id); marker != "" {
					result = append(result, marker)
				}
			}
			return true
		},
		OnText: func(_ dom.NodeID, text string) {
			result = append(result, strings.ReplaceAll(Unescape(text), "\u00a0", " "))
		},
		OnClose: func(id dom.NodeID, name string, _, _ dom.Attrs) {
			if name == "p" || t.IsBlockCard(id) || s.IsBlock(t, id) {
				result = append(result, "\n")
			}
		},
	}, includeCard)

	text := reNewlines.ReplaceAllString(strings.Join(result, ""), "\n")
	text = strings.TrimLeft(text, " \t\r\n")
	return strings.TrimRight(text, " \t\r")
}

func isListItemFlagged(t *dom.Tree, id dom.NodeID) bool {
	return t.HasAttr(id, listItemFlag) || slices.Contains(strings.Fields(t.Attr(id, "class")), listItemFlag)
}

func (p *Parser) listMarker(t *dom.Tree, id dom.NodeID) string {
	if isListItemFlagged(t, id) {
		return ""
	}
	parent := t.Parent(id)
	style := t.Style(parent, "list-style-type")
	switch t.Name(parent) {
	case "ol":
		start := 1
		if v, err := strconv.Atoi(strings.TrimSpace(t.Attr(parent, "start"))); err == nil {
			start = v
		}
		pos := 0
		for c := t.FirstChild(parent); c != id && c != dom.Nil; c = t.Next(c) {
			if t.Name(c) == "li" && !isListItemFlagged(t, c) {
				pos++
			}
		}
		return p.lists.Ordinal(style, start+pos) + ". "
	case "ul":
		return p.lists.Bullet(style) + " "
	}
	return ""
}
