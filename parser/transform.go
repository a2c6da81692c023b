package parser

import (
	"regexp"

	"richdoc/dom"
)

const paragraphTag = "paragraph"

var (
	reEmptyAnchor   = regexp.MustCompile(`(?i)<a\s*/>`)
	reClosedAnchor  = regexp.MustCompile(`(?i)<a(\s[^>]+?)/>`)
	reOpenParagraph = regexp.MustCompile(`(?i)<p(>|\s+[^>]*>)`)
	reEndParagraph  = regexp.MustCompile(`(?i)</p>`)
	reCustomTag     = regexp.MustCompile(`(?i)<(card|cursor|anchor|focus)(\s[^<>]*?)?\s*/>`)
	reSelectionTag  = regexp.MustCompile(`(?i)</?(cursor|anchor|focus)(\s[^<>]*?)?\s*/?>`)
)

// prepareSource repairs markup that HTML parsing would otherwise mangle.
func prepareSource(source string) string {
	source = reEmptyAnchor.ReplaceAllString(source, "<a></a>")
	source = reClosedAnchor.ReplaceAllString(source, "<a$1></a>")
	source = reOpenParagraph.ReplaceAllString(source, "<"+paragraphTag+"$1")
	source = reEndParagraph.ReplaceAllString(source, "</"+paragraphTag+">")
	return TransformCustomTags(source)
}

// TransformCustomTags expands self-closed custom tags into open/close pairs.
func TransformCustomTags(value string) string {
	return reCustomTag.ReplaceAllString(value, "<$1$2></$1>")
}

// StripSelectionTags removes cursor, anchor and focus markers from value.
func StripSelectionTags(value string) string {
	return reSelectionTag.ReplaceAllString(value, "")
}

// restoreParagraphs replaces placeholder elements with real paragraphs.
func restoreParagraphs(t *dom.Tree) {
	for _, id := range t.Descendants(t.Root()) {
		if t.Name(id) != paragraphTag {
			continue
		}
		p := t.CreateElement("p")
		t.SetAttrs(p, t.Attrs(id))
		t.SetStyles(p, t.Styles(id))
		t.Replace(id, p)
	}
}
