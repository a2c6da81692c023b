package parser

import (
	"html"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	attrEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Escape encodes markup significant characters of text.
func Escape(s string) string { return textEscaper.Replace(s) }

// Unescape decodes character references, it is inverse of Escape.
func Unescape(s string) string { return html.UnescapeString(s) }

// EscapeAttr encodes attribute value for double quoted emission.
func EscapeAttr(s string) string { return attrEscaper.Replace(s) }
