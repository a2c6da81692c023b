// Package css parses and normalizes inline style declarations carried by
// content tree elements.
package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Declaration is a single "property: value" pair of an inline style.
type Declaration struct {
	Property string
	Value    string
}

// Parser parses inline style attributes.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new inline style parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// ParseInline parses the content of a style attribute. Declarations are
// returned in source order, later duplicates replace earlier ones in place.
func (p *Parser) ParseInline(data string) []Declaration {
	if strings.TrimSpace(data) == "" {
		return nil
	}

	var (
		decls  []Declaration
		index  = make(map[string]int)
		parser = css.NewParser(parse.NewInputString(data), true)
	)
	for {
		gt, _, name := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				p.log.Debug("Inline style parse error", zap.String("style", data), zap.Error(err))
			}
			return decls
		case css.DeclarationGrammar:
			prop := strings.ToLower(string(name))
			value := joinTokens(parser.Values())
			if value == "" {
				continue
			}
			if i, ok := index[prop]; ok {
				decls[i].Value = value
				continue
			}
			index[prop] = len(decls)
			decls = append(decls, Declaration{Property: prop, Value: value})
		case css.CustomPropertyGrammar:
			// custom properties carry no presentation on their own
			continue
		}
	}
}

// joinTokens rebuilds raw value text collapsing whitespace runs to a single
// space.
func joinTokens(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// Format renders declarations back into style attribute text.
func Format(decls []Declaration) string {
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)
		b.WriteByte(';')
	}
	return b.String()
}
