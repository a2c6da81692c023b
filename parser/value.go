package parser

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"richdoc/css"
	"richdoc/dom"
	"richdoc/events"
	"richdoc/schema"
)

// ValueOptions controls ToValue.
type ValueOptions struct {
	// Schema normalizes and filters tree, nil serializes it as is.
	Schema     *schema.Schema
	Conversion *schema.Conversion
	// ReplaceSpaces keeps runs of spaces visible by alternating space and
	// no-break space.
	ReplaceSpaces bool
	// CustomTags expands self-closed custom tags in result.
	CustomTags bool
}

// Canonical returns options serializing with parser's own schema.
func (p *Parser) Canonical() ValueOptions {
	return ValueOptions{Schema: p.schema, Conversion: p.conversion}
}

var (
	reZeroSpacing = regexp.MustCompile(`^(padding|margin|text-indent)`)
	reSpaceRun    = regexp.MustCompile(`[\x{00a0} ]+`)
)

// ToValue serializes wrapped subtree into canonical value string. Wrapped
// tree is never modified.
func (p *Parser) ToValue(opts ValueOptions) string {
	t := p.tree.Clone()
	root := p.root
	if opts.Schema != nil {
		Normalize(t, root, opts.Schema, opts.Conversion, p.log)
	}
	p.events.ValueBefore(t, root)

	var (
		result []string
		void   = p.voidChecker(opts.Schema)
	)
	p.WalkTree(t, root, opts.Schema, Callbacks{
		OnOpen: func(id dom.NodeID, name string, attrs, styles dom.Attrs) bool {
			if t.IsCard(id) {
				name, attrs = CardValueTag(t, id, attrs)
			}
			n := &events.Node{Tree: t, ID: id, Name: name, Attrs: attrs, Styles: styles}
			if !p.events.Value(n) {
				return false
			}
			result = append(result, "<", n.Name)
			for _, a := range n.Attrs {
				if a.Key == dom.StyleAttr {
					continue
				}
				result = append(result, " ", a.Key, `="`, EscapeAttr(a.Val), `"`)
			}
			if s := stylesToString(n.Styles); s != "" {
				result = append(result, ` style="`, s, `"`)
			}
			if void(n.Name) {
				result = append(result, " />")
			} else {
				result = append(result, ">")
			}
			return true
		},
		OnText: func(_ dom.NodeID, text string) {
			if opts.ReplaceSpaces && len([]rune(text)) > 1 {
				text = reSpaceRun.ReplaceAllStringFunc(text, alternateSpaces)
			}
			result = append(result, text)
		},
		OnClose: func(id dom.NodeID, name string, _, _ dom.Attrs) {
			if t.IsCard(id) {
				name = dom.CardTag
			}
			if !void(name) {
				result = append(result, "</", name, ">")
			}
		},
	}, false)

	for i, v := range result {
		if !strings.HasPrefix(v, "\n") {
			break
		}
		result[i] = strings.TrimLeft(v, "\n")
	}
	for i := len(result) - 1; i >= 0; i-- {
		if !strings.HasPrefix(result[i], "\n") {
			break
		}
		result[i] = strings.TrimLeft(result[i], "\n")
	}

	value := p.events.ValueAfter(strings.Join(result, ""))
	if opts.CustomTags {
		value = TransformCustomTags(value)
	}
	p.log.Debug("Serialized value", zap.Int("length", len(value)))
	return value
}

func (p *Parser) voidChecker(s *schema.Schema) func(string) bool {
	if s == nil {
		s = p.schema
	}
	return s.IsVoid
}

func alternateSpaces(run string) string {
	r := []rune(run)
	for i := range r {
		if i%2 == 0 {
			r[i] = ' '
		} else {
			r[i] = '\u00a0'
		}
	}
	return string(r)
}

func stylesToString(styles dom.Attrs) string {
	var out []string
	for _, s := range styles {
		val := Escape(s.Val)
		if reZeroSpacing.MatchString(s.Key) && css.RemoveUnit(val) == 0 {
			continue
		}
		if s.Key == "color" || strings.HasSuffix(s.Key, "-color") {
			val = css.ToHex(val)
		}
		out = append(out, s.Key+": "+val+";")
	}
	return strings.Join(out, " ")
}

// CardValueTag returns value form of a card: rendered cards carrying
// data-card-* attributes become <card> elements.
func CardValueTag(t *dom.Tree, id dom.NodeID, attrs dom.Attrs) (string, dom.Attrs) {
	if t.Name(id) == dom.CardTag {
		return dom.CardTag, attrs
	}
	out := dom.Attrs{{Key: "type", Val: t.CardType(id)}, {Key: "name", Val: t.Attr(id, dom.CardKeyAttr)}}
	if v := t.CardID(id); v != "" {
		out.Set("id", v)
	}
	if v, ok := t.LookupAttr(id, dom.CardValueAttr); ok {
		out.Set("value", v)
	}
	for _, a := range attrs {
		switch a.Key {
		case dom.CardKeyAttr, dom.CardTypeAttr, dom.CardIDAttr, dom.CardValueAttr, dom.CardElementAttr:
			continue
		}
		out.Set(a.Key, a.Val)
	}
	return dom.CardTag, out
}

// ToDOM serializes wrapped subtree and parses result into a new detached
// tree. Applying it repeatedly is stable after the first pass.
func (p *Parser) ToDOM(opts ValueOptions) (*dom.Tree, error) {
	opts.CustomTags = true
	opts.ReplaceSpaces = false
	return p.parseValue(p.ToValue(opts))
}

// parseValue builds detached tree from value string the same way New does.
func (p *Parser) parseValue(value string) (*dom.Tree, error) {
	t, err := dom.Parse(prepareSource(value))
	if err != nil {
		return nil, fmt.Errorf("unable to parse value: %w", err)
	}
	restoreParagraphs(t)
	return t, nil
}
