// Package parser converts content trees to canonical value strings, plain
// text and presentation HTML, and builds trees back from markup.
package parser

import (
	"fmt"

	"go.uber.org/zap"

	"richdoc/dom"
	"richdoc/events"
	"richdoc/schema"
)

// DefaultParagraphStyle is applied to every paragraph of presentation HTML.
var DefaultParagraphStyle = dom.Attrs{
	{Key: "font-size", Val: "14px"},
	{Key: "color", Val: "#262626"},
	{Key: "line-height", Val: "24px"},
	{Key: "letter-spacing", Val: ".05em"},
	{Key: "outline-style", Val: "none"},
	{Key: "overflow-wrap", Val: "break-word"},
}

// Parser wraps content tree (or its subtree) and serializes it.
type Parser struct {
	log        *zap.Logger
	tree       *dom.Tree
	root       dom.NodeID
	schema     *schema.Schema
	conversion *schema.Conversion
	events     *events.Emitter
	lists      *ListStyles
	paragraph  dom.Attrs
	before     func(t *dom.Tree, root dom.NodeID)
}

// Option configures Parser.
type Option func(*Parser)

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithSchema sets schema used to classify blocks. It is also the default
// schema callers pass to ToValue.
func WithSchema(s *schema.Schema) Option { return func(p *Parser) { p.schema = s } }

// WithConversion sets conversion rules.
func WithConversion(c *schema.Conversion) Option { return func(p *Parser) { p.conversion = c } }

// WithEvents sets hooks emitter.
func WithEvents(e *events.Emitter) Option { return func(p *Parser) { p.events = e } }

// WithListStyles replaces list marker registry.
func WithListStyles(l *ListStyles) Option { return func(p *Parser) { p.lists = l } }

// WithParagraphStyle replaces presentation style of paragraphs.
func WithParagraphStyle(style dom.Attrs) Option {
	return func(p *Parser) { p.paragraph = style.Clone() }
}

// WithBeforeParse registers hook called with freshly built root before any
// further processing.
func WithBeforeParse(fn func(t *dom.Tree, root dom.NodeID)) Option {
	return func(p *Parser) { p.before = fn }
}

func newParser(opts []Option) *Parser {
	p := &Parser{
		log:       zap.NewNop(),
		paragraph: DefaultParagraphStyle.Clone(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Named("parser")
	if p.schema == nil {
		p.schema, p.conversion = schema.Default(p.log)
	}
	if p.lists == nil {
		p.lists = DefaultListStyles()
	}
	return p
}

// New parses markup source. Self-closed anchors and custom tags are
// expanded and paragraphs are protected from HTML auto-correction.
func New(source string, opts ...Option) (*Parser, error) {
	p := newParser(opts)

	tree, err := p.parseValue(source)
	if err != nil {
		return nil, fmt.Errorf("unable to parse source: %w", err)
	}

	p.tree, p.root = tree, tree.Root()
	if p.before != nil {
		p.before(p.tree, p.root)
	}
	return p, nil
}

// FromTree wraps existing tree, root may be any element of it.
func FromTree(t *dom.Tree, root dom.NodeID, opts ...Option) *Parser {
	p := newParser(opts)
	p.tree, p.root = t, root
	if p.before != nil {
		p.before(p.tree, p.root)
	}
	return p
}

// Tree returns wrapped tree.
func (p *Parser) Tree() *dom.Tree { return p.tree }

// Root returns wrapped root.
func (p *Parser) Root() dom.NodeID { return p.root }

// Schema returns schema parser classifies with.
func (p *Parser) Schema() *schema.Schema { return p.schema }

// Conversion returns configured conversion rules.
func (p *Parser) Conversion() *schema.Conversion { return p.conversion }

// Events returns hooks emitter, may be nil.
func (p *Parser) Events() *events.Emitter { return p.events }

// derive creates parser sharing configuration of p over another tree.
func (p *Parser) derive(t *dom.Tree, root dom.NodeID) *Parser {
	cp := *p
	cp.tree, cp.root, cp.before = t, root, nil
	return &cp
}

func (p *Parser) isBlock(t *dom.Tree, id dom.NodeID) bool {
	return t.IsBlockCard(id) || p.schema.IsBlock(t, id)
}
