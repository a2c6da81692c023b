// Package markrange attaches named, possibly overlapping identifiers to
// ranges of a content tree and moves them through serialization.
//
// Every mark key owns two attributes: data-<key>-id holds comma separated
// ids of marks covering the element and data-<key>-preview flags elements
// of a mark which is not applied yet. Elements of all keys share
// data-mark-key attribute naming the key.
package markrange

import (
	"errors"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"richdoc/dom"
	"richdoc/events"
	"richdoc/parser"
	"richdoc/schema"
)

// MarkKeyAttr names key of the mark element carries.
const MarkKeyAttr = "data-mark-key"

var (
	// ErrNoRange is returned when selection is absent or lies outside of
	// document root.
	ErrNoRange = errors.New("no active range")
	// ErrPathMismatch is returned when recorded paths do not address the
	// same content in the serialized value.
	ErrPathMismatch = errors.New("path does not match value")
	// ErrUnknownKey is returned for keys engine was not configured with.
	ErrUnknownKey = errors.New("unknown mark key")
)

// IDAttr returns name of the id list attribute for the key.
func IDAttr(key string) string { return "data-" + key + "-id" }

// PreviewAttr returns name of the transient preview attribute for the key.
func PreviewAttr(key string) string { return "data-" + key + "-preview" }

// History is undo grouping protocol of the host. Engine only brackets its
// multi step operations with it.
type History interface {
	StartCache()
	DestroyCache()
	SubmitCache()
	Lock(d time.Duration)
}

// NopHistory ignores all calls.
type NopHistory struct{}

func (NopHistory) StartCache()        {}
func (NopHistory) DestroyCache()      {}
func (NopHistory) SubmitCache()       {}
func (NopHistory) Lock(time.Duration) {}

// SelectInfo is mark a selection resolves to.
type SelectInfo struct {
	Key string
	ID  string
}

// Engine maintains marks over live tree. It is not safe for concurrent use.
type Engine struct {
	log        *zap.Logger
	tree       *dom.Tree
	root       dom.NodeID
	keys       []string
	schema     *schema.Schema
	conversion *schema.Conversion
	events     *events.Emitter
	history    History

	rng      dom.Range
	hasRange bool

	// cachePreview is set while preview without id waits in history cache.
	cachePreview bool
	// executing suppresses selection handling while own command runs.
	executing bool
	ids       map[string][]string
}

// Option configures Engine.
type Option func(*Engine)

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSchema sets schema, mark rules are registered in it.
func WithSchema(s *schema.Schema) Option { return func(e *Engine) { e.schema = s } }

// WithConversion sets conversion rules used when serializing.
func WithConversion(c *schema.Conversion) Option { return func(e *Engine) { e.conversion = c } }

// WithEvents sets hooks emitter.
func WithEvents(ev *events.Emitter) Option { return func(e *Engine) { e.events = ev } }

// WithHistory sets undo protocol implementation.
func WithHistory(h History) Option { return func(e *Engine) { e.history = h } }

// New creates engine maintaining marks of keys under root of tree.
func New(tree *dom.Tree, root dom.NodeID, keys []string, opts ...Option) *Engine {
	e := &Engine{
		log:     zap.NewNop(),
		tree:    tree,
		root:    root,
		keys:    slices.Clone(keys),
		history: NopHistory{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("marks")
	if e.schema == nil {
		e.schema, e.conversion = schema.Default(e.log)
	}
	if e.events == nil {
		e.events = events.New()
	}
	e.register()
	e.ids = e.IDs()
	return e
}

func (e *Engine) register() {
	globals := map[string]schema.Constraint{MarkKeyAttr: schema.OneOf(e.keys...)}
	for _, key := range e.keys {
		e.schema.Add(schema.Rule{
			Name: "span",
			Type: schema.TypeMark,
			Attributes: map[string]schema.Constraint{
				MarkKeyAttr:      schema.Require(key),
				IDAttr(key):      schema.Any(),
				PreviewAttr(key): schema.Any(),
			},
		})
		globals[IDAttr(key)] = schema.Any()
		globals[PreviewAttr(key)] = schema.Any()
	}
	e.schema.AddGlobal(
		schema.Global{Type: schema.TypeBlock, Attributes: globals},
		schema.Global{Type: schema.TypeInline, Attributes: globals},
	)

	// preview state never reaches serialized value
	e.events.OnValue(func(n *events.Node) bool {
		if key := n.Attrs.Value(MarkKeyAttr); key != "" {
			n.Attrs.Delete(PreviewAttr(key))
		}
		return true
	})
	e.log.Debug("Registered mark keys", zap.Strings("keys", e.keys))
}

// Tree returns live tree.
func (e *Engine) Tree() *dom.Tree { return e.tree }

// Root returns document root.
func (e *Engine) Root() dom.NodeID { return e.root }

// Schema returns schema extended with mark rules.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Events returns hooks emitter.
func (e *Engine) Events() *events.Emitter { return e.events }

// SetRange makes r the active selection. Range which is not inside
// document root clears the selection.
func (e *Engine) SetRange(r dom.Range) error {
	if !e.inside(r.Start.Node) || !e.inside(r.End.Node) {
		e.hasRange = false
		return ErrNoRange
	}
	if e.tree.Compare(r.Start, r.End) > 0 {
		r.Start, r.End = r.End, r.Start
	}
	e.rng, e.hasRange = r, true
	return nil
}

// Range returns active selection.
func (e *Engine) Range() (dom.Range, bool) { return e.rng, e.hasRange }

func (e *Engine) inside(id dom.NodeID) bool {
	return e.tree.Valid(id) && e.tree.Contains(e.root, id)
}

func (e *Engine) known(key string) bool { return slices.Contains(e.keys, key) }

func (e *Engine) parserOptions() []parser.Option {
	return []parser.Option{
		parser.WithLogger(e.log),
		parser.WithSchema(e.schema),
		parser.WithConversion(e.conversion),
		parser.WithEvents(e.events),
	}
}

// Value serializes live document into canonical value.
func (e *Engine) Value() string {
	p := parser.FromTree(e.tree, e.root, e.parserOptions()...)
	return p.ToValue(p.Canonical())
}

// splitIDs parses id list attribute value.
func splitIDs(v string) []string {
	var ids []string
	for id := range strings.SplitSeq(strings.TrimSpace(v), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
