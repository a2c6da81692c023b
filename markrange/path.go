package markrange

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"richdoc/dom"
	"richdoc/parser"
)

// markerTag names temporary elements marking range boundaries. They never
// leave the engine.
const markerTag = "richdoc-marker"

// Entry is one mark element externalized as range of the unmarked value.
type Entry struct {
	IDs []string `json:"ids" yaml:"ids"`
	// Path holds start and end boundaries.
	Path []dom.Path `json:"path" yaml:"path"`
	// Text is content covered by the range, used for validation.
	Text string `json:"text" yaml:"text"`
}

// PendingMarkSet is value with marks of a key taken out and recorded as
// paths, ready to be reattached to the same value later.
type PendingMarkSet struct {
	Key     string  `json:"key" yaml:"key"`
	Value   string  `json:"value" yaml:"value"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// FilterValue takes every mark of key out of value (live document when
// value is empty) recording covered ranges as paths into the resulting
// unmarked value. Paths are checked against a fresh parse of the result.
func (e *Engine) FilterValue(key, value string) (PendingMarkSet, error) {
	if !e.known(key) {
		return PendingMarkSet{}, fmt.Errorf("filter %q: %w", key, ErrUnknownKey)
	}
	if value == "" {
		value = e.Value()
	}

	// canonical form first, so parsing result reproduces the same shape
	src, err := parser.New(value, e.parserOptions()...)
	if err != nil {
		return PendingMarkSet{}, fmt.Errorf("unable to parse value: %w", err)
	}
	p, err := parser.New(src.ToValue(src.Canonical()), e.parserOptions()...)
	if err != nil {
		return PendingMarkSet{}, fmt.Errorf("unable to parse canonical value: %w", err)
	}
	t, root := p.Tree(), p.Root()

	type bounds struct {
		ids        []string
		start, end dom.NodeID
	}
	var (
		found   []bounds
		markers = make(map[dom.NodeID]bool)
	)
	newMarker := func() dom.NodeID {
		m := t.CreateElement(markerTag)
		markers[m] = true
		return m
	}
	for _, n := range t.Descendants(root) {
		if !t.IsElement(n) || t.InCard(n) {
			continue
		}
		ids := splitIDs(t.Attr(n, IDAttr(key)))
		if len(ids) == 0 {
			continue
		}
		b := bounds{ids: ids, start: newMarker(), end: newMarker()}
		switch {
		case t.IsCard(n):
			t.InsertBefore(n, b.start)
			t.InsertAfter(n, b.end)
			e.strip(t, key, n)
		case e.schema.IsMark(t, n):
			t.InsertAt(n, 0, b.start)
			t.Append(n, b.end)
			t.Unwrap(n)
		default:
			t.InsertAt(n, 0, b.start)
			t.Append(n, b.end)
			e.strip(t, key, n)
		}
		found = append(found, b)
	}

	set := PendingMarkSet{Key: key, Entries: make([]Entry, 0, len(found))}
	transparent := func(id dom.NodeID) bool { return markers[id] }
	// whitespace serializer drops must not be counted by paths
	p.TrimBlockEdges(t, root, transparent)
	for _, b := range found {
		start, err := t.CleanPath(root, b.start, transparent)
		if err != nil {
			return PendingMarkSet{}, fmt.Errorf("unable to locate start of %v: %w", b.ids, err)
		}
		end, err := t.CleanPath(root, b.end, transparent)
		if err != nil {
			return PendingMarkSet{}, fmt.Errorf("unable to locate end of %v: %w", b.ids, err)
		}
		text := t.RangeText(root, dom.Range{Start: t.After(b.start), End: t.Before(b.end)})
		set.Entries = append(set.Entries, Entry{IDs: b.ids, Path: []dom.Path{start, end}, Text: text})
	}
	for m := range markers {
		t.Detach(m)
	}
	t.MergeText(root)

	set.Value = p.ToValue(p.Canonical())
	if err := e.validate(set); err != nil {
		return PendingMarkSet{}, err
	}
	e.log.Debug("Filtered marks", zap.String("key", key), zap.Int("entries", len(set.Entries)))
	return set, nil
}

// strip removes mark attributes of key from element kept in place.
func (e *Engine) strip(t *dom.Tree, key string, n dom.NodeID) {
	t.RemoveAttr(n, IDAttr(key))
	t.RemoveAttr(n, PreviewAttr(key))
	if t.Attr(n, MarkKeyAttr) == key {
		t.RemoveAttr(n, MarkKeyAttr)
	}
}

// validate resolves every entry against fresh parse of the value.
func (e *Engine) validate(set PendingMarkSet) error {
	p, err := parser.New(set.Value, e.parserOptions()...)
	if err != nil {
		return fmt.Errorf("unable to parse filtered value: %w", err)
	}
	t, root := p.Tree(), p.Root()
	for i, entry := range set.Entries {
		r, err := resolveEntry(t, root, entry)
		if err != nil {
			return fmt.Errorf("entry %d %v: %w", i, entry.IDs, err)
		}
		if got := t.RangeText(root, r); got != entry.Text {
			return fmt.Errorf("entry %d %v covers %q instead of %q: %w", i, entry.IDs, got, entry.Text, ErrPathMismatch)
		}
	}
	return nil
}

func resolveEntry(t *dom.Tree, root dom.NodeID, entry Entry) (dom.Range, error) {
	if len(entry.Path) != 2 {
		return dom.Range{}, fmt.Errorf("expected 2 boundaries, got %d: %w", len(entry.Path), ErrPathMismatch)
	}
	start, err := t.Resolve(root, entry.Path[0])
	if err != nil {
		return dom.Range{}, fmt.Errorf("start %v: %w: %w", entry.Path[0], ErrPathMismatch, err)
	}
	end, err := t.Resolve(root, entry.Path[1])
	if err != nil {
		return dom.Range{}, fmt.Errorf("end %v: %w: %w", entry.Path[1], ErrPathMismatch, err)
	}
	if t.Compare(start, end) > 0 {
		return dom.Range{}, fmt.Errorf("start %v is after end %v: %w", entry.Path[0], entry.Path[1], ErrPathMismatch)
	}
	return dom.Range{Start: start, End: end}, nil
}

// WrapFromPath parses value (live document when empty) and marks ranges of
// entries with their ids, returning serialized result. Value must be the
// one entries were recorded against.
func (e *Engine) WrapFromPath(key string, entries []Entry, value string) (string, error) {
	if !e.known(key) {
		return "", fmt.Errorf("wrap %q: %w", key, ErrUnknownKey)
	}
	if value == "" {
		value = e.Value()
	}
	p, err := parser.New(parser.StripSelectionTags(value), e.parserOptions()...)
	if err != nil {
		return "", fmt.Errorf("unable to parse value: %w", err)
	}
	t, root := p.Tree(), p.Root()

	// resolve everything before tree changes
	type boundary struct {
		pos   dom.Position
		entry int
		rank  int
	}
	var all []boundary
	for i, entry := range entries {
		r, err := resolveEntry(t, root, entry)
		if err != nil {
			return "", fmt.Errorf("entry %d %v: %w", i, entry.IDs, err)
		}
		start, end := t.Lift(r.Start), t.Lift(r.End)
		// ties: ends of other ranges first, then empty ranges, then starts
		sr, er := 3, 0
		if r.Collapsed() {
			sr, er = 1, 2
		}
		all = append(all, boundary{pos: start, entry: i, rank: sr}, boundary{pos: end, entry: i, rank: er})
	}
	slices.SortStableFunc(all, func(a, b boundary) int {
		if c := t.Compare(a.pos, b.pos); c != 0 {
			return c
		}
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.entry, b.entry)
	})

	// insert markers back to front so earlier positions stay valid
	type pair struct{ start, end dom.NodeID }
	pairs := make([]pair, len(entries))
	markers := make(map[dom.NodeID]bool, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		b := all[i]
		m := t.CreateElement(markerTag)
		markers[m] = true
		if t.IsText(b.pos.Node) {
			t.SplitText(b.pos.Node, b.pos.Offset)
			t.InsertAfter(b.pos.Node, m)
		} else {
			t.InsertAt(b.pos.Node, b.pos.Offset, m)
		}
		if b.rank == 1 || b.rank == 3 {
			pairs[b.entry].start = m
		} else {
			pairs[b.entry].end = m
		}
	}

	for i, entry := range entries {
		ids := entry.IDs
		w := &wrapper{
			t:      t,
			root:   root,
			key:    key,
			schema: e.schema,
			create: func() dom.NodeID {
				span := t.CreateElement("span")
				t.SetAttr(span, MarkKeyAttr, key)
				t.SetAttr(span, IDAttr(key), strings.Join(ids, ","))
				return span
			},
			tag: func(n dom.NodeID) {
				cur := splitIDs(t.Attr(n, IDAttr(key)))
				for _, id := range ids {
					if !slices.Contains(cur, id) {
						cur = append(cur, id)
					}
				}
				t.SetAttr(n, MarkKeyAttr, key)
				t.SetAttr(n, IDAttr(key), strings.Join(cur, ","))
			},
			skip: func(id dom.NodeID) bool { return markers[id] },
		}
		w.wrapRange(dom.Range{Start: t.After(pairs[i].start), End: t.Before(pairs[i].end)})
		e.log.Debug("Reattached mark", zap.Strings("ids", ids), zap.Int("elements", len(w.marked)))
	}

	for m := range markers {
		t.Detach(m)
	}
	t.MergeText(root)
	dropEmpty(t, root, key)
	return p.ToValue(p.Canonical()), nil
}

// dropEmpty removes mark elements of key left without content once
// boundary markers are gone.
func dropEmpty(t *dom.Tree, root dom.NodeID, key string) {
	for _, n := range t.Descendants(root) {
		if t.IsElement(n) && !t.IsCard(n) && t.Attr(n, MarkKeyAttr) == key && t.FirstChild(n) == dom.Nil {
			t.Detach(n)
		}
	}
}
