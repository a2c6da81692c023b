package markrange

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"richdoc/dom"
)

// PreviewResult describes outcome of Preview.
type PreviewResult struct {
	// Text is content put into preview, cards are represented as
	// "[card:name,id]". Empty when nothing was wrapped.
	Text string
	// Existing is set when selection already is exactly an existing mark
	// of the key. Nothing is wrapped in that case.
	Existing *SelectInfo
}

// FindElements returns elements carrying id of key in document order.
func (e *Engine) FindElements(key, id string) []dom.NodeID {
	var out []dom.NodeID
	for _, n := range e.elements() {
		if slices.Contains(splitIDs(e.tree.Attr(n, IDAttr(key))), id) {
			out = append(out, n)
		}
	}
	return out
}

// previewElements returns elements flagged as preview of key.
func (e *Engine) previewElements(key string) []dom.NodeID {
	var out []dom.NodeID
	for _, n := range e.elements() {
		if e.tree.HasAttr(n, PreviewAttr(key)) {
			out = append(out, n)
		}
	}
	return out
}

// elements lists elements of the document outside of card internals.
func (e *Engine) elements() []dom.NodeID {
	t := e.tree
	var out []dom.NodeID
	for n := t.NextInOrder(e.root, e.root); n != dom.Nil; {
		if !t.IsElement(n) {
			n = t.NextInOrder(n, e.root)
			continue
		}
		out = append(out, n)
		if t.IsCard(n) {
			n = t.NextSkipping(n, e.root)
			continue
		}
		n = t.NextInOrder(n, e.root)
	}
	return out
}

// IDs returns ids present in the document per key, in order of first
// appearance.
func (e *Engine) IDs() map[string][]string {
	ids := make(map[string][]string)
	for _, n := range e.elements() {
		key := e.tree.Attr(n, MarkKeyAttr)
		if key == "" {
			continue
		}
		for _, id := range splitIDs(e.tree.Attr(n, IDAttr(key))) {
			if !slices.Contains(ids[key], id) {
				ids[key] = append(ids[key], id)
			}
		}
	}
	return ids
}

// Preview flags mark elements as pending. With id elements of the existing
// mark are flagged. Without id active selection is wrapped into preview
// mark, collapsed selection is expanded to its block first.
func (e *Engine) Preview(key, id string) (PreviewResult, error) {
	if !e.known(key) {
		return PreviewResult{}, fmt.Errorf("preview %q: %w", key, ErrUnknownKey)
	}
	t := e.tree

	if id != "" {
		nodes := e.FindElements(key, id)
		for _, n := range nodes {
			t.SetAttr(n, PreviewAttr(key), "true")
		}
		e.log.Debug("Preview of existing mark", zap.String("key", key), zap.String("id", id), zap.Int("elements", len(nodes)))
		return PreviewResult{}, nil
	}

	if !e.hasRange {
		return PreviewResult{}, nil
	}
	r := e.rng
	if r.Collapsed() {
		block := t.Closest(r.Start.Node, func(n dom.NodeID) bool {
			return n != e.root && e.schema.IsBlock(t, n)
		})
		if block == dom.Nil || !t.Contains(e.root, block) {
			return PreviewResult{}, nil
		}
		r = t.SelectContents(block)
		e.rng = r
	}

	if info := e.GetSelectInfo(r, true); info != nil && info.Key == key {
		e.events.Select(info.Key, info.ID)
		return PreviewResult{Existing: info}, nil
	}

	w := &wrapper{
		t:      t,
		root:   e.root,
		key:    key,
		schema: e.schema,
		create: func() dom.NodeID {
			span := t.CreateElement("span")
			t.SetAttr(span, MarkKeyAttr, key)
			t.SetAttr(span, PreviewAttr(key), "true")
			return span
		},
		tag: func(n dom.NodeID) {
			t.SetAttr(n, MarkKeyAttr, key)
			t.SetAttr(n, PreviewAttr(key), "true")
		},
		skip: func(dom.NodeID) bool { return false },
	}
	split := t.SplitBoundaries(r)
	covered := t.CoveredNodes(e.root, split)
	text := coveredText(t, covered)
	w.wrapNodes(covered)
	if len(w.marked) == 0 {
		return PreviewResult{}, nil
	}
	e.rng = dom.Range{Start: t.Before(w.marked[0]), End: t.After(w.marked[len(w.marked)-1])}
	e.log.Debug("Preview", zap.String("key", key), zap.Int("elements", len(w.marked)))
	return PreviewResult{Text: text}, nil
}

// Apply commits preview of key under id. When element already carries
// other ids, id is placed so ids stay ordered by start of their marks in
// the document: after every mark starting no later than the new one and
// before the first one starting later.
func (e *Engine) Apply(key, id string) error {
	if !e.known(key) {
		return fmt.Errorf("apply %q: %w", key, ErrUnknownKey)
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ",") {
		return fmt.Errorf("apply %q: bad mark id %q", key, id)
	}
	t := e.tree

	nodes := e.previewElements(key)
	if len(nodes) == 0 {
		return nil
	}

	order := make(map[dom.NodeID]int)
	starts := make(map[string]int)
	for i, n := range e.elements() {
		order[n] = i
		for _, old := range splitIDs(t.Attr(n, IDAttr(key))) {
			if _, ok := starts[old]; !ok {
				starts[old] = i
			}
		}
	}
	start := order[nodes[0]]

	for _, n := range nodes {
		ids := splitIDs(t.Attr(n, IDAttr(key)))
		if !slices.Contains(ids, id) {
			pos := len(ids)
			for i, old := range ids {
				if starts[old] > start {
					pos = i
					break
				}
			}
			ids = slices.Insert(ids, pos, id)
		}
		t.SetAttr(n, MarkKeyAttr, key)
		t.SetAttr(n, IDAttr(key), strings.Join(ids, ","))
		t.RemoveAttr(n, PreviewAttr(key))
	}
	e.log.Debug("Applied mark", zap.String("key", key), zap.String("id", id), zap.Int("elements", len(nodes)))
	return nil
}

// Revoke drops preview of key. Elements which carry no ids are unwrapped
// (cards lose mark attributes), others only lose preview flag. With id only
// elements of that mark are visited.
func (e *Engine) Revoke(key, id string) error {
	if !e.known(key) {
		return fmt.Errorf("revoke %q: %w", key, ErrUnknownKey)
	}
	t := e.tree

	nodes := e.previewElements(key)
	if id != "" {
		nodes = e.FindElements(key, id)
	}
	parents := make([]dom.NodeID, 0, len(nodes))
	for _, n := range nodes {
		parents = append(parents, t.Parent(n))
		if len(splitIDs(t.Attr(n, IDAttr(key)))) > 0 {
			t.RemoveAttr(n, PreviewAttr(key))
			continue
		}
		e.clear(key, n)
	}
	e.tidy(key, parents)
	e.log.Debug("Revoked preview", zap.String("key", key), zap.String("id", id), zap.Int("elements", len(nodes)))
	return nil
}

// Remove deletes mark id of key. Elements left without ids are unwrapped
// (cards lose mark attributes), others lose id keeping order of the rest.
func (e *Engine) Remove(key, id string) error {
	if !e.known(key) {
		return fmt.Errorf("remove %q: %w", key, ErrUnknownKey)
	}
	t := e.tree

	nodes := e.FindElements(key, id)
	parents := make([]dom.NodeID, 0, len(nodes))
	for _, n := range nodes {
		parents = append(parents, t.Parent(n))
		ids := slices.DeleteFunc(splitIDs(t.Attr(n, IDAttr(key))), func(s string) bool { return s == id })
		if len(ids) == 0 {
			e.clear(key, n)
			continue
		}
		t.RemoveAttr(n, PreviewAttr(key))
		t.SetAttr(n, IDAttr(key), strings.Join(ids, ","))
	}
	e.tidy(key, parents)
	e.log.Debug("Removed mark", zap.String("key", key), zap.String("id", id), zap.Int("elements", len(nodes)))
	return nil
}

// clear takes mark of key off the element.
func (e *Engine) clear(key string, n dom.NodeID) {
	t := e.tree
	if t.IsCard(n) || t.Name(n) != "span" {
		t.RemoveAttr(n, MarkKeyAttr)
		t.RemoveAttr(n, IDAttr(key))
		t.RemoveAttr(n, PreviewAttr(key))
		return
	}
	t.Unwrap(n)
}
