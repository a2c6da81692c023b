package markrange

import (
	"richdoc/dom"
)

// GetSelectInfo resolves range to the mark covering it. Both boundaries
// must resolve to the same key and id. In strict mode range must also span
// exactly from the start of the first mark element to the end of the last.
// Returns nil when range resolves to nothing.
func (e *Engine) GetSelectInfo(r dom.Range, strict bool) *SelectInfo {
	t := e.tree
	if !e.inside(r.Start.Node) || !e.inside(r.End.Node) {
		return nil
	}
	r = t.Shrink(r)

	startMark := e.boundaryMark(r.Start, r.Start.Offset)
	if startMark == dom.Nil {
		return nil
	}
	key := t.Attr(startMark, MarkKeyAttr)
	startIDs := t.Attr(startMark, IDAttr(key))
	if key == "" || len(splitIDs(startIDs)) == 0 {
		return nil
	}

	if !r.Collapsed() && !t.IsBlockCard(startMark) {
		endMark := e.boundaryMark(r.End, r.End.Offset-1)
		if endMark == dom.Nil || t.Attr(endMark, MarkKeyAttr) != key || t.Attr(endMark, IDAttr(key)) != startIDs {
			return nil
		}
		if strict {
			exact := t.Shrink(dom.Range{
				Start: dom.Position{Node: startMark},
				End:   dom.Position{Node: endMark, Offset: t.Len(endMark)},
			})
			if exact != r {
				return nil
			}
		}
	}
	return &SelectInfo{Key: key, ID: splitIDs(startIDs)[0]}
}

// boundaryMark returns element carrying mark key nearest to position. Block
// card sitting at child index of element boundary or enclosing the boundary
// takes precedence.
func (e *Engine) boundaryMark(p dom.Position, child int) dom.NodeID {
	t := e.tree
	if t.IsElement(p.Node) && child >= 0 {
		if c := t.ChildAt(p.Node, child); t.IsBlockCard(c) {
			return c
		}
	}
	if card := t.Closest(p.Node, t.IsCard); card != dom.Nil && t.IsBlockCard(card) {
		return card
	}
	return t.Closest(p.Node, func(id dom.NodeID) bool {
		return id != e.root && t.Contains(e.root, id) && t.HasAttr(id, MarkKeyAttr)
	})
}
