package dom

// Position is a boundary point. For text nodes Offset counts runes, for
// elements it is a child index.
type Position struct {
	Node   NodeID
	Offset int
}

// Range is a pair of boundary points, Start never after End.
type Range struct {
	Start Position
	End   Position
}

// Collapsed reports whether range is empty.
func (r Range) Collapsed() bool { return r.Start == r.End }

// Before returns position right before node.
func (t *Tree) Before(id NodeID) Position {
	return Position{Node: t.Parent(id), Offset: t.Index(id)}
}

// After returns position right after node.
func (t *Tree) After(id NodeID) Position {
	return Position{Node: t.Parent(id), Offset: t.Index(id) + 1}
}

// SelectNode returns range enclosing node.
func (t *Tree) SelectNode(id NodeID) Range {
	return Range{Start: t.Before(id), End: t.After(id)}
}

// SelectContents returns range enclosing everything inside node.
func (t *Tree) SelectContents(id NodeID) Range {
	return Range{Start: Position{Node: id}, End: Position{Node: id, Offset: t.Len(id)}}
}

func (t *Tree) positionKey(p Position) []int {
	var key []int
	for n := p.Node; t.Parent(n) != Nil; n = t.Parent(n) {
		key = append(key, t.Index(n))
	}
	for i, j := 0, len(key)-1; i < j; i, j = i+1, j-1 {
		key[i], key[j] = key[j], key[i]
	}
	return append(key, p.Offset)
}

// Compare returns -1, 0 or 1 when a is before, equal or after b in document
// order. Both positions must belong to the same connected subtree.
func (t *Tree) Compare(a, b Position) int {
	if a == b {
		return 0
	}
	ka, kb := t.positionKey(a), t.positionKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		switch {
		case ka[i] < kb[i]:
			return -1
		case ka[i] > kb[i]:
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

// Shrink moves range boundaries down to the deepest text or element they
// touch. Cards are never entered.
func (t *Tree) Shrink(r Range) Range {
	s := r.Start
	for t.IsElement(s.Node) && !t.IsCard(s.Node) {
		c := t.ChildAt(s.Node, s.Offset)
		if c == Nil || t.IsCard(c) || (t.IsElement(c) && t.FirstChild(c) == Nil) {
			break
		}
		s = Position{Node: c}
	}
	e := r.End
	for t.IsElement(e.Node) && !t.IsCard(e.Node) && e.Offset > 0 {
		c := t.ChildAt(e.Node, e.Offset-1)
		if c == Nil || t.IsCard(c) || (t.IsElement(c) && t.FirstChild(c) == Nil) {
			break
		}
		e = Position{Node: c, Offset: t.Len(c)}
	}
	if r.Collapsed() {
		return Range{Start: s, End: s}
	}
	return Range{Start: s, End: e}
}

// Lift converts text boundary sitting on the edge of its node into element
// boundary of the parent. Other positions are returned unchanged.
func (t *Tree) Lift(p Position) Position {
	if !t.IsText(p.Node) || t.Parent(p.Node) == Nil {
		return p
	}
	switch p.Offset {
	case 0:
		return t.Before(p.Node)
	case t.Len(p.Node):
		return t.After(p.Node)
	}
	return p
}

// SplitBoundaries splits text nodes cut by range so both boundaries become
// element positions between whole nodes.
func (t *Tree) SplitBoundaries(r Range) Range {
	end := t.Lift(r.End)
	if t.IsText(end.Node) {
		t.SplitText(end.Node, end.Offset)
		end = t.After(end.Node)
	}
	start := t.Lift(r.Start)
	if t.IsText(start.Node) {
		tail := t.SplitText(start.Node, start.Offset)
		if t.Parent(tail) == end.Node && t.Index(tail) <= end.Offset {
			end.Offset++
		}
		start = t.Before(tail)
	}
	return Range{Start: start, End: end}
}

// CoveredNodes returns the outermost nodes lying completely inside range in
// document order. Range root itself is never reported.
func (t *Tree) CoveredNodes(within NodeID, r Range) []NodeID {
	var out []NodeID
	for n := t.FirstChild(within); n != Nil; {
		if t.Compare(t.Before(n), r.Start) >= 0 && t.Compare(t.After(n), r.End) <= 0 {
			out = append(out, n)
			n = t.NextSkipping(n, within)
			continue
		}
		n = t.NextInOrder(n, within)
	}
	return out
}

// RangeText returns text covered by range.
func (t *Tree) RangeText(within NodeID, r Range) string {
	var out []rune
	for _, n := range t.Descendants(within) {
		if !t.IsText(n) {
			continue
		}
		size := t.Len(n)
		if t.Compare(Position{Node: n, Offset: size}, r.Start) <= 0 || t.Compare(Position{Node: n}, r.End) >= 0 {
			continue
		}
		lo, hi := 0, size
		if r.Start.Node == n {
			lo = r.Start.Offset
		}
		if r.End.Node == n {
			hi = r.End.Offset
		}
		if lo < hi {
			out = append(out, []rune(t.Text(n))[lo:hi]...)
		}
	}
	return string(out)
}
