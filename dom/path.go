package dom

import (
	"errors"
	"fmt"
)

// ErrBadPath is returned when path cannot be resolved against a tree.
var ErrBadPath = errors.New("path does not resolve")

// Path locates boundary point relative to some root: child indexes leading
// to the container followed by the offset inside it. When container is a text
// node the offset counts runes, otherwise it is a child index.
type Path []int

// PathOf returns path of position relative to root.
func (t *Tree) PathOf(root NodeID, p Position) (Path, error) {
	var steps Path
	for n := p.Node; n != root; n = t.Parent(n) {
		if n == Nil {
			return nil, fmt.Errorf("position is outside of root: %w", ErrBadPath)
		}
		steps = append(steps, t.Index(n))
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return append(steps, p.Offset), nil
}

// Resolve converts path relative to root back into position.
func (t *Tree) Resolve(root NodeID, path Path) (Position, error) {
	if len(path) == 0 {
		return Position{}, fmt.Errorf("empty path: %w", ErrBadPath)
	}
	n := root
	for i, step := range path[:len(path)-1] {
		c := t.ChildAt(n, step)
		if c == Nil {
			return Position{}, fmt.Errorf("step %d (%d) has no child: %w", i, step, ErrBadPath)
		}
		n = c
	}
	off := path[len(path)-1]
	if off < 0 || off > t.Len(n) {
		return Position{}, fmt.Errorf("offset %d out of bounds [0, %d]: %w", off, t.Len(n), ErrBadPath)
	}
	return Position{Node: n, Offset: off}, nil
}

// CleanPath returns path of the position right before node at, computed as
// if every node accepted by transparent was removed and adjacent text nodes
// were merged. That is the shape tree takes after serialization and parsing.
func (t *Tree) CleanPath(root, at NodeID, transparent func(NodeID) bool) (Path, error) {
	parent := t.Parent(at)
	if parent == Nil || !t.Contains(root, parent) {
		return nil, fmt.Errorf("node is outside of root: %w", ErrBadPath)
	}

	var (
		index  int
		inText bool
		runLen int
	)
	for c := t.FirstChild(parent); c != at; c = t.Next(c) {
		switch {
		case transparent(c):
		case t.IsText(c):
			if t.Len(c) == 0 {
				continue
			}
			if !inText {
				index++
				inText, runLen = true, 0
			}
			runLen += t.Len(c)
		default:
			index++
			inText = false
		}
	}

	var leaf Path
	if inText && t.textFollows(at, transparent) {
		leaf = Path{index - 1, runLen}
	} else {
		leaf = Path{index}
	}

	var steps Path
	for n := parent; n != root; n = t.Parent(n) {
		steps = append(steps, t.cleanIndex(n, transparent))
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return append(steps, leaf...), nil
}

func (t *Tree) textFollows(at NodeID, transparent func(NodeID) bool) bool {
	for c := t.Next(at); c != Nil; c = t.Next(c) {
		switch {
		case transparent(c):
		case t.IsText(c):
			if t.Len(c) > 0 {
				return true
			}
		default:
			return false
		}
	}
	return false
}

func (t *Tree) cleanIndex(id NodeID, transparent func(NodeID) bool) int {
	var (
		index  int
		inText bool
	)
	for c := t.FirstChild(t.Parent(id)); c != id; c = t.Next(c) {
		switch {
		case transparent(c):
		case t.IsText(c):
			if t.Len(c) > 0 && !inText {
				index++
				inText = true
			}
		default:
			index++
			inText = false
		}
	}
	return index
}
