package dom

import (
	"errors"
	"testing"
)

func TestCompare(t *testing.T) {
	tree := mustParse(t, "<p>ab<i>cd</i>ef</p>")
	p := tree.FirstChild(tree.Root())
	ab, i, ef := tree.ChildAt(p, 0), tree.ChildAt(p, 1), tree.ChildAt(p, 2)
	cd := tree.FirstChild(i)

	tests := []struct {
		name string
		a, b Position
		want int
	}{
		{"same", Position{ab, 1}, Position{ab, 1}, 0},
		{"same text", Position{ab, 0}, Position{ab, 2}, -1},
		{"element before child", Position{p, 1}, Position{cd, 0}, -1},
		{"element after child", Position{p, 2}, Position{cd, 2}, 1},
		{"siblings", Position{ef, 0}, Position{ab, 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tree.Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSplitBoundariesAndCovered(t *testing.T) {
	tree := mustParse(t, "<p>abcdef</p>")
	p := tree.FirstChild(tree.Root())
	txt := tree.FirstChild(p)

	r := tree.SplitBoundaries(Range{Start: Position{txt, 2}, End: Position{txt, 4}})
	if r.Start != (Position{p, 1}) || r.End != (Position{p, 2}) {
		t.Fatalf("SplitBoundaries = %+v", r)
	}
	covered := tree.CoveredNodes(tree.Root(), r)
	if len(covered) != 1 || tree.Text(covered[0]) != "cd" {
		t.Fatalf("CoveredNodes = %v", covered)
	}
	if got := tree.RangeText(tree.Root(), r); got != "cd" {
		t.Errorf("RangeText = %q", got)
	}
}

func TestRangeTextAcrossNodes(t *testing.T) {
	tree := mustParse(t, "<p>ab<b>cd</b>ef</p>")
	p := tree.FirstChild(tree.Root())
	r := Range{Start: Position{tree.ChildAt(p, 0), 1}, End: Position{tree.ChildAt(p, 2), 1}}
	if got := tree.RangeText(tree.Root(), r); got != "bcde" {
		t.Errorf("RangeText = %q, want %q", got, "bcde")
	}
}

func TestShrink(t *testing.T) {
	tree := mustParse(t, "<p><b>ab</b>c</p>")
	p := tree.FirstChild(tree.Root())
	got := tree.Shrink(Range{Start: Position{tree.Root(), 0}, End: Position{p, 2}})
	b := tree.FirstChild(p)
	if got.Start != (Position{tree.FirstChild(b), 0}) {
		t.Errorf("start = %+v", got.Start)
	}
	if got.End != (Position{tree.ChildAt(p, 1), 1}) {
		t.Errorf("end = %+v", got.End)
	}
}

func TestPathRoundTrip(t *testing.T) {
	tree := mustParse(t, "<p>ab<b>cd</b></p><p>ef</p>")
	second := tree.ChildAt(tree.Root(), 1)
	pos := Position{tree.FirstChild(second), 1}
	path, err := tree.PathOf(tree.Root(), pos)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 3 || path[0] != 1 || path[1] != 0 || path[2] != 1 {
		t.Fatalf("PathOf = %v", path)
	}
	back, err := tree.Resolve(tree.Root(), path)
	if err != nil || back != pos {
		t.Fatalf("Resolve = %+v, %v", back, err)
	}
	if _, err := tree.Resolve(tree.Root(), Path{5, 0}); !errors.Is(err, ErrBadPath) {
		t.Errorf("Resolve bad path error = %v", err)
	}
}

func TestCleanPath(t *testing.T) {
	tree := mustParse(t, "<p>ab</p><p>cd<b>e</b></p>")
	second := tree.ChildAt(tree.Root(), 1)
	cd := tree.FirstChild(second)

	tail := tree.SplitText(cd, 1)
	m1 := tree.CreateElement("anchor")
	tree.InsertBefore(tail, m1)
	m2 := tree.CreateElement("focus")
	tree.InsertBefore(tree.ChildAt(second, 3), m2)

	isMarker := func(id NodeID) bool { return id == m1 || id == m2 }

	p1, err := tree.CleanPath(tree.Root(), m1, isMarker)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Path{1, 0, 1}); !equalPath(p1, want) {
		t.Errorf("CleanPath(m1) = %v, want %v", p1, want)
	}
	p2, err := tree.CleanPath(tree.Root(), m2, isMarker)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Path{1, 1}); !equalPath(p2, want) {
		t.Errorf("CleanPath(m2) = %v, want %v", p2, want)
	}
}

func equalPath(a, b Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
