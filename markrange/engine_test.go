package markrange

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"richdoc/dom"
	"richdoc/events"
	"richdoc/parser"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

type recorder struct {
	calls []string
}

func (r *recorder) StartCache()          { r.calls = append(r.calls, "start") }
func (r *recorder) DestroyCache()        { r.calls = append(r.calls, "destroy") }
func (r *recorder) SubmitCache()         { r.calls = append(r.calls, "submit") }
func (r *recorder) Lock(d time.Duration) { r.calls = append(r.calls, "lock "+d.String()) }

func newEngine(t *testing.T, value string, opts ...Option) *Engine {
	t.Helper()
	p, err := parser.New(value, parser.WithLogger(testLogger(t)))
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	opts = append([]Option{WithLogger(testLogger(t))}, opts...)
	return New(p.Tree(), p.Root(), []string{"comment"}, opts...)
}

// rangeOf addresses text of the document by rune offsets counted over all
// text nodes in document order.
func rangeOf(t *testing.T, e *Engine, from, to int) dom.Range {
	t.Helper()
	tree := e.Tree()
	var (
		r          dom.Range
		haveStart  bool
		haveEnd    bool
		cumulative int
	)
	for _, n := range tree.Descendants(e.Root()) {
		if !tree.IsText(n) {
			continue
		}
		size := tree.Len(n)
		if !haveStart && from < cumulative+size {
			r.Start, haveStart = dom.Position{Node: n, Offset: from - cumulative}, true
		}
		if !haveEnd && to <= cumulative+size {
			r.End, haveEnd = dom.Position{Node: n, Offset: to - cumulative}, true
		}
		cumulative += size
	}
	if !haveStart || !haveEnd {
		t.Fatalf("range [%d, %d) is outside of %d characters", from, to, cumulative)
	}
	return r
}

func mark(ids string) string {
	return `<span data-mark-key="comment" data-comment-id="` + ids + `">`
}

func preview(t *testing.T, e *Engine, from, to int) PreviewResult {
	t.Helper()
	if err := e.SetRange(rangeOf(t, e, from, to)); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	res, err := e.Execute(Command{Action: ActionPreview, Key: "comment"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	return res.Preview
}

func apply(t *testing.T, e *Engine, id string) {
	t.Helper()
	if _, err := e.Execute(Command{Action: ActionApply, Key: "comment", ID: id}); err != nil {
		t.Fatalf("apply %s: %v", id, err)
	}
}

func TestLifecycle(t *testing.T) {
	e := newEngine(t, "<p>hello world</p>")
	before := e.Value()

	res := preview(t, e, 6, 11)
	if res.Text != "world" || res.Existing != nil {
		t.Fatalf("preview = %+v", res)
	}
	if got, want := e.Value(), `<p>hello <span data-mark-key="comment">world</span></p>`; got != want {
		t.Errorf("previewed value:\n got: %s\nwant: %s", got, want)
	}

	apply(t, e, "c1")
	if got, want := e.Value(), "<p>hello "+mark("c1")+"world</span></p>"; got != want {
		t.Errorf("applied value:\n got: %s\nwant: %s", got, want)
	}
	if got := e.FindElements("comment", "c1"); len(got) != 1 {
		t.Errorf("FindElements = %v", got)
	}

	if err := e.Remove("comment", "c1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := e.Value(); got != before {
		t.Errorf("after remove:\n got: %s\nwant: %s", got, before)
	}
}

func TestRevoke(t *testing.T) {
	e := newEngine(t, "<p>ab"+mark("c1")+"cdef</span></p>")
	before := e.Value()

	preview(t, e, 0, 4)
	if err := e.Revoke("comment", ""); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got := e.Value(); got != before {
		t.Errorf("after revoke:\n got: %s\nwant: %s", got, before)
	}
	for _, n := range e.Tree().Descendants(e.Root()) {
		if e.Tree().HasAttr(n, PreviewAttr("comment")) {
			t.Errorf("preview flag left on %s", e.Tree().Name(n))
		}
	}
}

func TestPreviewExistingMark(t *testing.T) {
	value := "<p>ab" + mark("c1") + "cd</span>ef</p>"
	e := newEngine(t, value)
	before := e.Value()

	var selected []string
	e.Events().OnSelect(func(key, id string) { selected = append(selected, key+":"+id) })

	res := preview(t, e, 2, 4)
	if res.Existing == nil || *res.Existing != (SelectInfo{Key: "comment", ID: "c1"}) {
		t.Fatalf("existing = %+v", res.Existing)
	}
	if res.Text != "" {
		t.Errorf("text = %q, nothing must be wrapped", res.Text)
	}
	if got := e.Value(); got != before {
		t.Errorf("value changed:\n got: %s\nwant: %s", got, before)
	}
	if !slices.Equal(selected, []string{"comment:c1"}) {
		t.Errorf("select events = %v", selected)
	}
}

func TestOverlapOrdering(t *testing.T) {
	want := "<p>" + mark("A") + "ab</span>" + mark("A,B") + "cd</span>" + mark("B") + "ef</span></p>"

	tests := []struct {
		name  string
		steps []struct {
			id       string
			from, to int
		}
	}{
		{"earlier first", []struct {
			id       string
			from, to int
		}{{"A", 0, 4}, {"B", 2, 6}}},
		{"later first", []struct {
			id       string
			from, to int
		}{{"B", 2, 6}, {"A", 0, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, "<p>abcdef</p>")
			for _, s := range tt.steps {
				preview(t, e, s.from, s.to)
				apply(t, e, s.id)
			}
			if got := e.Value(); got != want {
				t.Errorf("value:\n got: %s\nwant: %s", got, want)
			}
		})
	}
}

func TestOverlapThreeWay(t *testing.T) {
	e := newEngine(t, "<p>abcdefgh</p>")
	// applied out of document order on purpose
	preview(t, e, 4, 8)
	apply(t, e, "C")
	preview(t, e, 0, 6)
	apply(t, e, "A")
	preview(t, e, 2, 7)
	apply(t, e, "B")

	got := e.Value()
	if !strings.Contains(got, mark("A,B,C")+"ef</span>") {
		t.Errorf("shared ids are not in document order: %s", got)
	}

	tree := e.Tree()
	first := make(map[string]int)
	for i, n := range tree.Descendants(e.Root()) {
		for _, id := range splitIDs(tree.Attr(n, IDAttr("comment"))) {
			if _, ok := first[id]; !ok {
				first[id] = i
			}
		}
	}
	for _, n := range tree.Descendants(e.Root()) {
		ids := splitIDs(tree.Attr(n, IDAttr("comment")))
		if !slices.IsSortedFunc(ids, func(a, b string) int { return cmp.Compare(first[a], first[b]) }) {
			t.Errorf("ids %v of %s are not ordered by mark start", ids, tree.OuterHTML(n))
		}
	}
}

func TestRemoveOverlapped(t *testing.T) {
	e := newEngine(t, "<p>"+mark("A")+"ab</span>"+mark("A,B")+"cd</span>"+mark("B")+"ef</span></p>")
	if err := e.Remove("comment", "A"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, want := e.Value(), "<p>ab"+mark("B")+"cdef</span></p>"; got != want {
		t.Errorf("value:\n got: %s\nwant: %s", got, want)
	}
}

func TestGetSelectInfo(t *testing.T) {
	value := "<p>" + mark("c1") + "abcd</span>" + mark("c2") + "ef</span>gh</p>"

	tests := []struct {
		name     string
		from, to int
		strict   bool
		want     *SelectInfo
	}{
		{"collapsed inside", 1, 1, true, &SelectInfo{Key: "comment", ID: "c1"}},
		{"whole mark", 0, 4, true, &SelectInfo{Key: "comment", ID: "c1"}},
		{"part of mark strict", 1, 3, true, nil},
		{"part of mark", 1, 3, false, &SelectInfo{Key: "comment", ID: "c1"}},
		{"two marks", 2, 6, false, nil},
		{"unmarked", 6, 8, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, value)
			got := e.GetSelectInfo(rangeOf(t, e, tt.from, tt.to), tt.strict)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %+v, want nothing", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestGetSelectInfoBlockCardAtEnd(t *testing.T) {
	e := newEngine(t, "<p>"+mark("c1")+"ab</span>"+mark("c2")+"cd</span></p>"+
		`<card type="block" name="hr" id="h1" data-mark-key="comment" data-comment-id="c1"></card>`)
	afterCard := dom.Position{Node: e.Root(), Offset: 2}

	tests := []struct {
		name  string
		start dom.Position
		want  *SelectInfo
	}{
		{"same mark", rangeOf(t, e, 0, 0).Start, &SelectInfo{Key: "comment", ID: "c1"}},
		{"other mark", rangeOf(t, e, 2, 2).Start, nil},
		{"card only", dom.Position{Node: e.Root(), Offset: 1}, &SelectInfo{Key: "comment", ID: "c1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.GetSelectInfo(dom.Range{Start: tt.start, End: afterCard}, false)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %+v, want nothing", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestPreviewCard(t *testing.T) {
	e := newEngine(t, `<p>ab<card type="inline" name="mention" id="u1"></card>cd</p>`)
	r := rangeOf(t, e, 1, 1)
	if err := e.SetRange(r); err != nil {
		t.Fatal(err)
	}
	res, err := e.Preview("comment", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "ab[card:mention,u1]cd" {
		t.Errorf("text = %q", res.Text)
	}
	if err := e.Apply("comment", "c1"); err != nil {
		t.Fatal(err)
	}

	tree := e.Tree()
	found := e.FindElements("comment", "c1")
	if len(found) != 3 {
		t.Fatalf("found %d elements, want 3", len(found))
	}
	if !tree.IsCard(found[1]) || tree.Attr(found[1], MarkKeyAttr) != "comment" {
		t.Errorf("card is not tagged in place: %s", tree.OuterHTML(found[1]))
	}

	if err := e.Remove("comment", "c1"); err != nil {
		t.Fatal(err)
	}
	for _, n := range tree.Descendants(e.Root()) {
		if tree.HasAttr(n, MarkKeyAttr) || tree.HasAttr(n, IDAttr("comment")) {
			t.Errorf("mark attributes left on %s", tree.OuterHTML(n))
		}
	}
}

func TestExecuteHistory(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, e *Engine)
		want []string
	}{
		{
			name: "preview and apply",
			run: func(t *testing.T, e *Engine) {
				preview(t, e, 0, 2)
				apply(t, e, "c1")
			},
			want: []string{"start", "lock 30ms", "submit"},
		},
		{
			name: "preview without selection",
			run: func(t *testing.T, e *Engine) {
				if _, err := e.Execute(Command{Action: ActionPreview, Key: "comment"}); err != nil {
					t.Fatal(err)
				}
			},
			want: []string{"start", "destroy"},
		},
		{
			name: "preview and revoke",
			run: func(t *testing.T, e *Engine) {
				preview(t, e, 0, 2)
				if _, err := e.Execute(Command{Action: ActionRevoke, Key: "comment"}); err != nil {
					t.Fatal(err)
				}
			},
			want: []string{"start", "destroy"},
		},
		{
			name: "remove",
			run: func(t *testing.T, e *Engine) {
				if _, err := e.Execute(Command{Action: ActionRemove, Key: "comment", ID: "c1"}); err != nil {
					t.Fatal(err)
				}
			},
			want: []string{"lock 0s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recorder{}
			e := newEngine(t, "<p>abcd</p>", WithHistory(h))
			tt.run(t, e)
			if !slices.Equal(h.calls, tt.want) {
				t.Errorf("history calls = %v, want %v", h.calls, tt.want)
			}
		})
	}
}

func TestUnknownKey(t *testing.T) {
	e := newEngine(t, "<p>abcd</p>")
	_, err := e.Execute(Command{Action: ActionApply, Key: "highlight", ID: "h1"})
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("err = %v, want ErrUnknownKey", err)
	}
}

func TestSelectionChanged(t *testing.T) {
	ev := events.New()
	var changes []string
	ev.OnChange(func(key string, added, removed []string) {
		changes = append(changes, fmt.Sprintf("%s +%v -%v", key, added, removed))
	})
	e := newEngine(t, "<p>ab"+mark("c1")+"cd</span></p>", WithEvents(ev))

	if info := e.SelectionChanged(rangeOf(t, e, 2, 4), true); info != nil {
		t.Errorf("self executed notification resolved to %+v", *info)
	}

	preview(t, e, 0, 2)
	apply(t, e, "c2")

	info := e.SelectionChanged(rangeOf(t, e, 2, 4), false)
	if info == nil || info.ID != "c1" {
		t.Errorf("info = %+v", info)
	}
	if !slices.Equal(changes, []string{"comment +[c2] -[]"}) {
		t.Errorf("changes = %v", changes)
	}

	if info := e.SelectionChanged(dom.Range{Start: dom.Position{Node: 9999}, End: dom.Position{Node: 9999}}, false); info != nil {
		t.Errorf("outside selection resolved to %+v", *info)
	}
	if _, ok := e.Range(); ok {
		t.Error("range kept after selection left the document")
	}
}

func TestTriggerChange(t *testing.T) {
	e := newEngine(t, "<p>"+mark("c1")+"ab</span>cd</p>")
	if err := e.Remove("comment", "c1"); err != nil {
		t.Fatal(err)
	}
	added, removed := e.TriggerChange()
	if len(added) != 0 || !slices.Equal(removed["comment"], []string{"c1"}) {
		t.Errorf("added %v removed %v", added, removed)
	}
	if added, removed = e.TriggerChange(); len(added)+len(removed) != 0 {
		t.Errorf("second diff is not empty: %v %v", added, removed)
	}
}
