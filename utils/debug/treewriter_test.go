package debug

import (
	"testing"

	"richdoc/dom"
	"richdoc/markrange"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "test", nil, "test\n"},
		{"depth 2", 2, "%s=%d", []any{"n", 1}, "    n=1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tw := NewTreeWriter()
	tw.TextBlock(1, "text", "a\nb")
	tw.TextBlock(0, "empty", "")
	if want := "  text: \"a\\nb\"\nempty: \n"; tw.String() != want {
		t.Errorf("TextBlock() = %q, want %q", tw.String(), want)
	}
}

func TestTreeWriter_Node(t *testing.T) {
	tree, err := dom.Parse(`<p style="text-align: center" id="x" class="c">ab<strong>c</strong><card type="inline" name="mention"><span>inside</span></card></p>`)
	if err != nil {
		t.Fatal(err)
	}
	tw := NewTreeWriter()
	tw.Node(0, tree, tree.FirstChild(tree.Root()))

	want := `p class="c" id="x" style{text-align: center;}
  text: "ab"
  strong
    text: "c"
  card card name="mention" type="inline"
`
	if got := tw.String(); got != want {
		t.Errorf("Node() =\n%s\nwant\n%s", got, want)
	}
}

func TestTreeWriter_PendingSet(t *testing.T) {
	tw := NewTreeWriter()
	tw.PendingSet(0, markrange.PendingMarkSet{
		Key:   "comment",
		Value: "<p>abc</p>",
		Entries: []markrange.Entry{
			{IDs: []string{"a", "b"}, Path: []dom.Path{{0, 0, 1}, {0, 1}}, Text: "bc"},
		},
	})
	want := `key comment
value: "<p>abc</p>"
entry 0 ids=a,b path=[0 0 1]..[0 1]
  text: "bc"
`
	if got := tw.String(); got != want {
		t.Errorf("PendingSet() =\n%s\nwant\n%s", got, want)
	}
}
