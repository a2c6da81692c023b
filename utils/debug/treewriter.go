// Package debug produces human readable dumps of content trees and pending
// mark sets for logs and debug reports.
package debug

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/maruel/natural"

	"richdoc/dom"
	"richdoc/markrange"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Node writes subtree of id, one node per line. Card contents are not
// descended.
func (tw TreeWriter) Node(depth int, t *dom.Tree, id dom.NodeID) {
	switch t.Kind(id) {
	case dom.KindText:
		tw.TextBlock(depth, "text", t.Text(id))
		return
	case dom.KindCard:
		tw.Line(depth, "card %s%s", t.Name(id), formatAttrs(t.Attrs(id)))
		return
	}
	line := t.Name(id) + formatAttrs(t.Attrs(id))
	if styles := t.Styles(id); len(styles) > 0 {
		line += " style{" + dom.FormatStyle(styles) + "}"
	}
	tw.Line(depth, "%s", line)
	for _, c := range t.Children(id) {
		tw.Node(depth+1, t, c)
	}
}

// PendingSet writes pending mark set with entries in recorded order.
func (tw TreeWriter) PendingSet(depth int, set markrange.PendingMarkSet) {
	tw.Line(depth, "key %s", set.Key)
	tw.TextBlock(depth, "value", set.Value)
	for i, e := range set.Entries {
		paths := make([]string, 0, len(e.Path))
		for _, p := range e.Path {
			paths = append(paths, fmt.Sprint([]int(p)))
		}
		tw.Line(depth, "entry %d ids=%s path=%s", i, strings.Join(e.IDs, ","), strings.Join(paths, ".."))
		tw.TextBlock(depth+1, "text", e.Text)
	}
}

// formatAttrs lists attributes sorted by name so dumps do not depend on
// source attribute order.
func formatAttrs(attrs dom.Attrs) string {
	if len(attrs) == 0 {
		return ""
	}
	sorted := slices.Clone(attrs)
	slices.SortFunc(sorted, func(a, b dom.Attr) int {
		switch {
		case a.Key == b.Key:
			return 0
		case natural.Less(a.Key, b.Key):
			return -1
		default:
			return 1
		}
	})
	var sb strings.Builder
	for _, a := range sorted {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(strconv.Quote(a.Val))
	}
	return sb.String()
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
