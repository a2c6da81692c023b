package parser

import (
	"strings"
	"testing"
)

func TestToText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraphs", "<p>a</p><p>b</p>", "a\nb\n"},
		{"break", "<p>a<br>b</p>", "a\nb\n"},
		{"entities", "<p>a &amp; b&nbsp;c</p>", "a & b c\n"},
		{
			name:  "ordered list with start",
			input: `<ol start="3"><li>a</li><li>b</li><li data-list-item="true">nested</li><li>c</li></ol>`,
			want:  "3. a\n4. b\nnested\n5. c\n",
		},
		{"bullets", `<ul><li>x</li><li>y</li></ul>`, "• x\n• y\n"},
		{"square bullets", `<ul style="list-style-type: square"><li>x</li></ul>`, "■ x\n"},
		{"roman", `<ol start="4" style="list-style-type: upper-roman"><li>x</li></ol>`, "IV. x\n"},
		{"alpha", `<ol start="27" style="list-style-type: lower-alpha"><li>x</li></ol>`, "aa. x\n"},
		{"leading space trimmed", "<p>   </p><p>x</p>", "x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustNew(t, tt.input)
			if got := p.ToText(nil, false); got != tt.want {
				t.Errorf("ToText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListStyles(t *testing.T) {
	l := DefaultListStyles()
	tests := []struct {
		style string
		n     int
		want  string
	}{
		{"decimal", 12, "12"},
		{"lower-alpha", 1, "a"},
		{"upper-latin", 28, "AB"},
		{"lower-roman", 1994, "mcmxciv"},
		{"unknown", 7, "7"},
		{"lower-roman", 0, "0"},
	}
	for _, tt := range tests {
		if got := l.Ordinal(tt.style, tt.n); got != tt.want {
			t.Errorf("Ordinal(%q, %d) = %q, want %q", tt.style, tt.n, got, tt.want)
		}
	}
	l.RegisterBullet("dash", "-")
	if got := l.Bullet("dash"); got != "-" {
		t.Errorf("Bullet(dash) = %q", got)
	}
	if got := l.Bullet("nope"); got != "•" {
		t.Errorf("Bullet(nope) = %q", got)
	}
}

func TestToHTML(t *testing.T) {
	p := mustNew(t, `<p>a</p><p style="user-select: none">hidden</p>`)
	res := p.ToHTML()
	if !strings.Contains(res.HTML, "font-size: 14px;") || !strings.HasPrefix(res.HTML, "<p style=") {
		t.Errorf("paragraph style not applied: %s", res.HTML)
	}
	if strings.Contains(res.HTML, "hidden") {
		t.Errorf("hidden element kept: %s", res.HTML)
	}
	if res.Text != "a\n" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestToXHTML(t *testing.T) {
	p := mustNew(t, `<p><b>x</b> &amp; y</p><card type="block" name="image" id="c1"></card>`)
	out, err := p.ToXHTML("Title")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<html xmlns="http://www.w3.org/1999/xhtml">`,
		`<title>Title</title>`,
		`<p><strong>x</strong> &amp; y</p>`,
		`<div data-card-type="block" data-card-key="image" data-card-id="c1"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToXHTML() missing %q in\n%s", want, out)
		}
	}
}
