package css_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"richdoc/css"
)

func TestParseInline(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	p := css.NewParser(log)

	tests := []struct {
		name  string
		input string
		want  []css.Declaration
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"single", "color: red", []css.Declaration{{"color", "red"}}},
		{
			name:  "multiple ordered",
			input: "font-weight: bold; color: #FF0000;",
			want:  []css.Declaration{{"font-weight", "bold"}, {"color", "#FF0000"}},
		},
		{
			name:  "duplicate keeps first position",
			input: "color: red; font-size: 12px; color: blue",
			want:  []css.Declaration{{"color", "blue"}, {"font-size", "12px"}},
		},
		{
			name:  "uppercase property",
			input: "COLOR: red",
			want:  []css.Declaration{{"color", "red"}},
		},
		{
			name:  "function value",
			input: "background-color: rgb(255, 0, 0)",
			want:  []css.Declaration{{"background-color", "rgb(255, 0, 0)"}},
		},
		{
			name:  "multi token value",
			input: "font-family: Arial,   sans-serif",
			want:  []css.Declaration{{"font-family", "Arial, sans-serif"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseInline(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseInline(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("declaration %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormat(t *testing.T) {
	got := css.Format([]css.Declaration{{"color", "red"}, {"font-size", "12px"}})
	if want := "color: red; font-size: 12px;"; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
	if got := css.Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}
