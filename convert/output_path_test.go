package convert

import (
	"path/filepath"
	"testing"

	"richdoc/config"
	"richdoc/state"
)

func setupTestEnvForOutputPath(t *testing.T, noDirs, transliterate bool, template string) *state.LocalEnv {
	t.Helper()
	_, env := setupTestEnv(t)
	env.NoDirs = noDirs
	env.Cfg.Document.FileNameTransliterate = transliterate
	env.Cfg.Document.OutputNameTemplate = template
	return env
}

func TestBuildOutputPath(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		noDirs        bool
		transliterate bool
		template      string
		format        config.OutputFmt
		expected      string
	}{
		{"no dirs", "notes/week/doc.html", true, false, "", config.OutputFmtValue, filepath.Join("/output", "doc.value.html")},
		{"with dirs", "notes/week/doc.html", false, false, "", config.OutputFmtValue, filepath.Join("/output", "notes", "week", "doc.value.html")},
		{"text", "doc.html", true, false, "", config.OutputFmtText, filepath.Join("/output", "doc.txt")},
		{"html", "doc.htm", true, false, "", config.OutputFmtHtml, filepath.Join("/output", "doc.html")},
		{"xhtml", "doc.html", true, false, "", config.OutputFmtXhtml, filepath.Join("/output", "doc.xhtml")},
		{"transliterate", "Заметки.html", true, true, "", config.OutputFmtValue, filepath.Join("/output", "zametki.value.html")},
		{"template", "doc.html", true, false, "{{ .Format }}/{{ .Title }}", config.OutputFmtText, filepath.Join("/output", "text", "Hello world.txt")},
		{"template with dirs", "in/doc.html", false, false, "{{ .SourceFile }}-copy", config.OutputFmtValue, filepath.Join("/output", "in", "doc-copy.value.html")},
		{"template climbing up", "doc.html", true, false, "../../{{ .SourceFile }}", config.OutputFmtValue, filepath.Join("/output", "doc.value.html")},
		{"template transliterate", "doc.html", true, true, "Заметки/{{ .SourceFile }}", config.OutputFmtValue, filepath.Join("/output", "zametki", "doc.value.html")},
		{"broken template falls back", "doc.html", true, false, "{{ .Missing", config.OutputFmtValue, filepath.Join("/output", "doc.value.html")},
		{"template expanding to nothing", "doc.html", true, false, "{{ if false }}x{{ end }}", config.OutputFmtValue, filepath.Join("/output", "doc.value.html")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, tt.noDirs, tt.transliterate, tt.template)
			d := newTestDocument(t, sampleValue, tt.src)

			result := buildOutputPath(d, "/output", tt.format, env)
			if result != tt.expected {
				t.Errorf("buildOutputPath() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestDetermineOutputDir(t *testing.T) {
	if got := determineOutputDir("notes/doc.html", "/output", setupTestEnvForOutputPath(t, true, false, "")); got != "/output" {
		t.Errorf("determineOutputDir() with nodirs = %q", got)
	}
	if got := determineOutputDir("notes/doc.html", "/output", setupTestEnvForOutputPath(t, false, false, "")); got != filepath.Join("/output", "notes") {
		t.Errorf("determineOutputDir() = %q", got)
	}
}

func TestBuildDefaultFileName(t *testing.T) {
	tests := []struct {
		name          string
		src           string
		transliterate bool
		format        config.OutputFmt
		expected      string
	}{
		{"simple", "doc.html", false, config.OutputFmtValue, "doc.value.html"},
		{"with path", "path/to/doc.htm", false, config.OutputFmtText, "doc.txt"},
		{"value source", "doc.value", false, config.OutputFmtHtml, "doc.html"},
		{"transliterate", "Заметки.html", true, config.OutputFmtXhtml, "zametki.xhtml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate, "")
			if result := buildDefaultFileName(tt.src, tt.format, env); result != tt.expected {
				t.Errorf("buildDefaultFileName() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSplitAndCleanPath(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		name     string
		path     string
		expected []string
	}{
		{"simple path", "notes" + sep + "doc", []string{"notes", "doc"}},
		{"single segment", "doc", []string{"doc"}},
		{"trailing separator", "notes" + sep + "doc" + sep, []string{"notes", "doc"}},
		{"dots", "." + sep + ".." + sep + "notes" + sep + "doc", []string{"notes", "doc"}},
		{"blank segments", "notes" + sep + "  " + sep + "doc", []string{"notes", "doc"}},
		{"empty path", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndCleanPath(tt.path)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndCleanPath() = %q, want %q", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndCleanPath()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCleanPathSegment(t *testing.T) {
	tests := []struct {
		name          string
		segment       string
		transliterate bool
		expected      string
	}{
		{"simple segment", "notes", false, "notes"},
		{"with spaces", "My Notes", false, "My Notes"},
		{"transliterate cyrillic", "Заметки", true, "zametki"},
		{"transliterate spaces", "My Notes", true, "my-notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnvForOutputPath(t, true, tt.transliterate, "")
			if result := cleanPathSegment(tt.segment, env); result != tt.expected {
				t.Errorf("cleanPathSegment() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestAssemblePathWithSubdirs_EmptyPath(t *testing.T) {
	env := setupTestEnvForOutputPath(t, true, false, "")

	result := assemblePathWithSubdirs("/output", "", config.OutputFmtText, env)
	if expected := filepath.Join("/output", "_.txt"); result != expected {
		t.Errorf("assemblePathWithSubdirs() with empty path = %q, want %q", result, expected)
	}
}
