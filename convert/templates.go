package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"richdoc/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	// Title is the first non empty line of document text.
	Title      string
	Format     string
	SourceFile string
	SourcePath string
	// Marks maps mark key to number of distinct ids in document.
	Marks map[string]int
}

func buildValues(d *document, name config.TemplateFieldName, format config.OutputFmt) Values {
	marks := make(map[string]int)
	for key, ids := range d.marks.IDs() {
		marks[key] = len(ids)
	}
	return Values{
		Context:    string(name),
		Title:      d.title(),
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(d.src), filepath.Ext(d.src)),
		SourcePath: filepath.ToSlash(filepath.Dir(d.src)),
		Marks:      marks,
	}
}

func expandTemplate(d *document, name config.TemplateFieldName, field string, format config.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, buildValues(d, name, format)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
