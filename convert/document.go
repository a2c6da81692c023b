package convert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"richdoc/config"
	"richdoc/markrange"
	"richdoc/parser"
	"richdoc/state"
	"richdoc/utils/debug"
)

// document is parsed source with marks of all configured keys attached.
type document struct {
	src    string
	source string
	parser *parser.Parser
	marks  *markrange.Engine
	cfg    *config.DocumentConfig
}

// loadDocument reads UTF-8 source and parses it. "src" names the source in
// logs, reports and output paths.
func loadDocument(ctx context.Context, r io.Reader, src string, log *zap.Logger) (*document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}

	opts, err := env.ParserOptions()
	if err != nil {
		return nil, err
	}
	p, err := parser.New(string(data), append(opts, parser.WithLogger(log))...)
	if err != nil {
		return nil, err
	}

	// engine registers mark rules, keep configured schema intact
	marks := markrange.New(p.Tree(), p.Root(), env.Cfg.Document.Marks.Keys,
		markrange.WithLogger(log),
		markrange.WithSchema(env.Schema.Clone()),
		markrange.WithConversion(env.Conversion),
		markrange.WithEvents(p.Events()),
	)

	d := &document{
		src:    src,
		source: string(data),
		parser: parser.FromTree(p.Tree(), p.Root(), append(opts,
			parser.WithLogger(log),
			parser.WithSchema(marks.Schema()),
			parser.WithEvents(marks.Events()),
		)...),
		marks: marks,
		cfg:   &env.Cfg.Document,
	}

	if env.Rpt != nil {
		tw := debug.NewTreeWriter()
		tw.Node(0, p.Tree(), p.Root())
		env.Rpt.StoreData("source/"+src, data)
		env.Rpt.StoreData("tree/"+src+".txt", []byte(tw.String()))
	}
	return d, nil
}

// valueOptions are serialization options of the document.
func (d *document) valueOptions() parser.ValueOptions {
	opts := d.parser.Canonical()
	opts.ReplaceSpaces = d.cfg.ReplaceSpaces
	opts.CustomTags = d.cfg.CustomTags
	return opts
}

// title is the first non empty line of document text.
func (d *document) title() string {
	for line := range strings.Lines(d.parser.ToText(d.parser.Schema(), false)) {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// render produces document in requested format.
func (d *document) render(format config.OutputFmt) (string, error) {
	switch format {
	case config.OutputFmtValue:
		return d.parser.ToValue(d.valueOptions()), nil
	case config.OutputFmtText:
		return d.parser.ToText(d.parser.Schema(), d.cfg.IncludeCards), nil
	case config.OutputFmtHtml:
		return d.parser.ToHTML().HTML, nil
	case config.OutputFmtXhtml:
		title, err := expandTemplate(d, config.XHTMLTitleFieldName, d.cfg.XHTMLTitle, format)
		if err != nil {
			return "", err
		}
		return d.parser.ToXHTML(strings.TrimSpace(title))
	}
	return "", fmt.Errorf("unsupported output format %v", format)
}
