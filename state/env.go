// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"richdoc/config"
	"richdoc/markrange/store"
	"richdoc/parser"
	"richdoc/schema"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// built from document configuration on first use
	Schema     *schema.Schema
	Conversion *schema.Conversion

	// used by convert subcommand
	NoDirs    bool
	Overwrite bool
	CodePage  encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// ParserOptions returns options every parser of the program is created
// with.
func (e *LocalEnv) ParserOptions() ([]parser.Option, error) {
	if err := e.prepareSchema(); err != nil {
		return nil, err
	}
	opts := []parser.Option{
		parser.WithLogger(e.Log),
		parser.WithSchema(e.Schema),
		parser.WithConversion(e.Conversion),
	}
	if style := e.Cfg.Document.Paragraph(); style != nil {
		opts = append(opts, parser.WithParagraphStyle(style))
	}
	return opts, nil
}

// OpenStore opens pending marks database configured for the program.
// Caller closes it.
func (e *LocalEnv) OpenStore() (*store.Store, error) {
	return store.Open(e.Cfg.Store.Path, e.Log)
}
