package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"richdoc/dom"
	"richdoc/markrange"
	"richdoc/state"
	"richdoc/utils/debug"
)

// openDocument loads single document file recognizing its encoding.
func openDocument(ctx context.Context, path string, log *zap.Logger) (*document, error) {
	ok, enc, err := isDocumentFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("input was not recognized as document (%s)", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadDocument(ctx, selectReader(f, enc), filepath.Base(path), log)
}

// readSource reads whole file converting it to UTF-8.
func readSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	head, _ := r.Peek(4)
	return io.ReadAll(selectReader(r, detectUTF(head)))
}

// output returns writer for destination file, STDOUT when name is empty.
func output(cmd *cli.Command, name string) (io.Writer, func() error, error) {
	if len(name) == 0 {
		return cmd.Root().Writer, func() error { return nil }, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create destination file '%s': %w", name, err)
	}
	return f, f.Close, nil
}

// MarksList prints ids of every mark key present in document.
func MarksList(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	return listMarks(ctx, src, cmd.Root().Writer, env.Log.Named("marks"))
}

func listMarks(ctx context.Context, src string, w io.Writer, log *zap.Logger) error {
	d, err := openDocument(ctx, src, log)
	if err != nil {
		return err
	}
	ids := d.marks.IDs()
	keys := slices.SortedFunc(maps.Keys(ids), naturalCompare)
	for _, key := range keys {
		list := slices.Clone(ids[key])
		slices.SortFunc(list, naturalCompare)
		for _, id := range list {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", key, id, len(d.marks.FindElements(key, id))); err != nil {
				return err
			}
		}
	}
	log.Debug("Listed marks", zap.String("source", src), zap.Int("keys", len(keys)))
	return nil
}

func naturalCompare(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	default:
		return 1
	}
}

// MarksExtract takes marks of a key out of document, saves them in store
// and prints token they could be reattached with. Unmarked value goes to
// DESTINATION when given.
func MarksExtract(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	key := cmd.String("key")
	if len(key) == 0 {
		key = env.Cfg.Document.Marks.Keys[0]
	}

	var value io.Writer
	if dst := cmd.Args().Get(1); len(dst) > 0 {
		w, closer, err := output(cmd, dst)
		if err != nil {
			return err
		}
		defer closer()
		value = w
	}
	return extractMarks(ctx, key, src, cmd.Root().Writer, value, env.Log.Named("marks"))
}

func extractMarks(ctx context.Context, key, src string, w, value io.Writer, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	d, err := openDocument(ctx, src, log)
	if err != nil {
		return err
	}
	set, err := d.marks.FilterValue(key, "")
	if err != nil {
		return fmt.Errorf("unable to extract marks: %w", err)
	}

	s, err := env.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	token, err := s.Put(ctx, set)
	if err != nil {
		return err
	}
	if env.Rpt != nil {
		tw := debug.NewTreeWriter()
		tw.PendingSet(0, set)
		env.Rpt.StoreData("pending/"+token+".txt", []byte(tw.String()))
	}
	log.Info("Marks extracted", zap.String("source", src), zap.String("key", key), zap.Int("entries", len(set.Entries)), zap.String("token", token))

	if value != nil {
		if _, err := io.WriteString(value, set.Value); err != nil {
			return fmt.Errorf("unable to write value: %w", err)
		}
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// MarksReattach puts marks saved under token back into the value they were
// taken from (or value read from --value file) and writes result.
func MarksReattach(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	token := cmd.Args().Get(0)
	if len(token) == 0 {
		return errors.New("no token has been specified")
	}

	var value string
	if path := cmd.String("value"); len(path) > 0 {
		data, err := readSource(path)
		if err != nil {
			return fmt.Errorf("unable to read value from '%s': %w", path, err)
		}
		value = string(data)
	}

	w, closer, err := output(cmd, cmd.Args().Get(1))
	if err != nil {
		return err
	}
	if err := reattachMarks(ctx, token, value, cmd.Bool("keep"), w, env.Log.Named("marks")); err != nil {
		closer()
		return err
	}
	return closer()
}

func reattachMarks(ctx context.Context, token, value string, keep bool, w io.Writer, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	s, err := env.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	set, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		value = set.Value
	}

	if _, err := env.ParserOptions(); err != nil {
		return err
	}
	// value to reattach to is passed explicitly, live tree stays empty
	t := dom.NewTree()
	engine := markrange.New(t, t.Root(), env.Cfg.Document.Marks.Keys,
		markrange.WithLogger(log),
		markrange.WithSchema(env.Schema.Clone()),
		markrange.WithConversion(env.Conversion),
	)
	result, err := engine.WrapFromPath(set.Key, set.Entries, value)
	if err != nil {
		return fmt.Errorf("unable to reattach marks of %s: %w", token, err)
	}
	if _, err := io.WriteString(w, result); err != nil {
		return fmt.Errorf("unable to write value: %w", err)
	}

	if !keep {
		if err := s.Delete(ctx, token); err != nil {
			return err
		}
	}
	log.Info("Marks reattached", zap.String("token", token), zap.String("key", set.Key), zap.Int("entries", len(set.Entries)), zap.Bool("kept", keep))
	return nil
}

// MarksPending prints tokens waiting in store, oldest first.
func MarksPending(ctx context.Context, cmd *cli.Command) error {
	return pendingMarks(ctx, cmd.Root().Writer)
}

func pendingMarks(ctx context.Context, w io.Writer) error {
	env := state.EnvFromContext(ctx)

	s, err := env.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	tokens, err := s.Tokens(ctx)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		set, err := s.Get(ctx, token)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", token, set.Key, len(set.Entries)); err != nil {
			return err
		}
	}
	return nil
}
