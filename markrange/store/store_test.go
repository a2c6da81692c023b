package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"richdoc/dom"
	"richdoc/markrange"
)

func sample() markrange.PendingMarkSet {
	return markrange.PendingMarkSet{
		Key:   "comment",
		Value: "<p>abcdef</p>",
		Entries: []markrange.Entry{
			{IDs: []string{"c1"}, Path: []dom.Path{{0, 0}, {0, 0, 3}}, Text: "abc"},
			{IDs: []string{"c1", "c2"}, Path: []dom.Path{{0, 0, 3}, {0, 1}}, Text: "def"},
		},
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "marks.db")

	s, err := Open(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	token, err := s.Put(ctx, sample())
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// reopened database still has the set
	s, err = Open(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Errorf("Get = %+v, want %+v", got, sample())
	}

	tokens, err := s.Tokens(ctx)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != token {
		t.Errorf("Tokens = %v", tokens)
	}

	if err := s.Delete(ctx, token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestStoreMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	first, err := s.Put(ctx, sample())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Put(ctx, sample())
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("tokens collide: %s", first)
	}
	tokens, err := s.Tokens(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 2 || tokens[0] != first {
		t.Errorf("Tokens = %v, want %s first", tokens, first)
	}
}

func TestStoreCanceled(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, sample()); err == nil {
		t.Error("Put with canceled context succeeded")
	}
}
