// Package store keeps pending mark sets in SQLite database so marks taken
// out of a document can be reattached by another process later.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"richdoc/markrange"
)

// ErrNotFound is returned for unknown tokens.
var ErrNotFound = errors.New("pending mark set not found")

const schemaSQL = `CREATE TABLE IF NOT EXISTS pending (
	token   TEXT PRIMARY KEY,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	entries TEXT NOT NULL,
	created INTEGER NOT NULL
)`

// Store is a single connection to the database. It is not safe for
// concurrent use.
type Store struct {
	log  *zap.Logger
	conn *sqlite.Conn
}

// Open opens (creating when necessary) database at path. Path ":memory:"
// gives private in-memory database.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL}
	if path == ":memory:" {
		flags = []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenMemory}
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("unable to open database '%s': %w", path, err)
	}
	if err := sqlitex.ExecuteTransient(conn, schemaSQL, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare database '%s': %w", path, err)
	}
	s := &Store{log: log.Named("store"), conn: conn}
	s.log.Debug("Database opened", zap.String("path", path))
	return s, nil
}

// Close closes database.
func (s *Store) Close() error {
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("unable to close database: %w", err)
	}
	return nil
}

// interruptible makes blocking database calls honor ctx until returned
// function is called.
func (s *Store) interruptible(ctx context.Context) func() {
	s.conn.SetInterrupt(ctx.Done())
	return func() { s.conn.SetInterrupt(nil) }
}

// Put saves set and returns token it could be retrieved with.
func (s *Store) Put(ctx context.Context, set markrange.PendingMarkSet) (string, error) {
	defer s.interruptible(ctx)()

	token, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("unable to generate token: %w", err)
	}
	entries, err := json.Marshal(set.Entries)
	if err != nil {
		return "", fmt.Errorf("unable to encode entries: %w", err)
	}
	err = sqlitex.Execute(s.conn,
		`INSERT INTO pending (token, key, value, entries, created) VALUES (?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{token.String(), set.Key, set.Value, string(entries), time.Now().Unix()}})
	if err != nil {
		return "", fmt.Errorf("unable to store pending marks: %w", err)
	}
	s.log.Debug("Stored pending marks", zap.Stringer("token", token), zap.String("key", set.Key), zap.Int("entries", len(set.Entries)))
	return token.String(), nil
}

// Get loads set stored under token.
func (s *Store) Get(ctx context.Context, token string) (markrange.PendingMarkSet, error) {
	defer s.interruptible(ctx)()

	var (
		set     markrange.PendingMarkSet
		found   bool
		entries string
	)
	err := sqlitex.Execute(s.conn,
		`SELECT key, value, entries FROM pending WHERE token = ?`,
		&sqlitex.ExecOptions{
			Args: []any{token},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				set.Key = stmt.ColumnText(0)
				set.Value = stmt.ColumnText(1)
				entries = stmt.ColumnText(2)
				return nil
			},
		})
	if err != nil {
		return markrange.PendingMarkSet{}, fmt.Errorf("unable to load pending marks: %w", err)
	}
	if !found {
		return markrange.PendingMarkSet{}, fmt.Errorf("token %s: %w", token, ErrNotFound)
	}
	if err := json.Unmarshal([]byte(entries), &set.Entries); err != nil {
		return markrange.PendingMarkSet{}, fmt.Errorf("unable to decode entries of %s: %w", token, err)
	}
	return set, nil
}

// Delete removes set stored under token.
func (s *Store) Delete(ctx context.Context, token string) error {
	defer s.interruptible(ctx)()

	err := sqlitex.Execute(s.conn, `DELETE FROM pending WHERE token = ?`, &sqlitex.ExecOptions{Args: []any{token}})
	if err != nil {
		return fmt.Errorf("unable to delete pending marks: %w", err)
	}
	if s.conn.Changes() == 0 {
		return fmt.Errorf("token %s: %w", token, ErrNotFound)
	}
	s.log.Debug("Deleted pending marks", zap.String("token", token))
	return nil
}

// Tokens lists stored tokens, oldest first.
func (s *Store) Tokens(ctx context.Context) ([]string, error) {
	defer s.interruptible(ctx)()

	var tokens []string
	err := sqlitex.Execute(s.conn, `SELECT token FROM pending ORDER BY created, token`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			tokens = append(tokens, stmt.ColumnText(0))
			return nil
		}})
	if err != nil {
		return nil, fmt.Errorf("unable to list pending marks: %w", err)
	}
	return tokens, nil
}
