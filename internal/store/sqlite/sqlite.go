// Package sqlite implements store.DocumentStore on top of SQLite.
//
// WHY SQLITE FOR A DOCUMENT STORE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file, with no server to run. Here it is the "real transactional store" the
// storage seam was designed to accept: each collection document is one row,
// so Save becomes a single atomic UPSERT instead of a whole-file rewrite.
// Service logic is untouched; select it with STORE_DRIVER=sqlite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite — works everywhere Go works.
//
// Note that swapping in this backend does NOT serialize the application's
// read-modify-write cycles: two requests can still load the same document,
// mutate independently, and overwrite each other's save. Only the individual
// row write is atomic.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// BLANK IMPORT:
	// Side-effect only — the package's init() registers a database/sql
	// driver named "sqlite". After this import, sql.Open("sqlite", ...)
	// knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// Store keeps one row per collection in a `collections` table.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
//
// dbPath examples:
//   - "data/dsn.db" → file-based database (persistent)
//   - ":memory:"    → in-memory database (great for tests, lost on close)
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only creates a pool manager — Ping forces a real connection
	// so a bad path surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// the default journal mode locks the whole database during writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			doc  TEXT NOT NULL
		)
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the underlying connection pool. Defer this next to New.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Load reads the collection's document row into doc.
// A collection that was never saved leaves doc at its zero value.
func (s *Store) Load(ctx context.Context, collection string, doc any) error {
	var raw string
	err := s.conn.QueryRowContext(ctx,
		`SELECT doc FROM collections WHERE name = ?`, collection,
	).Scan(&raw)

	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sqlite: loading %s: %w", collection, err)
	}

	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		return fmt.Errorf("sqlite: decoding %s: %w", collection, err)
	}
	return nil
}

// Save upserts the collection's document row in one atomic statement.
func (s *Store) Save(ctx context.Context, collection string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite: encoding %s: %w", collection, err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO collections (name, doc) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET doc = excluded.doc`,
		collection, string(raw),
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving %s: %w", collection, err)
	}
	return nil
}
