// Package jsonfile implements store.DocumentStore with one pretty-printed
// JSON file per collection under a data directory.
//
// This is the default backend and mirrors the on-disk layout the rest of the
// tooling expects: data/users.json, data/informations.json, and so on, each
// a mapping with a single named array. Files are written with two-space
// indentation so they stay hand-editable.
//
// There is deliberately NO locking here. Concurrent read-modify-write cycles
// against the same collection can lose an update (last writer wins). The
// store preserves that observable behavior instead of hiding it.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists each collection as <dir>/<collection>.json.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: creating data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Seed writes an empty document for the collection if no file exists yet,
// so a fresh deployment starts with {"users": []} style files on disk.
// Existing files are left alone.
func (s *Store) Seed(ctx context.Context, collection string, empty any) error {
	_, err := os.Stat(s.path(collection))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("jsonfile: stat %s: %w", collection, err)
	}
	return s.Save(ctx, collection, empty)
}

// Load reads and unmarshals the collection file into doc.
// A missing file is not an error — doc keeps its zero value.
func (s *Store) Load(_ context.Context, collection string, doc any) error {
	raw, err := os.ReadFile(s.path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("jsonfile: reading %s: %w", collection, err)
	}

	if err := json.Unmarshal(raw, doc); err != nil {
		return fmt.Errorf("jsonfile: decoding %s: %w", collection, err)
	}
	return nil
}

// Save replaces the collection file with the marshalled document.
func (s *Store) Save(_ context.Context, collection string, doc any) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding %s: %w", collection, err)
	}

	if err := os.WriteFile(s.path(collection), raw, 0o644); err != nil {
		return fmt.Errorf("jsonfile: writing %s: %w", collection, err)
	}
	return nil
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}
