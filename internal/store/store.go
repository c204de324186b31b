// Package store defines the persistence seam for named collections.
//
// PERSISTENCE MODEL:
// Every collection (users, informations, subscribers, messages) is one JSON
// document — a mapping with a single named array, e.g. {"users": [...]}.
// There are no partial updates, no indexes and no migrations. Every mutation
// anywhere in the app follows the same cycle:
//
//	load full document → mutate in memory → save full document
//
// Two concurrent cycles against the same collection can interleave and one
// write silently wins (last-writer-wins, no detection). That race is an
// accepted property of the design — see the repository tests, which document
// it rather than fixing it.
//
// WHY AN INTERFACE?
// The services never touch files or SQL; they see typed repositories, which
// in turn see only this DocumentStore. Swapping the whole-file JSON backend
// for the SQLite backend (or a real database) is a one-line change in main.
package store

import "context"

// DocumentStore loads and saves an entire named collection document.
//
// Load unmarshals the stored document into doc (a pointer to the collection's
// document struct). A collection that has never been saved leaves doc
// untouched and returns nil — callers start from the zero document.
//
// Save replaces the stored document wholesale.
type DocumentStore interface {
	Load(ctx context.Context, collection string, doc any) error
	Save(ctx context.Context, collection string, doc any) error
}
