/*
source.go - Interfaces to the systems that own the input collections

PURPOSE:
  The engine consumes two fully materialized collections. Where they come
  from (JSON files, an HTTP endpoint, a database) is the business of a
  Source implementation.

KEY INTERFACES:
  Source:   read both collections, in input order
  Importer: append documents to a writable source

ORDERING CONTRACT:
  Implementations return records in the order they were received. The
  engine relies on this for stable ordering of same-instant events and for
  last-write-wins on repeated snapshots.

IMPLEMENTATIONS:
  - source/file.go:        JSON documents on disk
  - source/http.go:        JSON documents over HTTP
  - store/sqlite/:         imported documents in SQLite
  - ledger/store/memory.go: in-memory, for tests and the CLI
*/
package ledger

import "context"

// Source provides the two input collections.
//
//go:generate mockgen -destination=../mocks/mock_source.go -package=mocks -source=source.go
type Source interface {
	// Events returns all ledger events in input order.
	Events(ctx context.Context) ([]Event, error)

	// Snapshots returns all balance snapshots in input order.
	Snapshots(ctx context.Context) ([]Snapshot, error)
}

// Importer is implemented by sources that accept new documents.
// Imports append; nothing is ever updated or removed except by Reset.
type Importer interface {
	ImportEvents(ctx context.Context, events []Event) error
	ImportSnapshots(ctx context.Context, snapshots []Snapshot) error
}
