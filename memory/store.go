package memory

import (
	"context"
	"errors"
)

// Common errors returned by knowledge store operations.
var (
	// ErrNotImplemented is returned when an operation is not supported by a backend,
	// e.g. Retrieve on a store that has no identifier space.
	ErrNotImplemented = errors.New("memory: operation not implemented")

	// ErrOutOfBounds is returned when PrevResult or NextResult is called while
	// HasPrevResult or HasNextResult reports false.
	ErrOutOfBounds = errors.New("memory: cursor out of bounds")

	// ErrInvalidID is returned when an identifier does not conform to the
	// backend's identifier format.
	ErrInvalidID = errors.New("memory: invalid identifier")

	// ErrInvalidValue is returned when an identifier or attribute value cannot be
	// stored by the backend (e.g., it is not hashable).
	ErrInvalidValue = errors.New("memory: invalid value")

	// ErrSourceFailed is returned when a remote knowledge source fails.
	ErrSourceFailed = errors.New("memory: knowledge source failed")
)

// Store is the contract every knowledge store backend implements.
// One Store is held by a controller for the lifetime of an episode (and
// beyond: memory persists across episodes).
//
// Lookups that find nothing are not errors: Retrieve, Query and the cursor
// methods return a nil Record and a nil error for a miss.
//
// Stores are not safe for concurrent use; they are owned by exactly one caller.
//
// Example:
//
//	store := graph.New()
//	_, _ = store.Store(ctx, "cat", memory.Record{"is_a": "mammal"})
//
//	rec, err := store.Query(ctx, memory.Record{"is_a": "mammal"})
//	for err == nil && rec != nil && store.HasNextResult() {
//	    rec, err = store.NextResult(ctx)
//	}
type Store interface {
	// Clear wipes all stored knowledge and any cursor state.
	Clear(ctx context.Context) error

	// Store upserts a record. A nil id asks the backend to generate one.
	// Returns the identifier the record was stored under (nil for backends
	// without an identifier space).
	Store(ctx context.Context, id any, attrs Record) (any, error)

	// Retrieve looks up the record for id. It also resets any active query cursor.
	// Returns a nil Record when id is unknown.
	Retrieve(ctx context.Context, id any) (Record, error)

	// Query performs an associative search: every attribute in attrs must match
	// exactly. It establishes a new cursor over all matches and returns the
	// top-ranked one, or nil when nothing matches.
	Query(ctx context.Context, attrs Record) (Record, error)

	// HasPrevResult reports whether PrevResult may be called.
	HasPrevResult() bool

	// HasNextResult reports whether NextResult may be called.
	HasNextResult() bool

	// PrevResult moves the cursor back and returns the newly current record.
	// Returns ErrOutOfBounds when HasPrevResult is false.
	PrevResult(ctx context.Context) (Record, error)

	// NextResult moves the cursor forward and returns the newly current record.
	// Returns ErrOutOfBounds when HasNextResult is false.
	NextResult(ctx context.Context) (Record, error)

	// Retrievable reports whether v can be used as an identifier for Retrieve.
	Retrievable(v any) bool
}
