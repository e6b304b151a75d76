// Package naive provides the simplest knowledge store: an unindexed list of
// records searched by linear scan.
//
// Query matches are sorted with memory.Record.Compare and navigated with a
// cyclic cursor, so NextResult past the last match wraps to the first one.
// The store has no identifier space: Retrieve is not supported and Store
// returns a nil identifier.
package naive

import (
	"context"
	"log/slog"
	"sort"

	"github.com/zero-day-ai/rlmemory/memory"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store is a list-of-records knowledge store.
type Store struct {
	logger *slog.Logger

	records []memory.Record

	// cursor state; index is -1 when no query is active
	matches []memory.Record
	index   int
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		index:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ memory.Store = (*Store)(nil)

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Clear removes every record and closes the cursor.
func (s *Store) Clear(ctx context.Context) error {
	s.records = nil
	s.resetCursor()
	return nil
}

// Store appends a copy of attrs. The id is ignored and the returned
// identifier is always nil.
func (s *Store) Store(ctx context.Context, id any, attrs memory.Record) (any, error) {
	rec := attrs.Clone()
	if rec == nil {
		rec = memory.Record{}
	}
	s.records = append(s.records, rec)
	return nil, nil
}

// Retrieve is not supported by this backend.
func (s *Store) Retrieve(ctx context.Context, id any) (memory.Record, error) {
	return nil, memory.ErrNotImplemented
}

// Query scans every record for an exact match on all attributes in attrs.
//
// When the currently selected record is still among the new matches the
// cursor stays on it; otherwise it moves to the first match.
func (s *Store) Query(ctx context.Context, attrs memory.Record) (memory.Record, error) {
	var candidates []memory.Record
	for _, rec := range s.records {
		if rec.Matches(attrs) {
			candidates = append(candidates, rec)
		}
	}

	if len(candidates) == 0 {
		s.resetCursor()
		return nil, nil
	}

	current := s.current()
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Compare(candidates[j]) < 0
	})

	s.matches = candidates
	s.index = 0
	if current != nil {
		for i, rec := range candidates {
			if rec.Equal(current) {
				s.index = i
				break
			}
		}
	}

	s.logger.Debug("naive query",
		"query", attrs.String(),
		"matches", len(s.matches),
		"index", s.index,
	)
	return s.current().Clone(), nil
}

// HasPrevResult reports whether a cursor is active. Navigation wraps, so
// every active cursor has a previous result.
func (s *Store) HasPrevResult() bool {
	return s.index >= 0
}

// HasNextResult reports whether a cursor is active.
func (s *Store) HasNextResult() bool {
	return s.index >= 0
}

// PrevResult moves the cursor back one match, wrapping to the last match.
func (s *Store) PrevResult(ctx context.Context) (memory.Record, error) {
	return s.step(-1)
}

// NextResult moves the cursor forward one match, wrapping to the first match.
func (s *Store) NextResult(ctx context.Context) (memory.Record, error) {
	return s.step(1)
}

// Retrievable always reports false: there is no identifier space.
func (s *Store) Retrievable(v any) bool {
	return false
}

func (s *Store) step(delta int) (memory.Record, error) {
	if s.index < 0 {
		return nil, memory.ErrOutOfBounds
	}
	n := len(s.matches)
	s.index = ((s.index+delta)%n + n) % n
	return s.current().Clone(), nil
}

func (s *Store) current() memory.Record {
	if s.index < 0 {
		return nil
	}
	return s.matches[s.index]
}

func (s *Store) resetCursor() {
	s.matches = nil
	s.index = -1
}
