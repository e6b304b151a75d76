// Package graph provides a knowledge store backed by a directed attributed
// graph.
//
// Memory identifiers and attribute values are both nodes; each attribute of a
// stored record is an edge labeled with the attribute name, pointing from the
// identifier to the value. An inverted index maps attribute names to the
// identifiers that carry them.
//
// Every access advances a logical clock and records an activation snapshot,
// 1 at time zero and 1/time afterwards. Query results are ranked by activation
// history, most active first, and navigated with a bounded cursor.
package graph

import (
	"context"
	"fmt"
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

// WithIDGenerator sets the generator used when Store is called with a nil
// identifier. Defaults to memory.UUIDGenerator.
func WithIDGenerator(gen memory.IDGenerator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// WithActivationFunc sets how repeated accesses update a node's activation
// history. Defaults to NoActivation.
func WithActivationFunc(fn ActivationFunc) Option {
	return func(s *Store) {
		s.activate = fn
	}
}

// Store is a graph-backed knowledge store.
type Store struct {
	logger   *slog.Logger
	ids      memory.IDGenerator
	activate ActivationFunc

	graph *arena
	index map[string]map[nodeID]struct{}
	time  int

	// cursor state; results is nil when no query is active
	results []nodeID
	current int
}

// New creates an empty Store.
//
// Example:
//
//	store := graph.New(
//		graph.WithActivationFunc(graph.AppendActivation),
//		graph.WithIDGenerator(memory.NewSequenceGenerator("mem")),
//	)
func New(opts ...Option) *Store {
	s := &Store{
		logger:   slog.Default(),
		ids:      memory.UUIDGenerator{},
		activate: NoActivation,
		graph:    newArena(),
		index:    make(map[string]map[nodeID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ memory.Store = (*Store)(nil)

// Time returns the logical clock.
func (s *Store) Time() int {
	return s.time
}

// Len returns the number of nodes, identifiers and values alike.
func (s *Store) Len() int {
	return s.graph.len()
}

// Activation returns a copy of the activation history of the node keyed by key.
func (s *Store) Activation(key any) ([]Activation, bool) {
	if !memory.Hashable(key) {
		return nil, false
	}
	id, ok := s.graph.lookup(key)
	if !ok {
		return nil, false
	}
	return append([]Activation(nil), s.graph.nodes[id].history...), true
}

// Clear removes every node, edge and index entry and closes the cursor.
// The logical clock keeps running.
func (s *Store) Clear(ctx context.Context) error {
	s.graph = newArena()
	s.index = make(map[string]map[nodeID]struct{})
	s.resetCursor()
	return nil
}

// Store upserts the attributes of attrs on the node id, creating it when
// absent. An attribute already present is overwritten.
// A nil id is replaced by a generated one, which is returned.
//
// The identifier and every value must be hashable; otherwise the store is left
// unchanged and memory.ErrInvalidValue is returned.
func (s *Store) Store(ctx context.Context, id any, attrs memory.Record) (any, error) {
	if id == nil {
		id = s.ids.NewID()
	}
	if !memory.Hashable(id) {
		return nil, fmt.Errorf("store %v: identifier of type %T: %w", id, id, memory.ErrInvalidValue)
	}
	keys := attrs.Keys()
	for _, attr := range keys {
		if v := attrs[attr]; !memory.Hashable(v) {
			return nil, fmt.Errorf("store %v: attribute %q of type %T: %w", id, attr, v, memory.ErrInvalidValue)
		}
	}

	snapshot := s.snapshot()
	from, ok := s.graph.lookup(id)
	if ok {
		s.reinforce(from, snapshot)
	} else {
		from = s.graph.add(id, snapshot)
	}

	for _, attr := range keys {
		v := attrs[attr]
		to, ok := s.graph.lookup(v)
		if !ok {
			to = s.graph.add(v, snapshot)
		}
		s.graph.link(from, attr, to)

		ids, ok := s.index[attr]
		if !ok {
			ids = make(map[nodeID]struct{})
			s.index[attr] = ids
		}
		ids[from] = struct{}{}
	}

	s.tick()
	return id, nil
}

// Retrieve materializes the record of id and reinforces it. Unknown or
// unhashable identifiers are a miss. Every call closes the query cursor.
func (s *Store) Retrieve(ctx context.Context, id any) (memory.Record, error) {
	s.resetCursor()
	if !memory.Hashable(id) {
		return nil, nil
	}
	n, ok := s.graph.lookup(id)
	if !ok {
		return nil, nil
	}

	s.tick()
	s.reinforce(n, s.snapshot())
	return s.graph.record(n), nil
}

// Query finds every identifier whose edges match all attributes of attrs and
// ranks them by descending activation history, breaking ties by ascending
// identifier. The top match is reinforced and returned. An empty query
// matches nothing.
func (s *Store) Query(ctx context.Context, attrs memory.Record) (memory.Record, error) {
	matches := s.match(attrs)
	if len(matches) == 0 {
		s.resetCursor()
		return nil, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := &s.graph.nodes[matches[i]], &s.graph.nodes[matches[j]]
		if c := compareHistory(a.history, b.history); c != 0 {
			return c > 0
		}
		if c := memory.CompareValues(a.key, b.key); c != 0 {
			return c < 0
		}
		return matches[i] < matches[j]
	})

	s.results = matches
	s.current = 0
	s.tick()

	s.logger.Debug("graph query",
		"query", attrs.String(),
		"matches", len(matches),
		"top", s.graph.nodes[matches[0]].key,
		"time", s.time,
	)
	return s.visit(), nil
}

// HasPrevResult reports whether the cursor is past the first match.
func (s *Store) HasPrevResult() bool {
	return s.results != nil && s.current > 0
}

// HasNextResult reports whether the cursor is before the last match.
func (s *Store) HasNextResult() bool {
	return s.results != nil && s.current < len(s.results)-1
}

// PrevResult moves the cursor to the previous match and reinforces it.
func (s *Store) PrevResult(ctx context.Context) (memory.Record, error) {
	if !s.HasPrevResult() {
		return nil, memory.ErrOutOfBounds
	}
	s.current--
	return s.visit(), nil
}

// NextResult moves the cursor to the next match and reinforces it.
func (s *Store) NextResult(ctx context.Context) (memory.Record, error) {
	if !s.HasNextResult() {
		return nil, memory.ErrOutOfBounds
	}
	s.current++
	return s.visit(), nil
}

// Retrievable reports whether v can key a node.
func (s *Store) Retrievable(v any) bool {
	return memory.Hashable(v)
}

// match runs the two-phase search: intersect the inverted index entries of
// every queried attribute, then check each survivor for a matching edge per term.
func (s *Store) match(attrs memory.Record) []nodeID {
	keys := attrs.Keys()
	if len(keys) == 0 {
		return nil
	}

	// start from the smallest posting set
	sort.SliceStable(keys, func(i, j int) bool {
		return len(s.index[keys[i]]) < len(s.index[keys[j]])
	})

	var matches []nodeID
	for candidate := range s.index[keys[0]] {
		ok := true
		for _, attr := range keys[1:] {
			if _, in := s.index[attr][candidate]; !in {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, attr := range keys {
			if !s.graph.hasEdge(candidate, attr, attrs[attr]) {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, candidate)
		}
	}
	return matches
}

// visit reinforces the current match and returns its record.
func (s *Store) visit() memory.Record {
	n := s.results[s.current]
	s.reinforce(n, s.snapshot())
	return s.graph.record(n)
}

func (s *Store) reinforce(n nodeID, snapshot Activation) {
	s.graph.nodes[n].history = s.activate(s.graph.nodes[n].history, snapshot)
}

func (s *Store) snapshot() Activation {
	return Activation{Time: s.time, Value: activationAt(s.time)}
}

func (s *Store) tick() {
	s.time++
}

func (s *Store) resetCursor() {
	s.results = nil
	s.current = 0
}
