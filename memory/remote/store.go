// Package remote adapts a remote associative knowledge source, such as a
// SPARQL endpoint, to the memory.Store contract.
//
// The store is read-only. Retrieve fetches every attribute of an identifier;
// Query asks the source for the first identifier, in name order, that carries
// all queried attributes and then retrieves it. Results are memoized in a
// Cache keyed by identifier and by the sorted attribute tuple.
//
// Pagination re-issues the match query with a moving offset instead of
// holding a match list, so HasNextResult only knows that a query is active:
// stepping past the last match yields a miss.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/rlmemory/memory"
)

// DefaultBadValues are result values dropped from retrieved records.
var DefaultBadValues = []string{
	`"NAN"^^<http://www.w3.org/2001/XMLSchema#double>`,
	`"NAN"^^<http://www.w3.org/2001/XMLSchema#float>`,
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTracer sets the tracer wrapping every source query. Defaults to a noop tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

// WithBuilder sets the query builder. Defaults to SPARQLBuilder.
func WithBuilder(builder QueryBuilder) Option {
	return func(s *Store) {
		s.builder = builder
	}
}

// WithAugments appends augments applied, in order, to every freshly
// retrieved record.
func WithAugments(augments ...Augment) Option {
	return func(s *Store) {
		s.augments = append(s.augments, augments...)
	}
}

// WithRetrieveCache sets the cache for retrieved records. Defaults to a MapCache.
func WithRetrieveCache(cache Cache) Option {
	return func(s *Store) {
		s.retrieveCache = cache
	}
}

// WithQueryCache sets the cache for match results. Defaults to a MapCache.
func WithQueryCache(cache Cache) Option {
	return func(s *Store) {
		s.queryCache = cache
	}
}

// WithBadValues replaces the list of values dropped from retrieved records.
func WithBadValues(values ...string) Option {
	return func(s *Store) {
		s.badValues = make(map[string]struct{}, len(values))
		for _, v := range values {
			s.badValues[v] = struct{}{}
		}
	}
}

// Store is a memory.Store backed by a remote Source.
type Store struct {
	source        Source
	builder       QueryBuilder
	augments      []Augment
	badValues     map[string]struct{}
	retrieveCache Cache
	queryCache    Cache
	logger        *slog.Logger
	tracer        trace.Tracer

	// cursor state; prevQuery is nil when no query is active
	prevQuery memory.Record
	offset    int
}

// New creates a Store over source.
//
// Example:
//
//	store := remote.New(remote.NewSPARQLEndpoint("https://dbpedia.org/sparql"))
//	rec, err := store.Retrieve(ctx, "<http://dbpedia.org/resource/The_Wall>")
func New(source Source, opts ...Option) *Store {
	s := &Store{
		source:        source,
		builder:       SPARQLBuilder{},
		retrieveCache: NewMapCache(),
		queryCache:    NewMapCache(),
		logger:        slog.Default(),
		tracer:        noop.NewTracerProvider().Tracer("rlmemory.remote"),
	}
	WithBadValues(DefaultBadValues...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ memory.Store = (*Store)(nil)

// Clear is not supported: the source is read-only.
func (s *Store) Clear(ctx context.Context) error {
	return memory.ErrNotImplemented
}

// Store is not supported: the source is read-only.
func (s *Store) Store(ctx context.Context, id any, attrs memory.Record) (any, error) {
	return nil, memory.ErrNotImplemented
}

// Flush drops both memo caches.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.retrieveCache.Clear(ctx); err != nil {
		return fmt.Errorf("flush retrieve cache: %w", err)
	}
	if err := s.queryCache.Clear(ctx); err != nil {
		return fmt.Errorf("flush query cache: %w", err)
	}
	return nil
}

// Retrieve fetches the record of id and closes the query cursor.
// id must satisfy Retrievable; anything else fails with memory.ErrInvalidID
// without contacting the source.
func (s *Store) Retrieve(ctx context.Context, id any) (memory.Record, error) {
	if !s.Retrievable(id) {
		return nil, fmt.Errorf("identifier should be a string of the form <http...>, got %v: %w", id, memory.ErrInvalidID)
	}

	rec, err := s.retrieve(ctx, id.(string))
	if err != nil {
		return nil, err
	}
	s.resetCursor()
	return rec, nil
}

// Query finds the first identifier, in name order, carrying every attribute
// of attrs, and retrieves it. A miss, including an empty query, closes the
// cursor and returns nil.
func (s *Store) Query(ctx context.Context, attrs memory.Record) (memory.Record, error) {
	if len(attrs) == 0 {
		s.resetCursor()
		return nil, nil
	}

	id, err := s.match(ctx, attrs, 0)
	if err != nil {
		return nil, err
	}
	if id == "" {
		s.resetCursor()
		return nil, nil
	}

	rec, err := s.retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	s.prevQuery = attrs.Clone()
	s.offset = 0
	return rec, nil
}

// HasPrevResult reports whether a query is active and past its first match.
func (s *Store) HasPrevResult() bool {
	return s.prevQuery != nil && s.offset > 0
}

// HasNextResult reports whether a query is active.
func (s *Store) HasNextResult() bool {
	return s.prevQuery != nil
}

// PrevResult re-issues the active query one offset back.
func (s *Store) PrevResult(ctx context.Context) (memory.Record, error) {
	if !s.HasPrevResult() {
		return nil, memory.ErrOutOfBounds
	}
	return s.page(ctx, s.offset-1)
}

// NextResult re-issues the active query one offset forward. Stepping past
// the last match returns nil; the cursor still moves, so PrevResult leads back.
func (s *Store) NextResult(ctx context.Context) (memory.Record, error) {
	if !s.HasNextResult() {
		return nil, memory.ErrOutOfBounds
	}
	return s.page(ctx, s.offset+1)
}

// Retrievable reports whether v is a string of the form <http...>.
func (s *Store) Retrievable(v any) bool {
	id, ok := v.(string)
	return ok && strings.HasPrefix(id, "<http") && strings.HasSuffix(id, ">")
}

func (s *Store) page(ctx context.Context, offset int) (memory.Record, error) {
	id, err := s.match(ctx, s.prevQuery, offset)
	if err != nil {
		return nil, err
	}
	s.offset = offset
	if id == "" {
		return nil, nil
	}
	return s.retrieve(ctx, id)
}

// retrieve returns the memoized record of id, fetching and augmenting it on
// a cache miss.
func (s *Store) retrieve(ctx context.Context, id string) (memory.Record, error) {
	if b, ok, err := s.retrieveCache.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("read retrieve cache: %w", err)
	} else if ok {
		return decodeRecord(b)
	}

	bindings, err := s.execute(ctx, "retrieve", s.builder.RetrieveQuery(id))
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", id, err)
	}

	rec := s.collapse(bindings)
	for _, aug := range s.augments {
		aug.Apply(rec)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", id, err)
	}
	if err := s.retrieveCache.Set(ctx, id, b); err != nil {
		return nil, fmt.Errorf("write retrieve cache: %w", err)
	}
	return decodeRecord(b)
}

// collapse folds bindings into a record, keeping the largest canonical value
// of each attribute and dropping bad values. Largest-wins is a heuristic kept
// for compatibility; other backends should not copy it.
func (s *Store) collapse(bindings []Binding) memory.Record {
	values := make(map[string]string)
	for _, b := range bindings {
		attr, ok := b[VarAttr]
		if !ok {
			continue
		}
		value, ok := b[VarValue]
		if !ok {
			continue
		}
		v := value.Canonical()
		if _, bad := s.badValues[v]; bad {
			continue
		}
		a := attr.Canonical()
		if cur, ok := values[a]; !ok || v > cur {
			values[a] = v
		}
	}

	rec := make(memory.Record, len(values))
	for a, v := range values {
		rec[a] = v
	}
	return rec
}

// matchResult is the cached outcome of a match query.
type matchResult struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
}

// match returns the identifier at offset among the matches of attrs, or ""
// when there is none.
func (s *Store) match(ctx context.Context, attrs memory.Record, offset int) (string, error) {
	key, err := queryKey(attrs, offset)
	if err != nil {
		return "", err
	}

	if b, ok, err := s.queryCache.Get(ctx, key); err != nil {
		return "", fmt.Errorf("read query cache: %w", err)
	} else if ok {
		var res matchResult
		if err := json.Unmarshal(b, &res); err != nil {
			return "", fmt.Errorf("decode cached match: %w", err)
		}
		return res.ID, nil
	}

	bindings, err := s.execute(ctx, "match", s.builder.MatchQuery(attrs, offset))
	if err != nil {
		return "", fmt.Errorf("query %s: %w", attrs, err)
	}

	var res matchResult
	for _, b := range bindings {
		if concept, ok := b[VarConcept]; ok {
			res = matchResult{ID: concept.Canonical(), Found: true}
			break
		}
	}

	b, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode match: %w", err)
	}
	if err := s.queryCache.Set(ctx, key, b); err != nil {
		return "", fmt.Errorf("write query cache: %w", err)
	}
	return res.ID, nil
}

// execute runs one source query inside a span.
func (s *Store) execute(ctx context.Context, kind, query string) ([]Binding, error) {
	ctx, span := s.tracer.Start(ctx, "rlmemory.remote.execute_query",
		trace.WithAttributes(attribute.String("rlmemory.query.kind", kind)),
	)
	defer span.End()

	bindings, err := s.source.ExecuteQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if !errors.Is(err, memory.ErrSourceFailed) {
			err = fmt.Errorf("%w: %w", memory.ErrSourceFailed, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("rlmemory.query.bindings", len(bindings)))
	span.SetStatus(codes.Ok, "")
	s.logger.Debug("remote query", "kind", kind, "bindings", len(bindings))
	return bindings, nil
}

// queryKey is the cache key of a match query: the sorted attribute tuple
// plus the offset.
func queryKey(attrs memory.Record, offset int) (string, error) {
	terms := make([][2]string, 0, len(attrs))
	for _, attr := range attrs.Keys() {
		terms = append(terms, [2]string{attr, fmt.Sprint(attrs[attr])})
	}
	b, err := json.Marshal(struct {
		Terms  [][2]string `json:"terms"`
		Offset int         `json:"offset"`
	}{terms, offset})
	if err != nil {
		return "", fmt.Errorf("encode query key: %w", err)
	}
	return string(b), nil
}

func decodeRecord(b []byte) (memory.Record, error) {
	var rec memory.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec == nil {
		rec = memory.Record{}
	}
	return rec, nil
}

func (s *Store) resetCursor() {
	s.prevQuery = nil
	s.offset = 0
}
