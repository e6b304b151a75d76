package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/rlmemory/memory"
)

// storeAnimals loads the animal taxonomy used across these tests.
func storeAnimals(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	steps := []struct {
		id    any
		attrs memory.Record
	}{
		{"cat", memory.Record{"is_a": "mammal", "has": "fur", "name": "cat"}},
		{"bear", memory.Record{"is_a": "mammal", "has": "fur", "name": "bear"}},
		{"whale", memory.Record{"is_a": "mammal", "lives_in": "water"}},
		{"whale", memory.Record{"name": "whale"}},
		{"fish", memory.Record{"is_a": "animal", "lives_in": "water"}},
		{"mammal", memory.Record{"has": "vertebra", "is_a": "animal"}},
	}
	for _, step := range steps {
		id, err := s.Store(ctx, step.id, step.attrs)
		require.NoError(t, err)
		require.Equal(t, step.id, id)
	}
}

func TestStore_AnimalScenario(t *testing.T) {
	activations := []struct {
		name string
		fn   ActivationFunc
	}{
		{name: "no activation", fn: NoActivation},
		{name: "append activation", fn: AppendActivation},
		{name: "bounded activation", fn: BoundedActivation(8)},
	}

	for _, tt := range activations {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := New(WithActivationFunc(tt.fn))
			storeAnimals(t, s)

			result, err := s.Retrieve(ctx, "whale")
			require.NoError(t, err)
			assert.Equal(t, memory.Record{"is_a": "mammal", "lives_in": "water", "name": "whale"}, result)

			result, err = s.Query(ctx, memory.Record{"has": "vertebra", "lives_in": "water"})
			require.NoError(t, err)
			assert.Nil(t, result)

			result, err = s.Query(ctx, memory.Record{"has": "vertebra"})
			require.NoError(t, err)
			assert.Equal(t, memory.Record{"has": "vertebra", "is_a": "animal"}, result)

			_, err = s.Store(ctx, "cat", nil)
			require.NoError(t, err)

			result, err = s.Query(ctx, memory.Record{"is_a": "mammal"})
			require.NoError(t, err)
			assert.Equal(t, "whale", result["name"])
			assert.False(t, s.HasPrevResult())
			require.True(t, s.HasNextResult())

			result, err = s.NextResult(ctx)
			require.NoError(t, err)
			assert.Equal(t, "bear", result["name"])
			require.True(t, s.HasNextResult())

			result, err = s.NextResult(ctx)
			require.NoError(t, err)
			assert.Equal(t, "cat", result["name"])
			assert.False(t, s.HasNextResult())
			require.True(t, s.HasPrevResult())

			result, err = s.PrevResult(ctx)
			require.NoError(t, err)
			assert.Equal(t, "bear", result["name"])
			require.True(t, s.HasPrevResult())

			result, err = s.PrevResult(ctx)
			require.NoError(t, err)
			assert.Equal(t, "whale", result["name"])
			assert.False(t, s.HasPrevResult())
		})
	}
}

func TestStore_ActivationHistory(t *testing.T) {
	ctx := context.Background()
	s := New(WithActivationFunc(AppendActivation))
	storeAnimals(t, s)
	assert.Equal(t, 6, s.Time())

	_, err := s.Retrieve(ctx, "whale")
	require.NoError(t, err)
	assert.Equal(t, 7, s.Time())

	history, ok := s.Activation("whale")
	require.True(t, ok)
	assert.Equal(t, []Activation{
		{Time: 2, Value: 0.5},
		{Time: 3, Value: 0.33},
		{Time: 7, Value: 0.14},
	}, history)

	// value nodes get a creation snapshot and are reinforced when stored as identifiers
	history, ok = s.Activation("mammal")
	require.True(t, ok)
	assert.Equal(t, []Activation{
		{Time: 0, Value: 1},
		{Time: 5, Value: 0.2},
	}, history)

	_, ok = s.Activation("unicorn")
	assert.False(t, ok)
}

func TestStore_NavigationDoesNotAdvanceClock(t *testing.T) {
	ctx := context.Background()
	s := New(WithActivationFunc(AppendActivation))
	storeAnimals(t, s)

	_, err := s.Query(ctx, memory.Record{"is_a": "mammal"})
	require.NoError(t, err)
	before := s.Time()

	_, err = s.NextResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, s.Time())

	history, ok := s.Activation("bear")
	require.True(t, ok)
	assert.Equal(t, Activation{Time: before, Value: activationAt(before)}, history[len(history)-1])
}

func TestStore_FailedQueryClosesCursor(t *testing.T) {
	ctx := context.Background()
	s := New()
	storeAnimals(t, s)

	_, err := s.Query(ctx, memory.Record{"is_a": "mammal"})
	require.NoError(t, err)
	require.True(t, s.HasNextResult())
	before := s.Time()

	result, err := s.Query(ctx, memory.Record{"is_a": "reptile"})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, s.HasNextResult())
	assert.False(t, s.HasPrevResult())
	assert.Equal(t, before, s.Time(), "a miss does not advance the clock")

	_, err = s.NextResult(ctx)
	assert.ErrorIs(t, err, memory.ErrOutOfBounds)
	_, err = s.PrevResult(ctx)
	assert.ErrorIs(t, err, memory.ErrOutOfBounds)
}

func TestStore_RetrieveClosesCursor(t *testing.T) {
	ctx := context.Background()
	s := New()
	storeAnimals(t, s)

	_, err := s.Query(ctx, memory.Record{"is_a": "mammal"})
	require.NoError(t, err)
	require.True(t, s.HasNextResult())

	_, err = s.Retrieve(ctx, "fish")
	require.NoError(t, err)
	assert.False(t, s.HasNextResult())
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		query memory.Record
		want  memory.Record
	}{
		{name: "empty query", query: memory.Record{}, want: nil},
		{name: "unknown attribute", query: memory.Record{"color": "red"}, want: nil},
		{name: "attribute collision", query: memory.Record{"is_a": "water"}, want: nil},
		{
			name:  "two attributes",
			query: memory.Record{"is_a": "animal", "lives_in": "water"},
			want:  memory.Record{"is_a": "animal", "lives_in": "water"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			storeAnimals(t, s)

			got, err := s.Query(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_TiesBrokenByIdentifier(t *testing.T) {
	ctx := context.Background()
	s := New()

	// later creation ranks first
	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Store(ctx, id, memory.Record{"kind": "letter"})
		require.NoError(t, err)
	}

	got, err := s.Query(ctx, memory.Record{"kind": "letter"})
	require.NoError(t, err)
	assert.Equal(t, memory.Record{"kind": "letter"}, got)

	var order []any
	for _, id := range s.results {
		order = append(order, s.graph.nodes[id].key)
	}
	assert.Equal(t, []any{"b", "a", "c"}, order)

	// identical histories fall back to identifier order
	s2 := New()
	for _, id := range []string{"c", "a", "b"} {
		s2.graph.add(id, Activation{Time: 0, Value: 1})
	}
	for _, id := range []string{"c", "a", "b"} {
		n, _ := s2.graph.lookup(id)
		v, ok := s2.graph.lookup("letter")
		if !ok {
			v = s2.graph.add("letter", Activation{Time: 0, Value: 1})
		}
		s2.graph.link(n, "kind", v)
		if s2.index["kind"] == nil {
			s2.index["kind"] = make(map[nodeID]struct{})
		}
		s2.index["kind"][n] = struct{}{}
	}

	_, err = s2.Query(ctx, memory.Record{"kind": "letter"})
	require.NoError(t, err)
	order = order[:0]
	for _, id := range s2.results {
		order = append(order, s2.graph.nodes[id].key)
	}
	assert.Equal(t, []any{"a", "b", "c"}, order)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(WithIDGenerator(memory.NewSequenceGenerator("mem")))

	attrs := memory.Record{"index": 9, "row": 1, "col": 4, "label": "nine"}
	id, err := s.Store(ctx, nil, attrs)
	require.NoError(t, err)
	assert.Equal(t, "mem-1", id)

	got, err := s.Retrieve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, attrs, got)

	id, err = s.Store(ctx, nil, memory.Record{"index": 10})
	require.NoError(t, err)
	assert.Equal(t, "mem-2", id)
}

func TestStore_GeneratedIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Store(ctx, nil, memory.Record{"a": 1})
	require.NoError(t, err)
	require.IsType(t, "", id)
	assert.Len(t, id, 36)
}

func TestStore_Retrieve(t *testing.T) {
	ctx := context.Background()
	s := New()
	storeAnimals(t, s)

	tests := []struct {
		name string
		id   any
		want memory.Record
	}{
		{name: "known identifier", id: "fish", want: memory.Record{"is_a": "animal", "lives_in": "water"}},
		{name: "value node without edges", id: "water", want: memory.Record{}},
		{name: "unknown identifier", id: "unicorn", want: nil},
		{name: "unhashable identifier", id: []string{"cat"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Retrieve(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_RestoreOverwritesAttribute(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Store(ctx, "x", memory.Record{"color": "red", "size": 1})
	require.NoError(t, err)
	_, err = s.Store(ctx, "x", memory.Record{"color": "blue"})
	require.NoError(t, err)

	got, err := s.Retrieve(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, memory.Record{"color": "blue", "size": 1}, got)

	got, err = s.Query(ctx, memory.Record{"color": "red"})
	require.NoError(t, err)
	assert.Nil(t, got, "overwritten value no longer matches")

	for _, query := range []memory.Record{
		{"color": "blue"},
		{"size": 1},
		{"color": "blue", "size": 1},
	} {
		got, err := s.Query(ctx, query)
		require.NoError(t, err)
		require.NotNil(t, got, "query %s", query)
		assert.True(t, got.Matches(query), "%s does not satisfy %s", got, query)
	}
}

func TestStore_RetrieveMissClosesCursor(t *testing.T) {
	ctx := context.Background()
	s := New()
	storeAnimals(t, s)

	_, err := s.Query(ctx, memory.Record{"is_a": "mammal"})
	require.NoError(t, err)
	require.True(t, s.HasNextResult())

	got, err := s.Retrieve(ctx, "unicorn")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, s.HasNextResult())
	assert.False(t, s.HasPrevResult())

	_, err = s.NextResult(ctx)
	assert.ErrorIs(t, err, memory.ErrOutOfBounds)
}

func TestStore_InvalidValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Store(ctx, []int{1}, memory.Record{"a": 1})
	assert.ErrorIs(t, err, memory.ErrInvalidValue)

	_, err = s.Store(ctx, "x", memory.Record{"tags": []string{"a"}})
	assert.ErrorIs(t, err, memory.ErrInvalidValue)

	nested := [1]any{[]int{1}}
	assert.False(t, s.Retrievable(nested))
	_, err = s.Store(ctx, "x", memory.Record{"a": nested})
	assert.ErrorIs(t, err, memory.ErrInvalidValue)
	_, err = s.Store(ctx, nested, memory.Record{"a": 1})
	assert.ErrorIs(t, err, memory.ErrInvalidValue)

	got, err := s.Retrieve(ctx, nested)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Zero(t, s.Len(), "a rejected store leaves the graph unchanged")
	assert.Zero(t, s.Time())
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := New()
	storeAnimals(t, s)

	_, err := s.Query(ctx, memory.Record{"is_a": "mammal"})
	require.NoError(t, err)
	clock := s.Time()

	require.NoError(t, s.Clear(ctx))
	assert.Zero(t, s.Len())
	assert.False(t, s.HasNextResult())
	assert.Equal(t, clock, s.Time())

	got, err := s.Retrieve(ctx, "cat")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Retrievable(t *testing.T) {
	s := New()

	assert.True(t, s.Retrievable("cat"))
	assert.True(t, s.Retrievable(42))
	assert.False(t, s.Retrievable(nil))
	assert.False(t, s.Retrievable(map[string]int{}))
}
