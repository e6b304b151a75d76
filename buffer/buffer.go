// Package buffer holds the agent-visible working memory: four named,
// capability-tagged attribute mappings.
package buffer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zero-day-ai/rlmemory"
	"github.com/zero-day-ai/rlmemory/memory"
)

// Name identifies a buffer.
type Name string

// The buffers of a controller.
const (
	// Perceptual mirrors the environment's observation.
	Perceptual Name = "perceptual"
	// Query stages the attributes of an associative search.
	Query Name = "query"
	// Retrieval holds the current query or retrieve result.
	Retrieval Name = "retrieval"
	// Scratch is free workspace.
	Scratch Name = "scratch"
)

// ErrNoBuffer is returned when an operation names a buffer that is not part
// of the set, either unknown or ignored.
var ErrNoBuffer = errors.New("buffer: no such buffer")

// Properties are the capabilities of a buffer.
type Properties struct {
	// Copyable buffers can be the source of a copy.
	Copyable bool
	// Writable buffers can be the destination of a copy or the target of a delete.
	Writable bool
}

var properties = map[Name]Properties{
	Perceptual: {Copyable: true, Writable: false},
	Query:      {Copyable: false, Writable: true},
	Retrieval:  {Copyable: true, Writable: false},
	Scratch:    {Copyable: true, Writable: true},
}

// Names returns every buffer name in canonical order.
func Names() []Name {
	return []Name{Perceptual, Query, Retrieval, Scratch}
}

// PropertiesOf returns the capabilities of name.
func PropertiesOf(name Name) (Properties, bool) {
	p, ok := properties[name]
	return p, ok
}

// Parse converts s into a known buffer Name.
func Parse(s string) (Name, error) {
	name := Name(s)
	if _, ok := properties[name]; !ok {
		return "", fmt.Errorf("%q: %w", s, ErrNoBuffer)
	}
	return name, nil
}

// Set is the collection of live buffers. Ignored buffers are never created:
// reads of them see nothing and writes fail with ErrNoBuffer.
type Set struct {
	buffers map[Name]memory.Record
	ignored map[Name]bool
}

// NewSet creates a set with every buffer empty except the ignored ones.
func NewSet(ignored ...Name) *Set {
	s := &Set{ignored: make(map[Name]bool, len(ignored))}
	for _, name := range ignored {
		s.ignored[name] = true
	}
	s.Reset()
	return s
}

// Reset empties every live buffer.
func (s *Set) Reset() {
	s.buffers = make(map[Name]memory.Record, len(properties))
	for _, name := range Names() {
		if s.ignored[name] {
			continue
		}
		s.buffers[name] = memory.Record{}
	}
}

// Has reports whether name is a live buffer.
func (s *Set) Has(name Name) bool {
	_, ok := s.buffers[name]
	return ok
}

// Live returns the live buffer names in canonical order.
func (s *Set) Live() []Name {
	names := make([]Name, 0, len(s.buffers))
	for _, name := range Names() {
		if s.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

// Get returns a copy of the buffer name; nil when it is not live.
func (s *Set) Get(name Name) memory.Record {
	return s.buffers[name].Clone()
}

// Len returns the number of attributes in name.
func (s *Set) Len(name Name) int {
	return len(s.buffers[name])
}

// Empty reports whether name holds no attributes. Buffers that are not live
// are empty.
func (s *Set) Empty(name Name) bool {
	return s.Len(name) == 0
}

// Attrs returns the attribute names of name in sorted order.
func (s *Set) Attrs(name Name) []string {
	return s.buffers[name].Keys()
}

// Value returns name[attr].
func (s *Set) Value(name Name, attr string) (any, bool) {
	return s.buffers[name].Get(attr)
}

// Put sets name[attr] to value.
func (s *Set) Put(name Name, attr string, value any) error {
	buf, ok := s.buffers[name]
	if !ok {
		return rlmemory.NewNotFoundError("Set.Put", fmt.Errorf("%s: %w", name, ErrNoBuffer))
	}
	buf[attr] = value
	return nil
}

// Delete removes name[attr]. An absent attribute fails with
// rlmemory.ErrMissingKey.
func (s *Set) Delete(name Name, attr string) error {
	buf, ok := s.buffers[name]
	if !ok {
		return rlmemory.NewNotFoundError("Set.Delete", fmt.Errorf("%s: %w", name, ErrNoBuffer))
	}
	if _, ok := buf[attr]; !ok {
		return rlmemory.NewNotFoundError("Set.Delete", fmt.Errorf("%s.%s: %w", name, attr, rlmemory.ErrMissingKey))
	}
	delete(buf, attr)
	return nil
}

// Replace sets the contents of name to a copy of rec. Buffers that are not
// live are left alone.
func (s *Set) Replace(name Name, rec memory.Record) {
	if !s.Has(name) {
		return
	}
	clone := rec.Clone()
	if clone == nil {
		clone = memory.Record{}
	}
	s.buffers[name] = clone
}

// Clear empties name.
func (s *Set) Clear(name Name) {
	s.Replace(name, nil)
}

// Flatten renders every live buffer into one record keyed
// "<buffer>_<attribute>". Empty buffers contribute nothing.
func (s *Set) Flatten() memory.Record {
	flat := make(memory.Record)
	for _, slot := range s.Slots() {
		flat[slot.Key()] = slot.Value
	}
	return flat
}

// Slot is one attribute of one buffer.
type Slot struct {
	Buffer Name
	Attr   string
	Value  any
}

// Key is the flattened name of the slot, "<buffer>_<attribute>".
func (s Slot) Key() string {
	return string(s.Buffer) + "_" + s.Attr
}

// Slots returns every attribute of every live buffer, ordered by buffer
// name, then attribute.
func (s *Set) Slots() []Slot {
	names := make([]string, 0, len(s.buffers))
	for name := range s.buffers {
		names = append(names, string(name))
	}
	sort.Strings(names)

	var slots []Slot
	for _, n := range names {
		buf := s.buffers[Name(n)]
		for _, attr := range buf.Keys() {
			slots = append(slots, Slot{Buffer: Name(n), Attr: attr, Value: buf[attr]})
		}
	}
	return slots
}
