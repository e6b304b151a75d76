package memory

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator creates identifiers for records stored without one.
type IDGenerator interface {
	// NewID returns an identifier that has not been returned before by this generator.
	// The result must be usable as a map key.
	NewID() any
}

// IDGeneratorFunc adapts an ordinary function to the IDGenerator interface.
type IDGeneratorFunc func() any

// NewID calls f.
func (f IDGeneratorFunc) NewID() any { return f() }

// UUIDGenerator generates random version 4 UUID strings.
// It is the default generator of the graph store.
type UUIDGenerator struct{}

// NewID returns a fresh UUID string, e.g. "9b2c1f0e-...".
func (UUIDGenerator) NewID() any {
	return uuid.NewString()
}

// SequenceGenerator generates deterministic identifiers of the form
// "<prefix>-<n>" with n counting up from 1. Useful in tests and replays
// where identifiers must be stable between runs.
//
// Example:
//
//	gen := memory.NewSequenceGenerator("mem")
//	gen.NewID() // "mem-1"
//	gen.NewID() // "mem-2"
type SequenceGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewSequenceGenerator creates a SequenceGenerator. An empty prefix defaults to "id".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID() any {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
