// Package memory defines the long-term memory model shared by every knowledge
// store backend: the Record type, the canonical ordering of attribute values,
// identifier generation and the Store contract.
//
// # Records
//
// A Record maps attribute names to values. Values are arbitrary Go values; the
// stores compare them with CompareValues, which defines a total order across
// types so that ranking and tie-breaking are deterministic:
//
//	memory.CompareValues(nil, false)    // -1
//	memory.CompareValues(1, 1.0)        // 0
//	memory.CompareValues(2, "a")        // -1
//
// # Stores
//
// Three backends implement Store:
//
//   - naive: records in insertion order, linear-scan queries, cyclic cursor
//   - graph: nodes with attribute edges, ranked by activation history
//   - remote: a read-only adapter over a SPARQL-style knowledge source
//
// All of them report a miss as a nil Record and a nil error. Operations that
// a backend does not support return ErrNotImplemented:
//
//	if _, err := store.Retrieve(ctx, id); errors.Is(err, memory.ErrNotImplemented) {
//		// this backend has no identifier space
//	}
//
// # Cursors
//
// Query opens a cursor over all matching records. HasPrevResult and
// HasNextResult tell whether PrevResult and NextResult may be called; calling
// them otherwise returns ErrOutOfBounds. A successful Retrieve closes the cursor.
package memory
