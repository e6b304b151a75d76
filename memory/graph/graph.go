package graph

import "github.com/zero-day-ai/rlmemory/memory"

// nodeID indexes a node in the arena.
type nodeID int

// edge is an attribute-labeled link from an identifier node to a value node.
type edge struct {
	label string
	to    nodeID
}

// node is either a memory identifier or an attribute value. The same key may
// serve as both.
type node struct {
	key     any
	history []Activation
	out     []edge
}

// arena is a directed graph whose nodes live in a slice and are addressed by
// position; keys are mapped to positions through byKey. A node carries at
// most one outgoing edge per label.
type arena struct {
	nodes []node
	byKey map[any]nodeID
}

func newArena() *arena {
	return &arena{byKey: make(map[any]nodeID)}
}

// lookup returns the node for key. key must be hashable.
func (a *arena) lookup(key any) (nodeID, bool) {
	id, ok := a.byKey[key]
	return id, ok
}

// add creates a node for key with an initial history.
func (a *arena) add(key any, initial Activation) nodeID {
	id := nodeID(len(a.nodes))
	a.nodes = append(a.nodes, node{key: key, history: []Activation{initial}})
	a.byKey[key] = id
	return id
}

// link sets the edge from -label-> to, replacing any edge with the same label.
func (a *arena) link(from nodeID, label string, to nodeID) {
	out := a.nodes[from].out
	for i := range out {
		if out[i].label == label {
			out[i].to = to
			return
		}
	}
	a.nodes[from].out = append(out, edge{label: label, to: to})
}

// hasEdge reports whether from carries an edge labeled label whose target
// equals value.
func (a *arena) hasEdge(from nodeID, label string, value any) bool {
	for _, e := range a.nodes[from].out {
		if e.label == label && memory.EqualValues(a.nodes[e.to].key, value) {
			return true
		}
	}
	return false
}

// record materializes the outgoing edges of id.
func (a *arena) record(id nodeID) memory.Record {
	rec := make(memory.Record, len(a.nodes[id].out))
	for _, e := range a.nodes[id].out {
		rec[e.label] = a.nodes[e.to].key
	}
	return rec
}

func (a *arena) len() int {
	return len(a.nodes)
}
