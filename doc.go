// Package rlmemory adds a structured long-term memory to a decision-making
// agent's perceive/act loop.
//
// A memory-augmented controller wraps an environment, exposes a small set of
// typed buffers the agent can read and write, and compiles a legal action set
// made of the environment's native actions plus internal memory operations.
// Associative search and retrieval are delegated to a pluggable knowledge store.
//
// # Packages
//
//   - memory: records, canonical value ordering and the Store contract
//   - memory/naive: linear-scan store with a cyclic cursor
//   - memory/graph: graph store ranked by activation with a bounded cursor
//   - memory/remote: adapter over a remote associative knowledge source
//   - action: immutable, comparable action values
//   - buffer: buffer names, capabilities and the buffer set
//   - env: the environment contract the controller consumes and implements
//   - controller: action generation and interpretation
//   - config: YAML configuration for controller and store
//
// # Getting Started
//
//	store := graph.New()
//	ctrl := controller.New(myEnv, controller.WithStore(store))
//	if err := ctrl.StartNewEpisode(ctx); err != nil {
//		return err
//	}
//	for !ctrl.EndOfEpisode() {
//		actions := ctrl.Actions()
//		reward, err := ctrl.React(ctx, policy(ctrl.Observation(), actions))
//		if err != nil {
//			return err
//		}
//		_ = reward
//	}
//
// # Observation
//
// The agent sees memory state only through Observation, which flattens every
// buffer into "<buffer>_<attribute>" keys. Empty buffers contribute no keys.
//
// # Error Handling
//
// Errors are wrapped in *Error with an operation and a kind, and wrap the
// sentinel errors of this package or of package memory:
//
//	if errors.Is(err, rlmemory.ErrIllegalAction) {
//		// the policy submitted an action that was not offered
//	}
package rlmemory
