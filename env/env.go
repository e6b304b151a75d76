// Package env defines the environment contract of the perceive/act loop.
package env

import (
	"context"

	"github.com/zero-day-ai/rlmemory/action"
	"github.com/zero-day-ai/rlmemory/memory"
)

// Environment is a decision-making environment an agent interacts with.
//
// A controller both consumes and implements this interface, so controllers
// can wrap any environment transparently.
type Environment interface {
	// Observation returns what the agent currently perceives.
	Observation() memory.Record

	// Actions returns the legal actions. An empty result signals a terminal state.
	Actions() []action.Action

	// React applies a and returns the reward.
	React(ctx context.Context, a action.Action) (float64, error)

	// Reset restores the initial state.
	Reset(ctx context.Context) error

	// StartNewEpisode begins a new episode.
	StartNewEpisode(ctx context.Context) error

	// EndOfEpisode reports whether the episode is over.
	EndOfEpisode() bool
}
