// Package grid provides a minimal environment: an agent jumps between the
// cells of a size x size grid until it jumps to the exit cell -1.
package grid

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zero-day-ai/rlmemory"
	"github.com/zero-day-ai/rlmemory/action"
	"github.com/zero-day-ai/rlmemory/env"
	"github.com/zero-day-ai/rlmemory/memory"
)

// Exit is the index that ends an episode.
const Exit = -1

// Rewards returned by React.
const (
	StepReward = -1.0
	ExitReward = 100.0
)

// Env is a grid environment. Its observation is the current cell index.
type Env struct {
	size  int
	start int
	index int
}

// New creates a grid of size x size cells starting at cell start.
func New(size, start int) (*Env, error) {
	if size < 1 {
		return nil, fmt.Errorf("grid size must be positive, got %d: %w", size, rlmemory.ErrInvalidConfig)
	}
	if start < Exit || start >= size*size {
		return nil, fmt.Errorf("start cell %d outside grid of %d cells: %w", start, size*size, rlmemory.ErrInvalidConfig)
	}
	return &Env{size: size, start: start, index: start}, nil
}

var _ env.Environment = (*Env)(nil)

// Size returns the side length of the grid.
func (e *Env) Size() int {
	return e.size
}

// Cells returns one record per cell with its index, row and column.
func (e *Env) Cells() []memory.Record {
	cells := make([]memory.Record, 0, e.size*e.size)
	for i := 0; i < e.size*e.size; i++ {
		cells = append(cells, memory.Record{"index": i, "row": i / e.size, "col": i % e.size})
	}
	return cells
}

// Observation implements env.Environment.
func (e *Env) Observation() memory.Record {
	return memory.Record{"index": e.index}
}

// Actions implements env.Environment: a jump to every cell and to Exit,
// or nothing once the episode is over.
func (e *Env) Actions() []action.Action {
	if e.EndOfEpisode() {
		return nil
	}
	actions := make([]action.Action, 0, e.size*e.size+1)
	for i := Exit; i < e.size*e.size; i++ {
		actions = append(actions, action.Named(strconv.Itoa(i)))
	}
	return actions
}

// React implements env.Environment.
func (e *Env) React(ctx context.Context, a action.Action) (float64, error) {
	if !action.Contains(e.Actions(), a) {
		return 0, rlmemory.NewUsageError("grid.React", rlmemory.ErrIllegalAction).
			WithContext(map[string]any{"action": a.String()})
	}

	index, err := strconv.Atoi(a.Name())
	if err != nil {
		return 0, rlmemory.NewInternalError("grid.React", err)
	}
	e.index = index

	if e.EndOfEpisode() {
		return ExitReward, nil
	}
	return StepReward, nil
}

// Reset implements env.Environment.
func (e *Env) Reset(ctx context.Context) error {
	return e.StartNewEpisode(ctx)
}

// StartNewEpisode implements env.Environment.
func (e *Env) StartNewEpisode(ctx context.Context) error {
	e.index = e.start
	return nil
}

// EndOfEpisode implements env.Environment.
func (e *Env) EndOfEpisode() bool {
	return e.index == Exit
}
