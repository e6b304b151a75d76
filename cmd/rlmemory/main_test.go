package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/rlmemory"
	"github.com/zero-day-ai/rlmemory/action"
	"github.com/zero-day-ai/rlmemory/config"
	"github.com/zero-day-ai/rlmemory/controller"
	"github.com/zero-day-ai/rlmemory/env/grid"
	"github.com/zero-day-ai/rlmemory/memory/graph"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunEpisodes(t *testing.T) {
	ctx := context.Background()
	env, err := grid.New(3, 0)
	require.NoError(t, err)
	ctrl, err := controller.New(env, controller.WithStore(graph.New()), controller.WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, preloadCells(ctx, ctrl, env))

	exit := action.Named("-1")
	exitPolicy := func(actions []action.Action) action.Action {
		require.Contains(t, actions, exit)
		return exit
	}

	rewards, err := runEpisodes(ctx, ctrl, exitPolicy, 3, 10, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []float64{grid.ExitReward, grid.ExitReward, grid.ExitReward}, rewards)
}

func TestRunEpisodes_StepLimit(t *testing.T) {
	ctx := context.Background()
	env, err := grid.New(3, 0)
	require.NoError(t, err)
	ctrl, err := controller.New(env, controller.WithLogger(discardLogger()))
	require.NoError(t, err)

	stay := func(actions []action.Action) action.Action { return action.Named("4") }
	rewards, err := runEpisodes(ctx, ctrl, stay, 1, 5, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []float64{5 * grid.StepReward}, rewards)
	assert.False(t, ctrl.EndOfEpisode())
}

func TestRandomPolicy_Deterministic(t *testing.T) {
	actions := []action.Action{action.Named("a"), action.Named("b"), action.Named("c")}
	a, b := randomPolicy(7), randomPolicy(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a(actions), b(actions))
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rlmemory.yaml"), []byte("grid:\n  size: 4\n"), 0o644))
	t.Setenv("RLMEMORY_STORE_TYPE", "graph")
	t.Setenv("RLMEMORY_CONTROLLER_INTERNAL_REWARD", "-0.25")

	v := newViper()
	v.Set("config", dir)
	v.Set("controller.max_internal_actions", 2)

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, config.StoreGraph, cfg.Store.Type)
	assert.Equal(t, -0.25, cfg.Controller.InternalReward)
	assert.Equal(t, 2, cfg.Controller.MaxInternalActions)
	assert.Equal(t, 4, cfg.Grid.Size)
}

func TestRootCmd_Run(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"run", "--store", "graph", "--grid-size", "3", "--episodes", "2", "--max-steps", "20", "--log-level", "error"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "episode 1: reward")
	assert.Contains(t, out.String(), "episode 2: reward")
}

func TestScriptedPolicy(t *testing.T) {
	script, err := parseScript([]string{
		"copy(dst_attr=index, dst_buf=query, src_attr=index, src_buf=perceptual)",
		"next-result",
	})
	require.NoError(t, err)

	fallback := func(actions []action.Action) action.Action { return actions[0] }
	policy := scriptedPolicy(script, fallback)
	legal := []action.Action{action.Named("0")}

	assert.Equal(t, action.Copy("perceptual", "index", "query", "index"), policy(legal))
	assert.Equal(t, action.NextResult(), policy(legal))
	assert.Equal(t, action.Named("0"), policy(legal))

	_, err = parseScript([]string{"copy(src_buf"})
	assert.ErrorIs(t, err, action.ErrSyntax)
}

func TestRootCmd_RunReplay(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"run", "--store", "naive", "--grid-size", "3", "--episodes", "1", "--log-level", "error",
		"--action", "copy(dst_attr=index, dst_buf=query, src_attr=index, src_buf=perceptual)",
		"--action", "-1",
	})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "episode 1: reward 99.90")
}

func TestRootCmd_RunReplayIllegal(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"run", "--grid-size", "3", "--episodes", "1", "--log-level", "error", "--action", "next-result"})

	err := root.Execute()
	assert.ErrorIs(t, err, rlmemory.ErrIllegalAction)
}

func TestRootCmd_Config(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "--store", "graph"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "type: graph")
}

func TestRootCmd_InvalidStore(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"config", "--store", "sql"})

	assert.Error(t, root.Execute())
}
