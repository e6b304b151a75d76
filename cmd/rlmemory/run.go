package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zero-day-ai/rlmemory/action"
	"github.com/zero-day-ai/rlmemory/controller"
	"github.com/zero-day-ai/rlmemory/env/grid"
	"github.com/zero-day-ai/rlmemory/memory"
)

// Policy picks one of the legal actions.
type Policy func(actions []action.Action) action.Action

// randomPolicy picks uniformly with a seeded generator.
func randomPolicy(seed uint64) Policy {
	rng := rand.New(rand.NewPCG(seed, seed))
	return func(actions []action.Action) action.Action {
		return actions[rng.IntN(len(actions))]
	}
}

// scriptedPolicy plays script in order, then defers to fallback. Scripted
// actions are played whether or not they are legal, so React reports the
// first illegal one.
func scriptedPolicy(script []action.Action, fallback Policy) Policy {
	next := 0
	return func(actions []action.Action) action.Action {
		if next < len(script) {
			a := script[next]
			next++
			return a
		}
		return fallback(actions)
	}
}

// parseScript parses replayed actions written as Action.String renders them.
func parseScript(lines []string) ([]action.Action, error) {
	script := make([]action.Action, 0, len(lines))
	for _, line := range lines {
		a, err := action.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("--action: %w", err)
		}
		script = append(script, a)
	}
	return script, nil
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	var (
		episodes int
		maxSteps int
		seed     uint64
		preload  bool
		replay   []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run random-policy episodes on the grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(v.GetString("log.level"))
			if err != nil {
				return err
			}
			script, err := parseScript(replay)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			store, closeStore, err := cfg.NewStore(logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					logger.Warn("failed to close store", "error", err)
				}
			}()

			env, err := cfg.NewEnvironment()
			if err != nil {
				return err
			}
			ctrl, err := controller.New(env, cfg.ControllerOptions(store, logger)...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if preload {
				if err := preloadCells(ctx, ctrl, env); err != nil {
					return err
				}
			}

			rewards, err := runEpisodes(ctx, ctrl, scriptedPolicy(script, randomPolicy(seed)), episodes, maxSteps, logger)
			if err != nil {
				return err
			}
			for i, r := range rewards {
				fmt.Fprintf(cmd.OutOrStdout(), "episode %d: reward %.2f\n", i+1, r)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&episodes, "episodes", 10, "number of episodes")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 200, "step limit per episode")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random policy seed")
	cmd.Flags().BoolVar(&preload, "preload", true, "store every grid cell in long-term memory first")
	cmd.Flags().StringArrayVar(&replay, "action", nil, "action to play before the random policy takes over, e.g. \"copy(dst_attr=index, dst_buf=query, src_attr=index, src_buf=perceptual)\" (repeatable)")
	return cmd
}

// preloadCells stores one memory element per grid cell. Stores without an
// identifier space are given nil identifiers; read-only stores are skipped.
func preloadCells(ctx context.Context, ctrl *controller.Controller, env *grid.Env) error {
	for i, cell := range env.Cells() {
		var id any
		if ctrl.Store().Retrievable(i) {
			id = i
		}
		if _, err := ctrl.AddToLTM(ctx, id, cell); err != nil {
			if errors.Is(err, memory.ErrNotImplemented) {
				return nil
			}
			return fmt.Errorf("preload cell %d: %w", i, err)
		}
	}
	return nil
}

// runEpisodes plays episodes until each ends or reaches maxSteps, returning
// the total reward of each.
func runEpisodes(ctx context.Context, ctrl *controller.Controller, policy Policy, episodes, maxSteps int, logger *slog.Logger) ([]float64, error) {
	rewards := make([]float64, 0, episodes)
	for ep := 0; ep < episodes; ep++ {
		if err := ctrl.StartNewEpisode(ctx); err != nil {
			return nil, err
		}

		var total float64
		steps := 0
		for ; steps < maxSteps && !ctrl.EndOfEpisode(); steps++ {
			actions := ctrl.Actions()
			if len(actions) == 0 {
				break
			}
			reward, err := ctrl.React(ctx, policy(actions))
			if err != nil {
				return nil, err
			}
			total += reward
		}

		logger.Info("episode finished",
			"episode", ep+1,
			"steps", steps,
			"reward", total,
			"terminal", ctrl.EndOfEpisode(),
		)
		rewards = append(rewards, total)
	}
	return rewards, nil
}
