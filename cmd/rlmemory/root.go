package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/rlmemory/config"
)

const envPrefix = "RLMEMORY"

// newRootCmd builds the command tree. Settings resolve in order: flags,
// RLMEMORY_* environment variables, the config file, defaults.
func newRootCmd() *cobra.Command {
	v := newViper()

	root := &cobra.Command{
		Use:          "rlmemory",
		Short:        "Memory-augmented reinforcement learning environments",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to rlmemory.yaml or a directory containing it")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("store", "", "knowledge store: naive, graph or remote")
	flags.Int("max-internal-actions", 0, "consecutive internal action budget, -1 for unlimited")
	flags.Int("grid-size", 0, "side length of the grid")

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("store.type", flags.Lookup("store"))
	_ = v.BindPFlag("controller.max_internal_actions", flags.Lookup("max-internal-actions"))
	_ = v.BindPFlag("grid.size", flags.Lookup("grid-size"))

	root.AddCommand(newRunCmd(v), newConfigCmd(v))
	return root
}

// newViper returns a viper instance reading RLMEMORY_* variables, with dots in
// keys mapped to underscores: store.type is RLMEMORY_STORE_TYPE.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// newLogger returns a slog logger rendered by charmbracelet/log.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "rlmemory",
	})
	return slog.New(handler), nil
}

// loadConfig reads the config file, when one is named, and applies
// environment and flag overrides.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s := v.GetString("store.type"); s != "" {
		cfg.Store.Type = s
	}
	if v.IsSet("controller.internal_reward") {
		cfg.Controller.InternalReward = v.GetFloat64("controller.internal_reward")
	}
	if v.IsSet("controller.max_internal_actions") {
		cfg.Controller.MaxInternalActions = v.GetInt("controller.max_internal_actions")
	}
	if v.IsSet("grid.size") {
		cfg.Grid.Size = v.GetInt("grid.size")
	}
	if s := v.GetString("store.remote.endpoint"); s != "" {
		cfg.Store.Remote.Endpoint = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
