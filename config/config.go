// Package config loads rlmemory.yaml files and builds knowledge stores and
// controllers from them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/rlmemory"
	"github.com/zero-day-ai/rlmemory/buffer"
	"github.com/zero-day-ai/rlmemory/controller"
)

// Store backends.
const (
	StoreNaive  = "naive"
	StoreGraph  = "graph"
	StoreRemote = "remote"
)

// Activation functions of the graph store.
const (
	ActivationNone    = "none"
	ActivationAppend  = "append"
	ActivationBounded = "bounded"
)

// Remote cache backends.
const (
	CacheNone      = "none"
	CacheMap       = "map"
	CacheRistretto = "ristretto"
	CacheRedis     = "redis"
)

// Config represents an rlmemory.yaml configuration file.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Controller ControllerConfig `yaml:"controller"`
	Grid       GridConfig       `yaml:"grid"`
}

// StoreConfig selects and configures the knowledge store.
type StoreConfig struct {
	// Type is one of "naive", "graph" or "remote". Default: "naive"
	Type string `yaml:"type"`

	Graph  GraphConfig  `yaml:"graph,omitempty"`
	Remote RemoteConfig `yaml:"remote,omitempty"`
}

// GraphConfig configures the graph store.
type GraphConfig struct {
	// Activation is one of "none", "append" or "bounded". Default: "none"
	Activation string `yaml:"activation,omitempty"`

	// HistoryLimit is the number of snapshots kept by "bounded" activation.
	HistoryLimit int `yaml:"history_limit,omitempty"`

	// IDPrefix switches generated identifiers from UUIDs to "<prefix>-<n>".
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// RemoteConfig configures the read-only remote store.
type RemoteConfig struct {
	// Endpoint is the SPARQL endpoint URL.
	Endpoint string `yaml:"endpoint"`

	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Timeout bounds one HTTP round trip.
	// Format: Go duration string (e.g., "30s")
	// Default: 30s
	Timeout string `yaml:"timeout,omitempty"`

	// NameProperty is the IRI results are ordered by. Default: foaf:name
	NameProperty string `yaml:"name_property,omitempty"`

	// BadValues are canonical values dropped from every record.
	BadValues []string `yaml:"bad_values,omitempty"`

	Augments []AugmentConfig `yaml:"augments,omitempty"`
	Cache    CacheConfig     `yaml:"cache,omitempty"`
}

// AugmentConfig derives one attribute with a CEL expression over "attrs".
type AugmentConfig struct {
	Attr     string   `yaml:"attr"`
	Expr     string   `yaml:"expr"`
	Requires []string `yaml:"requires,omitempty"`
}

// CacheConfig selects where remote results are memoized.
type CacheConfig struct {
	// Type is one of "none", "map", "ristretto" or "redis". Default: "map"
	Type string `yaml:"type"`

	// MaxCost bounds a ristretto cache, in bytes.
	MaxCost int64 `yaml:"max_cost,omitempty"`

	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures a Redis cache.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix,omitempty"`

	// TTL expires entries. Format: Go duration string. Default: no expiry
	TTL string `yaml:"ttl,omitempty"`
}

// ControllerConfig configures the memory controller.
type ControllerConfig struct {
	// InternalReward is the reward of every internal action. Default: -0.1
	InternalReward float64 `yaml:"internal_reward"`

	// MaxInternalActions bounds consecutive internal actions; -1 is unlimited.
	// Default: -1
	MaxInternalActions int `yaml:"max_internal_actions"`

	// IgnoredBuffers are never created.
	IgnoredBuffers []string `yaml:"ignored_buffers,omitempty"`
}

// GridConfig configures the demo grid environment.
type GridConfig struct {
	Size  int `yaml:"size"`
	Start int `yaml:"start"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Type: StoreNaive,
			Graph: GraphConfig{
				Activation: ActivationNone,
			},
			Remote: RemoteConfig{
				Cache: CacheConfig{Type: CacheMap},
			},
		},
		Controller: ControllerConfig{
			InternalReward:     controller.DefaultInternalReward,
			MaxInternalActions: controller.Unlimited,
		},
		Grid: GridConfig{Size: 5},
	}
}

// Load reads and validates an rlmemory.yaml file. If path is a directory, it
// looks for rlmemory.yaml or rlmemory.yml in that directory. Keys missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{"rlmemory.yaml", "rlmemory.yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no rlmemory.yaml or rlmemory.yml found in %s", path)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, rlmemory.NewConfigurationError("config.Parse",
			fmt.Errorf("failed to parse config: %w: %w", rlmemory.ErrInvalidConfig, err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting, wrapping rlmemory.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return rlmemory.NewConfigurationError("config.Validate",
			fmt.Errorf("%w: %w", rlmemory.ErrInvalidConfig, err))
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Store.Type {
	case StoreNaive:
	case StoreGraph:
		if err := c.Store.Graph.validate(); err != nil {
			return err
		}
	case StoreRemote:
		if err := c.Store.Remote.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store.type %q: want naive, graph or remote", c.Store.Type)
	}

	if c.Controller.MaxInternalActions < controller.Unlimited {
		return fmt.Errorf("controller.max_internal_actions %d: want -1 or more", c.Controller.MaxInternalActions)
	}
	for _, name := range c.Controller.IgnoredBuffers {
		if _, err := buffer.Parse(name); err != nil {
			return fmt.Errorf("controller.ignored_buffers: %w", err)
		}
	}

	if c.Grid.Size <= 0 {
		return fmt.Errorf("grid.size %d: want a positive size", c.Grid.Size)
	}
	if c.Grid.Start < 0 || c.Grid.Start >= c.Grid.Size*c.Grid.Size {
		return fmt.Errorf("grid.start %d: outside a %dx%d grid", c.Grid.Start, c.Grid.Size, c.Grid.Size)
	}
	return nil
}

func (g GraphConfig) validate() error {
	switch g.Activation {
	case ActivationNone, ActivationAppend:
	case ActivationBounded:
		if g.HistoryLimit <= 0 {
			return fmt.Errorf("store.graph.history_limit %d: bounded activation needs a positive limit", g.HistoryLimit)
		}
	default:
		return fmt.Errorf("store.graph.activation %q: want none, append or bounded", g.Activation)
	}
	return nil
}

func (r RemoteConfig) validate() error {
	if r.Endpoint == "" {
		return fmt.Errorf("store.remote.endpoint is required")
	}
	if _, err := parseDuration(r.Timeout); err != nil {
		return fmt.Errorf("store.remote.timeout: %w", err)
	}
	for i, a := range r.Augments {
		if a.Attr == "" || a.Expr == "" {
			return fmt.Errorf("store.remote.augments[%d]: attr and expr are required", i)
		}
	}

	switch r.Cache.Type {
	case CacheNone, CacheMap:
	case CacheRistretto:
		if r.Cache.MaxCost <= 0 {
			return fmt.Errorf("store.remote.cache.max_cost %d: want a positive cost", r.Cache.MaxCost)
		}
	case CacheRedis:
		if r.Cache.Redis.URL == "" {
			return fmt.Errorf("store.remote.cache.redis.url is required")
		}
		if _, err := parseDuration(r.Cache.Redis.TTL); err != nil {
			return fmt.Errorf("store.remote.cache.redis.ttl: %w", err)
		}
	default:
		return fmt.Errorf("store.remote.cache.type %q: want none, map, ristretto or redis", r.Cache.Type)
	}
	return nil
}

// parseDuration parses s; an empty string is zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
