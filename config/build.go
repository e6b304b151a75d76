package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zero-day-ai/rlmemory"
	"github.com/zero-day-ai/rlmemory/buffer"
	"github.com/zero-day-ai/rlmemory/controller"
	"github.com/zero-day-ai/rlmemory/env/grid"
	"github.com/zero-day-ai/rlmemory/memory"
	"github.com/zero-day-ai/rlmemory/memory/graph"
	"github.com/zero-day-ai/rlmemory/memory/naive"
	"github.com/zero-day-ai/rlmemory/memory/remote"
)

// CloseFunc releases resources held by a store built from configuration.
type CloseFunc func() error

func noClose() error { return nil }

// NewStore builds the configured knowledge store. The returned CloseFunc
// releases cache connections and must be called when the store is no longer
// used.
func (c *Config) NewStore(logger *slog.Logger) (memory.Store, CloseFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch c.Store.Type {
	case StoreNaive:
		return naive.New(naive.WithLogger(logger)), noClose, nil
	case StoreGraph:
		return c.newGraphStore(logger), noClose, nil
	case StoreRemote:
		return c.newRemoteStore(logger)
	default:
		return nil, nil, rlmemory.NewConfigurationError("Config.NewStore",
			fmt.Errorf("%w: store.type %q", rlmemory.ErrInvalidConfig, c.Store.Type))
	}
}

func (c *Config) newGraphStore(logger *slog.Logger) *graph.Store {
	g := c.Store.Graph
	opts := []graph.Option{graph.WithLogger(logger)}

	switch g.Activation {
	case ActivationAppend:
		opts = append(opts, graph.WithActivationFunc(graph.AppendActivation))
	case ActivationBounded:
		opts = append(opts, graph.WithActivationFunc(graph.BoundedActivation(g.HistoryLimit)))
	}
	if g.IDPrefix != "" {
		opts = append(opts, graph.WithIDGenerator(memory.NewSequenceGenerator(g.IDPrefix)))
	}
	return graph.New(opts...)
}

func (c *Config) newRemoteStore(logger *slog.Logger) (memory.Store, CloseFunc, error) {
	r := c.Store.Remote

	timeout, err := parseDuration(r.Timeout)
	if err != nil {
		return nil, nil, rlmemory.NewConfigurationError("Config.NewStore",
			fmt.Errorf("%w: store.remote.timeout: %w", rlmemory.ErrInvalidConfig, err))
	}
	if timeout == 0 {
		timeout = remote.DefaultEndpointTimeout
	}
	endpointOpts := []remote.EndpointOption{
		remote.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if r.Username != "" {
		endpointOpts = append(endpointOpts, remote.WithBasicAuth(r.Username, r.Password))
	}

	opts := []remote.Option{remote.WithLogger(logger)}
	if r.NameProperty != "" {
		opts = append(opts, remote.WithBuilder(remote.SPARQLBuilder{NameProperty: r.NameProperty}))
	}
	if len(r.BadValues) > 0 {
		opts = append(opts, remote.WithBadValues(r.BadValues...))
	}

	augments := make([]remote.Augment, 0, len(r.Augments))
	for _, a := range r.Augments {
		augment, err := remote.NewCELAugment(a.Attr, a.Expr, a.Requires...)
		if err != nil {
			return nil, nil, rlmemory.NewConfigurationError("Config.NewStore",
				fmt.Errorf("%w: augment %s: %w", rlmemory.ErrInvalidConfig, a.Attr, err))
		}
		augments = append(augments, augment)
	}
	if len(augments) > 0 {
		opts = append(opts, remote.WithAugments(augments...))
	}

	retrieveCache, queryCache, closeCaches, err := newCaches(r.Cache)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, remote.WithRetrieveCache(retrieveCache), remote.WithQueryCache(queryCache))

	source := remote.NewSPARQLEndpoint(r.Endpoint, endpointOpts...)
	return remote.New(source, opts...), closeCaches, nil
}

// newCaches builds one cache for retrieved records and one for match results.
func newCaches(cfg CacheConfig) (remote.Cache, remote.Cache, CloseFunc, error) {
	switch cfg.Type {
	case CacheNone:
		return remote.NopCache{}, remote.NopCache{}, noClose, nil

	case CacheMap:
		return remote.NewMapCache(), remote.NewMapCache(), noClose, nil

	case CacheRistretto:
		retrieveCache, err := remote.NewRistrettoCache(cfg.MaxCost)
		if err != nil {
			return nil, nil, nil, rlmemory.NewConfigurationError("Config.NewStore", err)
		}
		queryCache, err := remote.NewRistrettoCache(cfg.MaxCost)
		if err != nil {
			retrieveCache.Close()
			return nil, nil, nil, rlmemory.NewConfigurationError("Config.NewStore", err)
		}
		closeFn := func() error {
			retrieveCache.Close()
			queryCache.Close()
			return nil
		}
		return retrieveCache, queryCache, closeFn, nil

	case CacheRedis:
		ttl, err := parseDuration(cfg.Redis.TTL)
		if err != nil {
			return nil, nil, nil, rlmemory.NewConfigurationError("Config.NewStore",
				fmt.Errorf("%w: store.remote.cache.redis.ttl: %w", rlmemory.ErrInvalidConfig, err))
		}
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = remote.DefaultRedisPrefix
		}

		retrieveCache, err := remote.NewRedisCache(remote.RedisOptions{
			URL:    cfg.Redis.URL,
			Prefix: prefix + "retrieve:",
			TTL:    ttl,
		})
		if err != nil {
			return nil, nil, nil, rlmemory.NewNetworkError("Config.NewStore", err)
		}
		queryCache, err := remote.NewRedisCache(remote.RedisOptions{
			URL:    cfg.Redis.URL,
			Prefix: prefix + "query:",
			TTL:    ttl,
		})
		if err != nil {
			_ = retrieveCache.Close()
			return nil, nil, nil, rlmemory.NewNetworkError("Config.NewStore", err)
		}
		closeFn := func() error {
			return errors.Join(retrieveCache.Close(), queryCache.Close())
		}
		return retrieveCache, queryCache, closeFn, nil

	default:
		return nil, nil, nil, rlmemory.NewConfigurationError("Config.NewStore",
			fmt.Errorf("%w: store.remote.cache.type %q", rlmemory.ErrInvalidConfig, cfg.Type))
	}
}

// ControllerOptions returns the controller options for store and logger.
// Callers append tracing and metrics options of their own.
func (c *Config) ControllerOptions(store memory.Store, logger *slog.Logger) []controller.Option {
	opts := []controller.Option{
		controller.WithStore(store),
		controller.WithInternalReward(c.Controller.InternalReward),
		controller.WithMaxInternalActions(c.Controller.MaxInternalActions),
	}
	if logger != nil {
		opts = append(opts, controller.WithLogger(logger))
	}

	ignored := make([]buffer.Name, 0, len(c.Controller.IgnoredBuffers))
	for _, name := range c.Controller.IgnoredBuffers {
		if b, err := buffer.Parse(name); err == nil {
			ignored = append(ignored, b)
		}
	}
	if len(ignored) > 0 {
		opts = append(opts, controller.WithIgnoredBuffers(ignored...))
	}
	return opts
}

// NewEnvironment builds the configured grid environment.
func (c *Config) NewEnvironment() (*grid.Env, error) {
	return grid.New(c.Grid.Size, c.Grid.Start)
}
