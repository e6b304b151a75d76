package controller

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/rlmemory/buffer"
	"github.com/zero-day-ai/rlmemory/memory"
)

// Defaults applied by New.
const (
	// DefaultInternalReward is the reward of every internal action.
	DefaultInternalReward = -0.1

	// Unlimited disables the internal action budget.
	Unlimited = -1
)

// Option configures a Controller.
type Option func(*config)

// config holds configuration for a Controller instance.
type config struct {
	store          memory.Store
	logger         *slog.Logger
	tracer         trace.Tracer
	meter          metric.Meter
	internalReward float64
	maxInternal    int
	ignored        []buffer.Name
}

// WithStore sets the knowledge store. Defaults to an empty naive store.
func WithStore(store memory.Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for React, Reset and
// StartNewEpisode spans. Defaults to a noop tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter for action counters and the reward
// histogram. Defaults to a noop meter.
func WithMeter(meter metric.Meter) Option {
	return func(c *config) {
		c.meter = meter
	}
}

// WithInternalReward sets the reward returned for internal actions.
func WithInternalReward(reward float64) Option {
	return func(c *config) {
		c.internalReward = reward
	}
}

// WithMaxInternalActions caps consecutive internal actions. Once the cap is
// reached only native actions are offered until one of them is taken.
// A negative n means Unlimited.
func WithMaxInternalActions(n int) Option {
	return func(c *config) {
		if n < 0 {
			n = Unlimited
		}
		c.maxInternal = n
	}
}

// WithIgnoredBuffers removes buffers from the controller entirely.
func WithIgnoredBuffers(names ...buffer.Name) Option {
	return func(c *config) {
		c.ignored = append(c.ignored, names...)
	}
}
