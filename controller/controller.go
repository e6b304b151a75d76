// Package controller wraps an environment with a structured long-term memory.
//
// A Controller is itself an env.Environment. Each step it offers the wrapped
// environment's native actions plus internal memory actions derived from the
// current buffer contents:
//
//   - copy: from a copyable buffer into another writable buffer, except
//     perceptual to scratch, and only when the destination differs
//   - delete: any attribute of a writable buffer
//   - retrieve: any attribute of a copyable buffer whose value the store
//     accepts as an identifier
//   - prev-result and next-result: while retrieval is non-empty and the
//     store's cursor allows it
//
// Copying into or deleting from the query buffer searches the store and
// replaces the retrieval buffer with the result. Internal actions earn a fixed
// reward; native actions are delegated to the environment. After every
// reaction the perceptual buffer is refreshed from the environment.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/rlmemory"
	"github.com/zero-day-ai/rlmemory/action"
	"github.com/zero-day-ai/rlmemory/buffer"
	"github.com/zero-day-ai/rlmemory/env"
	"github.com/zero-day-ai/rlmemory/memory"
	"github.com/zero-day-ai/rlmemory/memory/naive"
)

// Action kinds used in telemetry.
const (
	kindInternal = "internal"
	kindExternal = "external"
)

// Controller is a memory-augmented environment.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	env     env.Environment
	store   memory.Store
	buffers *buffer.Set

	internalReward float64
	maxInternal    int
	internalCount  int

	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *otelMetrics
}

var _ env.Environment = (*Controller)(nil)

// New wraps environment in a Controller.
//
// Example:
//
//	ctrl, err := controller.New(gridEnv,
//		controller.WithStore(graph.New()),
//		controller.WithMaxInternalActions(5),
//	)
func New(environment env.Environment, opts ...Option) (*Controller, error) {
	if environment == nil {
		return nil, rlmemory.NewValidationError("controller.New", errors.New("environment is required"))
	}

	cfg := &config{
		internalReward: DefaultInternalReward,
		maxInternal:    Unlimited,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = naive.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracer == nil {
		cfg.tracer = tracenoop.NewTracerProvider().Tracer("rlmemory.controller")
	}
	if cfg.meter == nil {
		cfg.meter = noop.NewMeterProvider().Meter("rlmemory.controller")
	}

	metrics, err := newOTelMetrics(cfg.meter)
	if err != nil {
		return nil, rlmemory.NewConfigurationError("controller.New", err)
	}

	c := &Controller{
		env:            environment,
		store:          cfg.store,
		buffers:        buffer.NewSet(cfg.ignored...),
		internalReward: cfg.internalReward,
		maxInternal:    cfg.maxInternal,
		logger:         cfg.logger,
		tracer:         cfg.tracer,
		metrics:        metrics,
	}
	c.syncPerceptual()
	return c, nil
}

// Store returns the knowledge store.
func (c *Controller) Store() memory.Store {
	return c.store
}

// InternalActionCount returns the number of consecutive internal actions
// taken since the last native action.
func (c *Controller) InternalActionCount() int {
	return c.internalCount
}

// Buffer returns a copy of one buffer; nil for an ignored buffer.
func (c *Controller) Buffer(name buffer.Name) memory.Record {
	return c.buffers.Get(name)
}

// AddToLTM stores a memory element in the knowledge store and returns its
// identifier.
func (c *Controller) AddToLTM(ctx context.Context, id any, attrs memory.Record) (any, error) {
	stored, err := c.store.Store(ctx, id, attrs)
	if err != nil {
		return nil, storeError("Controller.AddToLTM", err)
	}
	return stored, nil
}

// Observation flattens every buffer into "<buffer>_<attribute>" keys.
// Empty buffers contribute no keys.
func (c *Controller) Observation() memory.Record {
	return c.buffers.Flatten()
}

// State returns the full state, which for a controller equals its observation.
func (c *Controller) State() memory.Record {
	return c.buffers.Flatten()
}

// EndOfEpisode reports whether the wrapped environment's episode is over.
func (c *Controller) EndOfEpisode() bool {
	return c.env.EndOfEpisode()
}

// Reset resets the wrapped environment, empties the buffers and zeroes the
// internal action count. The knowledge store is kept.
func (c *Controller) Reset(ctx context.Context) (err error) {
	ctx, span := c.tracer.Start(ctx, spanReset)
	defer func() { endSpan(span, err) }()

	if err := c.env.Reset(ctx); err != nil {
		return fmt.Errorf("reset environment: %w", err)
	}
	c.restart()
	return nil
}

// StartNewEpisode starts a new episode of the wrapped environment, empties
// the buffers and zeroes the internal action count. The knowledge store is kept.
func (c *Controller) StartNewEpisode(ctx context.Context) (err error) {
	ctx, span := c.tracer.Start(ctx, spanStartNewEpisode)
	defer func() { endSpan(span, err) }()

	if err := c.env.StartNewEpisode(ctx); err != nil {
		return fmt.Errorf("start new episode: %w", err)
	}
	c.restart()
	c.logger.Debug("episode started", "observation", c.Observation().String())
	return nil
}

func (c *Controller) restart() {
	c.buffers.Reset()
	c.syncPerceptual()
	c.internalCount = 0
}

// React applies a, which must be one of Actions(). Internal actions update
// the buffers and return the internal reward; any other action is delegated
// to the wrapped environment.
//
// An action outside the legal set fails with rlmemory.ErrIllegalAction and
// leaves the controller unchanged.
func (c *Controller) React(ctx context.Context, a action.Action) (reward float64, err error) {
	ctx, span := c.tracer.Start(ctx, spanReact,
		trace.WithAttributes(attrAction.String(a.String())),
	)
	defer func() { endSpan(span, err) }()

	if !action.Contains(c.Actions(), a) {
		return 0, rlmemory.NewUsageError("Controller.React", rlmemory.ErrIllegalAction).
			WithContext(map[string]any{"action": a.String()})
	}

	internal, err := c.interpret(ctx, a)
	if err != nil {
		return 0, err
	}

	kind := kindInternal
	if internal {
		reward = c.internalReward
		c.internalCount++
	} else {
		kind = kindExternal
		reward, err = c.env.React(ctx, a)
		if err != nil {
			return 0, fmt.Errorf("environment react %s: %w", a, err)
		}
		c.internalCount = 0
	}
	c.syncPerceptual()

	span.SetAttributes(
		attrActionKind.String(kind),
		attrReward.Float64(reward),
		attrInternalCount.Int(c.internalCount),
	)
	c.metrics.record(ctx, a.Name(), kind, reward)
	c.logger.Debug("react",
		"action", a.String(),
		"kind", kind,
		"reward", reward,
		"observation", c.Observation().String(),
	)
	return reward, nil
}

// interpret applies an internal action and reports whether a was internal.
func (c *Controller) interpret(ctx context.Context, a action.Action) (bool, error) {
	if !a.IsInternal() {
		return false, nil
	}

	switch a.Name() {
	case action.NameCopy:
		src, srcAttr, err := bufferParams(a, action.ParamSrcBuf, action.ParamSrcAttr)
		if err != nil {
			return true, err
		}
		dst, dstAttr, err := bufferParams(a, action.ParamDstBuf, action.ParamDstAttr)
		if err != nil {
			return true, err
		}
		v, ok := c.buffers.Value(src, srcAttr)
		if !ok {
			return true, rlmemory.NewNotFoundError("Controller.copy",
				fmt.Errorf("%s.%s: %w", src, srcAttr, rlmemory.ErrMissingKey))
		}
		if dst == buffer.Query {
			return true, c.updateQuery(ctx, func() error { return c.buffers.Put(dst, dstAttr, v) })
		}
		if err := c.buffers.Put(dst, dstAttr, v); err != nil {
			return true, err
		}

	case action.NameDelete:
		buf, attr, err := bufferParams(a, action.ParamBuf, action.ParamAttr)
		if err != nil {
			return true, err
		}
		if buf == buffer.Query {
			return true, c.updateQuery(ctx, func() error { return c.buffers.Delete(buf, attr) })
		}
		if err := c.buffers.Delete(buf, attr); err != nil {
			return true, err
		}

	case action.NameRetrieve:
		buf, attr, err := bufferParams(a, action.ParamBuf, action.ParamAttr)
		if err != nil {
			return true, err
		}
		id, ok := c.buffers.Value(buf, attr)
		if !ok {
			return true, rlmemory.NewNotFoundError("Controller.retrieve",
				fmt.Errorf("%s.%s: %w", buf, attr, rlmemory.ErrMissingKey))
		}
		rec, err := c.store.Retrieve(ctx, id)
		if err != nil {
			return true, storeError("Controller.retrieve", err)
		}
		c.buffers.Clear(buffer.Query)
		c.buffers.Replace(buffer.Retrieval, rec)

	case action.NamePrevResult:
		rec, err := c.store.PrevResult(ctx)
		if err != nil {
			return true, storeError("Controller.prevResult", err)
		}
		c.buffers.Replace(buffer.Retrieval, rec)

	case action.NameNextResult:
		rec, err := c.store.NextResult(ctx)
		if err != nil {
			return true, storeError("Controller.nextResult", err)
		}
		c.buffers.Replace(buffer.Retrieval, rec)
	}
	return true, nil
}

// updateQuery applies edit to the query buffer and searches the store. When
// either step fails the query buffer is restored.
func (c *Controller) updateQuery(ctx context.Context, edit func() error) error {
	before := c.buffers.Get(buffer.Query)
	if err := edit(); err != nil {
		return err
	}
	if err := c.queryLTM(ctx); err != nil {
		c.buffers.Replace(buffer.Query, before)
		return err
	}
	return nil
}

// queryLTM searches the store with the query buffer and places the result in
// the retrieval buffer. An empty query buffer or a miss clears retrieval.
func (c *Controller) queryLTM(ctx context.Context) error {
	if c.buffers.Empty(buffer.Query) {
		c.buffers.Clear(buffer.Retrieval)
		return nil
	}
	rec, err := c.store.Query(ctx, c.buffers.Get(buffer.Query))
	if err != nil {
		return storeError("Controller.query", err)
	}
	c.buffers.Replace(buffer.Retrieval, rec)
	return nil
}

func (c *Controller) syncPerceptual() {
	c.buffers.Replace(buffer.Perceptual, c.env.Observation())
}

// bufferParams reads a buffer name and an attribute from a.
func bufferParams(a action.Action, bufKey, attrKey string) (buffer.Name, string, error) {
	b, ok := a.Param(bufKey)
	if !ok {
		return "", "", rlmemory.NewValidationError("Controller.React",
			fmt.Errorf("%s: missing parameter %s", a, bufKey))
	}
	name, err := buffer.Parse(b)
	if err != nil {
		return "", "", rlmemory.NewValidationError("Controller.React", err)
	}
	attr, ok := a.Param(attrKey)
	if !ok {
		return "", "", rlmemory.NewValidationError("Controller.React",
			fmt.Errorf("%s: missing parameter %s", a, attrKey))
	}
	return name, attr, nil
}

// storeError classifies a knowledge store error.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, memory.ErrNotImplemented):
		return rlmemory.NewUnsupportedError(op, err)
	case errors.Is(err, memory.ErrOutOfBounds):
		return rlmemory.NewOutOfBoundsError(op, err)
	case errors.Is(err, memory.ErrInvalidID), errors.Is(err, memory.ErrInvalidValue):
		return rlmemory.NewValidationError(op, err)
	case errors.Is(err, memory.ErrSourceFailed):
		return rlmemory.NewNetworkError(op, err)
	default:
		return rlmemory.NewInternalError(op, err)
	}
}
