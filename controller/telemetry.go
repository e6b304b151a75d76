package controller

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	spanReact           = "rlmemory.controller.react"
	spanReset           = "rlmemory.controller.reset"
	spanStartNewEpisode = "rlmemory.controller.start_new_episode"
)

// Attribute keys.
const (
	attrAction        = attribute.Key("rlmemory.action")
	attrActionKind    = attribute.Key("rlmemory.action.kind")
	attrReward        = attribute.Key("rlmemory.reward")
	attrInternalCount = attribute.Key("rlmemory.internal_count")
)

// otelMetrics holds the metric instruments of a controller.
type otelMetrics struct {
	// internalCounter counts internal actions
	internalCounter metric.Int64Counter

	// externalCounter counts actions delegated to the environment
	externalCounter metric.Int64Counter

	// rewardHistogram records the reward of every action
	rewardHistogram metric.Float64Histogram
}

func newOTelMetrics(meter metric.Meter) (*otelMetrics, error) {
	m := &otelMetrics{}
	var err error

	m.internalCounter, err = meter.Int64Counter(
		"rlmemory.actions.internal",
		metric.WithDescription("Number of internal memory actions taken"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create internal action counter: %w", err)
	}

	m.externalCounter, err = meter.Int64Counter(
		"rlmemory.actions.external",
		metric.WithDescription("Number of actions delegated to the environment"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create external action counter: %w", err)
	}

	m.rewardHistogram, err = meter.Float64Histogram(
		"rlmemory.reward",
		metric.WithDescription("Reward returned per action"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reward histogram: %w", err)
	}

	return m, nil
}

// record adds one reaction to the instruments.
func (m *otelMetrics) record(ctx context.Context, name, kind string, reward float64) {
	opts := metric.WithAttributes(attrActionKind.String(kind))
	if kind == kindInternal {
		m.internalCounter.Add(ctx, 1, metric.WithAttributes(attrAction.String(name)))
	} else {
		m.externalCounter.Add(ctx, 1)
	}
	m.rewardHistogram.Record(ctx, reward, opts)
}

// endSpan sets the span status from err and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
