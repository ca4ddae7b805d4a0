package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "zj-link"

// Metrics holds the metric instruments for zj-link.
// All counters are cumulative and safe for concurrent use.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// zellij CLI invocations, partitioned by subcommand
	Commands        metric.Int64Counter
	CommandFailures metric.Int64Counter

	// Bridge actions, partitioned by action name and outcome
	Actions metric.Int64Counter

	// Config loads, partitioned by outcome (loaded, missing, malformed)
	ConfigLoads metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Commands, err = meter.Int64Counter("zellij.commands",
		metric.WithDescription("Total zellij CLI invocations"))
	if err != nil {
		return nil, err
	}

	m.CommandFailures, err = meter.Int64Counter("zellij.command_failures",
		metric.WithDescription("zellij CLI invocations that wrote to stderr or failed to spawn"))
	if err != nil {
		return nil, err
	}

	m.Actions, err = meter.Int64Counter("bridge.actions",
		metric.WithDescription("Editor actions handled, partitioned by action and outcome"))
	if err != nil {
		return nil, err
	}

	m.ConfigLoads, err = meter.Int64Counter("project_config.loads",
		metric.WithDescription("Project config load attempts, partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCommand records one zellij invocation. subcommand is the first
// non-global argument (e.g. "action", "list-sessions").
func (m *Metrics) RecordCommand(ctx context.Context, subcommand string, failed bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("zellij.subcommand", subcommand))
	m.Commands.Add(ctx, 1, attrs)
	if failed {
		m.CommandFailures.Add(ctx, 1, attrs)
	}
}

// RecordAction records a handled editor action.
func (m *Metrics) RecordAction(ctx context.Context, action, outcome string) {
	if m == nil {
		return
	}
	m.Actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("bridge.action", action),
		attribute.String("bridge.outcome", outcome),
	))
}

// RecordConfigLoad records a project config load attempt.
func (m *Metrics) RecordConfigLoad(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ConfigLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("project_config.outcome", outcome),
	))
}
