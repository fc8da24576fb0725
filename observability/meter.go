package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/chainkit/logger"
)

// Status values recorded on metrics and spans.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	cfg.ApplyDefaults()

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))

	return mp, nil
}

// Setup initializes tracing and metrics when cfg.Enabled is set. The returned
// shutdown function flushes both providers; it is a no-op when disabled.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		terr := tp.Shutdown(ctx)
		merr := mp.Shutdown(ctx)
		if terr != nil {
			return terr
		}
		return merr
	}, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by pipeline units, tools and agents.
type Metrics struct {
	nodeTotal    metric.Int64Counter
	nodeDuration metric.Float64Histogram
	nodeActive   metric.Int64UpDownCounter
	toolCalls    metric.Int64Counter
	agentRuns    metric.Int64Counter
	agentTurns   metric.Int64Histogram
	errorTotal   metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	nodeTotal, err := meter.Int64Counter("node.process.total",
		metric.WithDescription("Total number of unit invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.process.total counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("node.process.duration",
		metric.WithDescription("Duration of unit invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.process.duration histogram: %w", err)
	}

	nodeActive, err := meter.Int64UpDownCounter("node.process.active",
		metric.WithDescription("Number of unit invocations in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node.process.active gauge: %w", err)
	}

	toolCalls, err := meter.Int64Counter("tool.calls",
		metric.WithDescription("Total number of tool executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool.calls counter: %w", err)
	}

	agentRuns, err := meter.Int64Counter("agent.runs",
		metric.WithDescription("Total number of agent runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating agent.runs counter: %w", err)
	}

	agentTurns, err := meter.Int64Histogram("agent.turns",
		metric.WithDescription("Model turns taken per agent run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating agent.turns histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		nodeTotal:    nodeTotal,
		nodeDuration: nodeDuration,
		nodeActive:   nodeActive,
		toolCalls:    toolCalls,
		agentRuns:    agentRuns,
		agentTurns:   agentTurns,
		errorTotal:   errorTotal,
	}, nil
}

// RecordNodeStart increments the in-flight count for a unit.
func (m *Metrics) RecordNodeStart(ctx context.Context, node string) {
	m.nodeActive.Add(ctx, 1, metric.WithAttributes(attribute.String("node", node)))
}

// RecordNode decrements the in-flight count and records a finished invocation.
func (m *Metrics) RecordNode(ctx context.Context, node, status string, duration time.Duration) {
	m.nodeActive.Add(ctx, -1, metric.WithAttributes(attribute.String("node", node)))
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", node),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("node", node),
	))
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}

// RecordAgentRun records a finished agent run and the number of model turns it took.
func (m *Metrics) RecordAgentRun(ctx context.Context, agent, status string, turns int) {
	attrs := metric.WithAttributes(
		attribute.String("agent", agent),
		attribute.String("status", status),
	)
	m.agentRuns.Add(ctx, 1, attrs)
	m.agentTurns.Record(ctx, int64(turns), attrs)
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
