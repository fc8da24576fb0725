package node

import (
	"context"
	"time"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/observability"
)

// WithMetrics records invocation count, duration and in-flight calls for
// the unit, plus an error count by error code on failure.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner Node[I, O]) Node[I, O] {
		return &metricsNode[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsNode[I, O any] struct {
	inner   Node[I, O]
	metrics *observability.Metrics
}

func (m *metricsNode[I, O]) Name() string { return m.inner.Name() }

func (m *metricsNode[I, O]) Process(ctx context.Context, input I) (O, error) {
	name := m.inner.Name()
	m.metrics.RecordNodeStart(ctx, name)

	start := time.Now()
	output, err := m.inner.Process(ctx, input)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
		m.metrics.RecordError(ctx, string(errors.Wrap(err).Code), name)
	}
	m.metrics.RecordNode(ctx, name, status, time.Since(start))

	return output, err
}
