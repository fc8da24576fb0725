package node

import (
	"context"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/observability"
)

// WithTracing opens an OpenTelemetry span named "{service}.{unit}" around
// each Process call and marks it failed when the unit returns an error.
func WithTracing[I, O any](service string) Middleware[I, O] {
	return func(inner Node[I, O]) Node[I, O] {
		return &tracingNode[I, O]{inner: inner, service: service}
	}
}

type tracingNode[I, O any] struct {
	inner   Node[I, O]
	service string
}

func (t *tracingNode[I, O]) Name() string { return t.inner.Name() }

func (t *tracingNode[I, O]) Process(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, t.service+"."+t.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrServiceName, t.service)
	observability.SetSpanAttribute(ctx, observability.AttrNode, t.inner.Name())

	output, err := t.inner.Process(ctx, input)
	if err != nil {
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(errors.Wrap(err).Code))
		observability.SetSpanError(ctx, err)
	}

	return output, err
}
