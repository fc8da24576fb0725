package node

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/chainkit/errors"
)

// WithTimeout bounds each Process call to d. When the bound, rather than
// the caller's own deadline, cuts the call short the error is a TIMEOUT
// AppError wrapping the unit's error.
func WithTimeout[I, O any](d time.Duration) Middleware[I, O] {
	return func(inner Node[I, O]) Node[I, O] {
		if d <= 0 {
			return inner
		}
		return &timeoutNode[I, O]{inner: inner, timeout: d}
	}
}

type timeoutNode[I, O any] struct {
	inner   Node[I, O]
	timeout time.Duration
}

func (t *timeoutNode[I, O]) Name() string { return t.inner.Name() }

func (t *timeoutNode[I, O]) Process(ctx context.Context, input I) (O, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	output, err := t.inner.Process(callCtx, input)
	if err != nil && ctx.Err() == nil && stderrors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return output, errors.Timeout(t.inner.Name()).WithCause(err)
	}
	return output, err
}
