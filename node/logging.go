package node

import (
	"context"
	"time"

	"github.com/kbukum/chainkit/logger"
)

// WithLogging logs every Process call with the unit name, duration and
// outcome. Failures log at error level, successes at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner Node[I, O]) Node[I, O] {
		return &loggingNode[I, O]{inner: inner, log: log}
	}
}

type loggingNode[I, O any] struct {
	inner Node[I, O]
	log   *logger.Logger
}

func (l *loggingNode[I, O]) Name() string { return l.inner.Name() }

func (l *loggingNode[I, O]) Process(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Process(ctx, input)

	fields := logger.DurationFields(l.inner.Name(), time.Since(start))
	log := l.log.WithContext(ctx)
	if err != nil {
		fields[logger.FieldStatus] = "error"
		fields[logger.FieldError] = err.Error()
		log.Error("node process failed", fields)
	} else {
		fields[logger.FieldStatus] = "ok"
		log.Debug("node process ok", fields)
	}

	return output, err
}
