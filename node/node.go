package node

import (
	"context"

	"github.com/kbukum/chainkit/logger"
)

// Node is a processing unit: an asynchronous transformation from I to O.
// Implementations must be safe for concurrent use; a unit may run inside
// several pipelines and fan-out branches at once.
type Node[I, O any] interface {
	// Name identifies the unit in logs, spans and metrics.
	Name() string
	// Process transforms one input. The context carries the caller's
	// deadline and cancellation.
	Process(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function into a Node.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) Node[I, O] {
	return &funcNode[I, O]{name: name, fn: fn}
}

type funcNode[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f *funcNode[I, O]) Name() string { return f.name }

func (f *funcNode[I, O]) Process(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}

// Passthrough returns a unit that returns its input unchanged.
func Passthrough[T any](name string) Node[T, T] {
	return Func(name, func(_ context.Context, input T) (T, error) {
		return input, nil
	})
}

// Log returns a unit that logs its input at info level and passes it through.
func Log[T any](log *logger.Logger, name string) Node[T, T] {
	return Func(name, func(ctx context.Context, input T) (T, error) {
		log.WithContext(ctx).Info("node input", logger.Fields(
			logger.FieldNode, name,
			logger.FieldInput, input,
		))
		return input, nil
	})
}
