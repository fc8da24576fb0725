package parallel

import (
	"context"
	"strings"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
)

// Collect returns the outputs as they are.
func Collect[O any]() Combiner[O, []O] {
	return func(_ context.Context, outputs []O) ([]O, error) {
		return outputs, nil
	}
}

// JoinStrings concatenates string outputs with sep.
func JoinStrings(sep string) Combiner[string, string] {
	return func(_ context.Context, outputs []string) (string, error) {
		return strings.Join(outputs, sep), nil
	}
}

// First returns the output of the first registered child.
func First[O any]() Combiner[O, O] {
	return func(_ context.Context, outputs []O) (O, error) {
		if len(outputs) == 0 {
			var zero O
			return zero, errors.Validation("no outputs to combine")
		}
		return outputs[0], nil
	}
}

// CombineWith hands the outputs to another unit, such as a sub-pipeline
// that summarizes them.
func CombineWith[O, R any](n node.Node[[]O, R]) Combiner[O, R] {
	return func(ctx context.Context, outputs []O) (R, error) {
		return n.Process(ctx, outputs)
	}
}
