package chain

import (
	"context"

	"github.com/kbukum/chainkit/node"
	"github.com/kbukum/chainkit/state"
)

// Builder accumulates a pipeline from I to O. Every step returns a new
// Builder, so a partially built pipeline can be extended in several ways.
type Builder[I, O any] struct {
	head node.Node[I, O]
	name string
}

// Start begins a pipeline with n as its first step.
func Start[I, O any](n node.Node[I, O]) *Builder[I, O] {
	return &Builder[I, O]{head: n}
}

// Then appends n, linking it with Link.
func Then[I, M, O any](b *Builder[I, M], n node.Node[M, O]) *Builder[I, O] {
	return &Builder[I, O]{head: Link(b.head, n), name: b.name}
}

// ThenWithState appends n, linking it with LinkWithState.
func ThenWithState[I, M, O any, K comparable, V any](
	b *Builder[I, M],
	n StatefulNode[M, O, K, V],
	store *state.Store[K, V],
) *Builder[I, O] {
	return &Builder[I, O]{head: LinkWithState(b.head, n, store), name: b.name}
}

// Pipe appends a step that keeps the pipeline's output type.
func (b *Builder[I, O]) Pipe(n node.Node[O, O]) *Builder[I, O] {
	return Then(b, n)
}

// Named sets the name reported by the built pipeline. Without it the
// pipeline is named after its links, "a -> b -> c".
func (b *Builder[I, O]) Named(name string) *Builder[I, O] {
	return &Builder[I, O]{head: b.head, name: name}
}

// Build returns the pipeline as a single unit.
func (b *Builder[I, O]) Build() node.Node[I, O] {
	if b.name == "" {
		return b.head
	}
	return &named[I, O]{name: b.name, inner: b.head}
}

type named[I, O any] struct {
	name  string
	inner node.Node[I, O]
}

func (n *named[I, O]) Name() string { return n.name }

func (n *named[I, O]) Process(ctx context.Context, input I) (O, error) {
	return n.inner.Process(ctx, input)
}
