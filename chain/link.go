package chain

import (
	"context"

	"github.com/kbukum/chainkit/node"
	"github.com/kbukum/chainkit/state"
)

// Link runs cur and, only if it succeeds, feeds its output to next.
// The returned unit is named "cur -> next".
func Link[I, M, O any](cur node.Node[I, M], next node.Node[M, O]) node.Node[I, O] {
	return &link[I, M, O]{
		name: cur.Name() + " -> " + next.Name(),
		cur:  cur,
		next: next,
	}
}

type link[I, M, O any] struct {
	name string
	cur  node.Node[I, M]
	next node.Node[M, O]
}

func (l *link[I, M, O]) Name() string { return l.name }

func (l *link[I, M, O]) Process(ctx context.Context, input I) (O, error) {
	mid, err := l.cur.Process(ctx, input)
	if err != nil {
		var zero O
		return zero, err
	}
	return l.next.Process(ctx, mid)
}

// StatefulNode is a unit that accepts a shared store before it runs.
type StatefulNode[I, O any, K comparable, V any] interface {
	node.Node[I, O]
	state.Aware[K, V]
}

// LinkWithState behaves like Link, and additionally injects store into next
// immediately before each of its calls. A nil store is replaced by a fresh
// one owned by the link.
//
// The store is handed over twice: through SetState, and attached to the
// context passed to next (see state.ContextWithStore). When the same next
// unit sits behind several links with different stores and is called
// concurrently, only the context copy is tied to the call; such units
// should resolve their store with state.StoreFor.
func LinkWithState[I, M, O any, K comparable, V any](
	cur node.Node[I, M],
	next StatefulNode[M, O, K, V],
	store *state.Store[K, V],
) node.Node[I, O] {
	if store == nil {
		store = state.New[K, V]()
	}
	return &statefulLink[I, M, O, K, V]{
		link:  link[I, M, O]{name: cur.Name() + " -> " + next.Name(), cur: cur, next: next},
		aware: next,
		store: store,
	}
}

type statefulLink[I, M, O any, K comparable, V any] struct {
	link[I, M, O]
	aware state.Aware[K, V]
	store *state.Store[K, V]
}

func (l *statefulLink[I, M, O, K, V]) Process(ctx context.Context, input I) (O, error) {
	mid, err := l.cur.Process(ctx, input)
	if err != nil {
		var zero O
		return zero, err
	}
	l.aware.SetState(l.store)
	return l.next.Process(state.ContextWithStore(ctx, l.store), mid)
}

// Store returns the store the link injects.
func (l *statefulLink[I, M, O, K, V]) Store() *state.Store[K, V] { return l.store }
