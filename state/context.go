package state

import "context"

type ctxKey[K comparable, V any] struct{}

// ContextWithStore returns a copy of ctx carrying s. Stateful links attach
// their store this way so that a unit shared between several links reads
// the store of the link that is calling it, even when calls overlap.
func ContextWithStore[K comparable, V any](ctx context.Context, s *Store[K, V]) context.Context {
	return context.WithValue(ctx, ctxKey[K, V]{}, s)
}

// FromContext returns the store attached by ContextWithStore, if any.
func FromContext[K comparable, V any](ctx context.Context) (*Store[K, V], bool) {
	s, ok := ctx.Value(ctxKey[K, V]{}).(*Store[K, V])
	return s, ok && s != nil
}

// StoreFor returns the store carried by ctx, falling back to fallback.
func StoreFor[K comparable, V any](ctx context.Context, fallback *Store[K, V]) *Store[K, V] {
	if s, ok := FromContext[K, V](ctx); ok {
		return s
	}
	return fallback
}
