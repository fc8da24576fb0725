// Package state provides the shared keyed store that stateful units read
// and write while a pipeline runs.
//
// A Store is a handle: Clone returns another handle onto the same map, so
// every unit a store is injected into observes the others' writes. Each
// method holds the lock for a single map operation only.
//
//	history := state.New[string, []llm.Turn]()
//	state.Push(history, "agent_history", turn)
package state

import (
	"maps"
	"slices"
	"sync"
)

// Store is a concurrency-safe map shared by every handle cloned from it.
// The zero value is not usable; create stores with New.
type Store[K comparable, V any] struct {
	shared *table[K, V]
}

type table[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates an empty store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{shared: &table[K, V]{data: make(map[K]V)}}
}

// Clone returns another handle onto the same underlying map.
func (s *Store[K, V]) Clone() *Store[K, V] {
	return &Store[K, V]{shared: s.shared}
}

// Shares reports whether s and other are handles onto the same map.
func (s *Store[K, V]) Shares(other *Store[K, V]) bool {
	return other != nil && s.shared == other.shared
}

// Get returns the value stored at k.
func (s *Store[K, V]) Get(k K) (V, bool) {
	s.shared.mu.RLock()
	defer s.shared.mu.RUnlock()
	v, ok := s.shared.data[k]
	return v, ok
}

// Insert stores v at k and returns the value it replaced, if any.
func (s *Store[K, V]) Insert(k K, v V) (V, bool) {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	old, ok := s.shared.data[k]
	s.shared.data[k] = v
	return old, ok
}

// Remove deletes k and returns the value it held, if any.
func (s *Store[K, V]) Remove(k K) (V, bool) {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	old, ok := s.shared.data[k]
	delete(s.shared.data, k)
	return old, ok
}

// Update replaces the value at k with fn(current, present) in one critical
// section and returns the new value. fn must not block or touch the store.
func (s *Store[K, V]) Update(k K, fn func(current V, ok bool) V) V {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	cur, ok := s.shared.data[k]
	next := fn(cur, ok)
	s.shared.data[k] = next
	return next
}

// Contains reports whether k is present.
func (s *Store[K, V]) Contains(k K) bool {
	s.shared.mu.RLock()
	defer s.shared.mu.RUnlock()
	_, ok := s.shared.data[k]
	return ok
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	s.shared.mu.RLock()
	defer s.shared.mu.RUnlock()
	return len(s.shared.data)
}

// IsEmpty reports whether the store has no entries.
func (s *Store[K, V]) IsEmpty() bool {
	return s.Len() == 0
}

// Clear removes every entry.
func (s *Store[K, V]) Clear() {
	s.shared.mu.Lock()
	defer s.shared.mu.Unlock()
	clear(s.shared.data)
}

// Keys returns the keys in unspecified order.
func (s *Store[K, V]) Keys() []K {
	s.shared.mu.RLock()
	defer s.shared.mu.RUnlock()
	return slices.Collect(maps.Keys(s.shared.data))
}

// Values returns the values in unspecified order.
func (s *Store[K, V]) Values() []V {
	s.shared.mu.RLock()
	defer s.shared.mu.RUnlock()
	return slices.Collect(maps.Values(s.shared.data))
}

// Snapshot returns a copy of the map at the time of the call.
func (s *Store[K, V]) Snapshot() map[K]V {
	s.shared.mu.RLock()
	defer s.shared.mu.RUnlock()
	return maps.Clone(s.shared.data)
}

// Push appends v to the list stored at k, creating the list when absent.
// Lists are copy-on-write: a slice returned by Get is never modified by a
// later Push.
func Push[K comparable, E any](s *Store[K, []E], k K, v ...E) []E {
	return s.Update(k, func(cur []E, _ bool) []E {
		next := make([]E, len(cur), len(cur)+len(v))
		copy(next, cur)
		return append(next, v...)
	})
}

// Aware is implemented by units that accept a store before each call.
// Stateful links call SetState right before Process and also attach the
// store to the call's context. A unit shared by links with different
// stores should read it with StoreFor, since SetState on a shared unit is
// last-writer-wins when calls overlap.
type Aware[K comparable, V any] interface {
	SetState(store *Store[K, V])
}
