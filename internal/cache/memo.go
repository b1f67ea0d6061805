// Package cache provides a generic concurrency-safe memoization table
// with single-flight semantics: concurrent callers asking for the same
// key share one computation instead of racing duplicate work.
package cache

import (
	"context"
	"sync"
)

// entry holds the eventual result of one producer invocation. ready is
// closed exactly once, after value and err are set, so waiters may read
// both fields without further synchronization.
type entry[V any] struct {
	value V
	err   error
	ready chan struct{}
}

// Memo caches computed values by key for the lifetime of the process.
// Entries are never evicted; callers that need bounded memory should
// create a fresh Memo per batch run. Failed computations are forgotten
// immediately so a later call can retry.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
}

// New creates an empty Memo.
func New[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: make(map[K]*entry[V])}
}

// GetOrCompute returns the value cached under key. If another caller
// is already computing it, the call blocks until that computation
// finishes and returns its result. Otherwise produce runs exactly
// once, outside the table lock, so unrelated keys never wait on each
// other's I/O.
//
// A waiter whose ctx expires unblocks with ctx.Err(); the in-flight
// computation itself keeps running and its result is still cached.
func (m *Memo[K, V]) GetOrCompute(ctx context.Context, key K, produce func(ctx context.Context) (V, error)) (V, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry[V]{ready: make(chan struct{})}
		m.entries[key] = e
		m.mu.Unlock()

		e.value, e.err = produce(ctx)
		if e.err != nil {
			// Drop the failed entry before waking waiters: the error
			// reaches everyone blocked on this invocation, while the
			// next GetOrCompute starts clean.
			m.mu.Lock()
			delete(m.entries, key)
			m.mu.Unlock()
		}
		close(e.ready)
		return e.value, e.err
	}
	m.mu.Unlock()

	select {
	case <-e.ready:
		return e.value, e.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Len returns the number of ready or in-flight entries.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
