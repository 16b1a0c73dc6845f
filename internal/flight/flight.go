// Package flight deduplicates concurrent keyed computations. All callers
// issuing the same key while a computation is in flight attach to the one
// pending outcome instead of starting their own, so an expensive operation
// runs at most once per key at any moment.
package flight

import (
	"context"
	"sync"
)

type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Group deduplicates in-flight computations by key.
//
// The zero value is not usable; construct with NewGroup. A Group is safe for
// concurrent use.
type Group[V any] struct {
	mu    sync.Mutex
	calls map[string]*call[V]
}

// NewGroup builds one empty single-flight group.
func NewGroup[V any]() *Group[V] {
	return &Group[V]{calls: make(map[string]*call[V])}
}

// Do executes fn under single-flight semantics for the key.
//
// The first caller for an idle key starts fn; every concurrent caller with
// the same key attaches to that pending outcome and reports shared=true.
// fn runs on its own goroutine with cancellation severed from the initiating
// caller: a caller whose ctx ends merely detaches with ctx.Err() while the
// computation keeps running for the remaining waiters. Outcomes, success or
// failure, are delivered identically to every attached caller and are never
// retained: the key is idle again before waiters are released, so a
// follow-up call re-executes rather than replaying an earlier failure.
func (g *Group[V]) Do(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, bool, error) {
	var zero V

	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	g.mu.Lock()
	if pending, exists := g.calls[key]; exists {
		g.mu.Unlock()
		return g.wait(ctx, pending, true)
	}

	started := &call[V]{done: make(chan struct{})}
	g.calls[key] = started
	g.mu.Unlock()

	go func() {
		value, err := fn(context.WithoutCancel(ctx))

		// Remove the in-flight entry before releasing waiters so a caller
		// woken by done never re-attaches to a settled call.
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()

		started.value = value
		started.err = err
		close(started.done)
	}()

	return g.wait(ctx, started, false)
}

// InFlight reports whether a computation for the key is currently pending.
func (g *Group[V]) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, exists := g.calls[key]

	return exists
}

func (g *Group[V]) wait(ctx context.Context, pending *call[V], shared bool) (V, bool, error) {
	var zero V

	select {
	case <-pending.done:
		return pending.value, shared, pending.err
	case <-ctx.Done():
		return zero, shared, ctx.Err()
	}
}
