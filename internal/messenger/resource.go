package messenger

import (
	"context"

	"go.uber.org/zap"
)

// Resource mirrors a server-side value that depends on a key. A fetch result
// replaces the cached value wholesale; a failed fetch keeps the last good one.
// Resource is not safe for concurrent use: it is owned by the scheduler loop.
type Resource[K comparable, V any] struct {
	name   string
	sched  Scheduler
	logger *zap.Logger
	fetch  func(ctx context.Context, key K) (V, error)
	// idle reports keys that have no server-side value (for example the empty
	// conversation id of a draft). Such keys resolve to the zero value without
	// a fetch.
	idle func(K) bool

	key     K
	value   V
	loaded  bool
	issued  uint64
	applied uint64

	onResolve func()
}

func newResource[K comparable, V any](name string, sched Scheduler, logger *zap.Logger, fetch func(context.Context, K) (V, error)) *Resource[K, V] {
	return &Resource[K, V]{
		name:   name,
		sched:  sched,
		logger: logger,
		fetch:  fetch,
	}
}

// Key returns the current dependency key.
func (r *Resource[K, V]) Key() K { return r.key }

// Value returns the last successfully fetched value for the current key.
func (r *Resource[K, V]) Value() V { return r.value }

// Loaded reports whether a fetch for the current key has succeeded.
func (r *Resource[K, V]) Loaded() bool { return r.loaded }

// SetKey changes the dependency key. A changed key drops the value cached for
// the previous key; the caller decides when to fetch. Reports whether the key
// changed.
func (r *Resource[K, V]) SetKey(key K) bool {
	if key == r.key {
		return false
	}
	var zero V
	r.key = key
	r.value = zero
	r.loaded = false
	return true
}

// Ensure fetches the current key unless it has already been loaded.
func (r *Resource[K, V]) Ensure() {
	if !r.loaded {
		r.Refresh()
	}
}

// Refresh invalidates the current key and fetches it again.
func (r *Resource[K, V]) Refresh() {
	key := r.key
	if r.idle != nil && r.idle(key) {
		var zero V
		r.value = zero
		r.loaded = true
		r.resolved()
		return
	}
	r.issued++
	gen := r.issued
	r.sched.Go(func(ctx context.Context) func() {
		v, err := r.fetch(ctx, key)
		return func() { r.resolve(gen, key, v, err) }
	})
}

func (r *Resource[K, V]) resolve(gen uint64, key K, v V, err error) {
	if key != r.key {
		r.logger.Debug("dropping result for stale key", zap.String("resource", r.name))
		return
	}
	if gen < r.applied {
		r.logger.Debug("dropping out-of-order result", zap.String("resource", r.name), zap.Uint64("generation", gen))
		return
	}
	if err != nil {
		r.logger.Warn("fetch failed, keeping last value", zap.String("resource", r.name), zap.Error(err))
		return
	}
	r.applied = gen
	r.value = v
	r.loaded = true
	r.resolved()
}

func (r *Resource[K, V]) resolved() {
	if r.onResolve != nil {
		r.onResolve()
	}
}
