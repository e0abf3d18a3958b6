package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"keyload/internal/failure"
	"keyload/internal/loader"
)

// ErrReadOnly is returned by Put, PutAll and Remove when the loader does not
// implement loader.Writer.
var ErrReadOnly = errors.New("cache loader does not support writes")

const defaultConcurrency = 8

type Cache[K comparable, V any] struct {
	loader      loader.Loader[K, V]
	entries     store[K, V]
	group       flightGroup[K, V]
	concurrency int
	strict      bool
	logger      *slog.Logger
}

type options struct {
	concurrency int
	strict      bool
	logger      *slog.Logger
}

type Option func(*options)

// WithConcurrency bounds the number of in-flight per-key loads and writes.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithStrict makes GetAll reject bulk loader results whose failure and
// success key sets overlap, miss requested keys, or contain extra keys.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func New[K comparable, V any](l loader.Loader[K, V], opts ...Option) (*Cache[K, V], error) {
	if l == nil {
		return nil, errors.New("loader is nil")
	}

	o := &options{concurrency: defaultConcurrency}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", o.concurrency)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Cache[K, V]{
		loader:      l,
		concurrency: o.concurrency,
		strict:      o.strict,
		logger:      o.logger,
	}, nil
}

// Get returns the cached value for key, loading it on a miss. Concurrent
// misses for the same key share one load. Loader errors are returned as a
// *failure.LoadingFailure and are not cached.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if ctx == nil {
		return zero, fmt.Errorf("Get: nil context")
	}
	if c == nil || c.loader == nil {
		return zero, fmt.Errorf("Get: nil cache (use New)")
	}

	if v, ok := c.entries.get(key); ok {
		return v, nil
	}
	v, err := c.loadOne(ctx, key)
	if err != nil {
		return zero, failure.NewLoadingFailure(key, err)
	}
	c.entries.set(key, v)
	return v, nil
}

// GetAll resolves every key, serving hits from the cache and loading the
// misses. The returned map holds every value that could be obtained, even
// when the error is non-nil.
//
// If one or more keys failed, the error is a *failure.BulkLoadingFailure[K, V]
// whose failures and successes partition the distinct requested keys. Keys
// left unattempted because ctx was canceled are reported as failures with the
// context's error. Other errors (nil cache, strict-mode contract violations)
// are returned as-is with a nil map.
func (c *Cache[K, V]) GetAll(ctx context.Context, keys []K) (map[K]V, error) {
	if ctx == nil {
		return nil, fmt.Errorf("GetAll: nil context")
	}
	if c == nil || c.loader == nil {
		return nil, fmt.Errorf("GetAll: nil cache (use New)")
	}

	requested := dedupe(keys)
	outcomes := make(map[K]failure.Outcome[V], len(requested))

	var misses []K
	for _, k := range requested {
		if v, ok := c.entries.get(k); ok {
			outcomes[k] = failure.Loaded(v)
			continue
		}
		misses = append(misses, k)
	}

	if len(misses) > 0 {
		var loaded map[K]failure.Outcome[V]
		if bl, ok := c.loader.(loader.BulkLoader[K, V]); ok {
			var err error
			loaded, err = c.loadBulk(ctx, bl, misses)
			if err != nil {
				return nil, err
			}
		} else {
			loaded = c.loadEach(ctx, misses)
		}
		for k, o := range loaded {
			outcomes[k] = o
			if o.OK() {
				c.entries.set(k, o.Value)
			}
		}
	}

	values, err := failure.Collect(outcomes)
	c.logger.Debug("bulk load finished",
		"requested", len(requested),
		"hits", len(requested)-len(misses),
		"loaded", len(values),
		"failed", len(outcomes)-len(values),
	)
	if err == nil {
		return values, nil
	}

	if c.strict {
		var bulk *failure.BulkLoadingFailure[K, V]
		if errors.As(err, &bulk) {
			if verr := bulk.Validate(requested); verr != nil {
				return nil, fmt.Errorf("GetAll: inconsistent bulk result: %w", verr)
			}
		}
	}
	return values, err
}

func (c *Cache[K, V]) loadOne(ctx context.Context, key K) (V, error) {
	v, err, _ := c.group.do(key, func() (V, error) {
		return c.loader.Load(ctx, key)
	})
	return v, err
}

// loadEach loads keys one by one with at most c.concurrency in flight. Each
// key ends up with exactly one outcome.
func (c *Cache[K, V]) loadEach(ctx context.Context, keys []K) map[K]failure.Outcome[V] {
	out := make(map[K]failure.Outcome[V], len(keys))
	var mu sync.Mutex
	record := func(k K, o failure.Outcome[V]) {
		mu.Lock()
		out[k] = o
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			record(k, failure.Failed[V](err))
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(k, failure.Failed[V](err))
				return nil
			}
			v, err := c.loadOne(ctx, k)
			if err != nil {
				record(k, failure.Failed[V](err))
				return nil
			}
			record(k, failure.Loaded(v))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// loadBulk delegates to the loader's LoadAll and normalizes its answer into
// one outcome per key.
func (c *Cache[K, V]) loadBulk(ctx context.Context, bl loader.BulkLoader[K, V], keys []K) (map[K]failure.Outcome[V], error) {
	out := make(map[K]failure.Outcome[V], len(keys))
	if err := ctx.Err(); err != nil {
		for _, k := range keys {
			out[k] = failure.Failed[V](err)
		}
		return out, nil
	}

	values, err := bl.LoadAll(ctx, keys)
	if err != nil {
		var partial *failure.BulkLoadingFailure[K, V]
		if !errors.As(err, &partial) {
			for _, k := range keys {
				out[k] = failure.Failed[V](err)
			}
			return out, nil
		}
		if c.strict {
			if verr := partial.Validate(keys); verr != nil {
				return nil, fmt.Errorf("GetAll: loader returned inconsistent bulk result: %w", verr)
			}
		}
		values = partial.Successes().Clone()
		for k, ferr := range partial.Failures().All() {
			if ferr == nil {
				ferr = fmt.Errorf("%s: loader reported failure without an error", keyString(k))
			}
			out[k] = failure.Failed[V](ferr)
		}
	}

	for _, k := range keys {
		if _, failed := out[k]; failed {
			if _, both := values[k]; both {
				c.logger.Warn("loader reported key as both failed and loaded; keeping failure", "key", keyString(k))
			}
			continue
		}
		v, ok := values[k]
		if !ok {
			out[k] = failure.Failed[V](fmt.Errorf("%s: %w", keyString(k), loader.ErrNotFound))
			continue
		}
		out[k] = failure.Loaded(v)
	}

	// Drop anything the loader answered that was not asked for.
	want := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	for k := range out {
		if _, ok := want[k]; !ok {
			delete(out, k)
		}
	}
	return out, nil
}

// Put writes value through to the loader and caches it on success.
func (c *Cache[K, V]) Put(ctx context.Context, key K, value V) error {
	if ctx == nil {
		return fmt.Errorf("Put: nil context")
	}
	if c == nil || c.loader == nil {
		return fmt.Errorf("Put: nil cache (use New)")
	}
	w, ok := c.loader.(loader.Writer[K, V])
	if !ok {
		return ErrReadOnly
	}
	if err := w.Write(ctx, key, value); err != nil {
		c.entries.remove(key)
		return failure.NewWritingFailure(key, err)
	}
	c.entries.set(key, value)
	return nil
}

// PutAll writes every entry through to the loader. Written entries are
// cached. If any write fails the error is a *failure.BulkWritingFailure[K].
func (c *Cache[K, V]) PutAll(ctx context.Context, entries map[K]V) error {
	if ctx == nil {
		return fmt.Errorf("PutAll: nil context")
	}
	if c == nil || c.loader == nil {
		return fmt.Errorf("PutAll: nil cache (use New)")
	}
	w, ok := c.loader.(loader.Writer[K, V])
	if !ok {
		return ErrReadOnly
	}

	var (
		mu       sync.Mutex
		failures = make(map[K]error)
		written  []K
	)

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for k, v := range entries {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = w.Write(ctx, k, v)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[k] = err
				c.entries.remove(k)
				return nil
			}
			written = append(written, k)
			c.entries.set(k, v)
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return failure.NewBulkWritingFailure(failures, written)
	}
	return nil
}

// Remove deletes key at the source and drops it from the cache.
func (c *Cache[K, V]) Remove(ctx context.Context, key K) error {
	if ctx == nil {
		return fmt.Errorf("Remove: nil context")
	}
	if c == nil || c.loader == nil {
		return fmt.Errorf("Remove: nil cache (use New)")
	}
	w, ok := c.loader.(loader.Writer[K, V])
	if !ok {
		return ErrReadOnly
	}
	c.entries.remove(key)
	if err := w.Delete(ctx, key); err != nil {
		return failure.NewWritingFailure(key, err)
	}
	return nil
}

// Invalidate drops key from the cache without touching the source.
func (c *Cache[K, V]) Invalidate(key K) {
	if c == nil {
		return
	}
	c.entries.remove(key)
}

func (c *Cache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.len()
}

func keyString[K comparable](k K) string {
	return fmt.Sprint(k)
}

func dedupe[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
