package cache

import (
	"errors"
	"sync"
)

var errLoadPanicked = errors.New("load panicked")

// flightGroup dedupes concurrent loads of the same key. Calls are keyed by
// the key value itself, so keys that merely print alike never share a load.
type flightGroup[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*flightCall[V]
}

type flightCall[V any] struct {
	done chan struct{}
	val  V
	err  error
	dups int
}

// do runs fn once per key among concurrent callers. shared reports whether
// the result was handed to more than one caller.
func (g *flightGroup[K, V]) do(key K, fn func() (V, error)) (v V, err error, shared bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*flightCall[V])
	}
	if c, ok := g.calls[key]; ok {
		c.dups++
		g.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}
	c := &flightCall[V]{done: make(chan struct{}), err: errLoadPanicked}
	g.calls[key] = c
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		shared = c.dups > 0
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}
