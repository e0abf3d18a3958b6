package loader

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

// Memory is an in-memory Loader and Writer. Errors can be injected per key,
// and every Load/Write call is counted.
type Memory[K comparable, V any] struct {
	mu        sync.RWMutex
	values    map[K]V
	loadErrs  map[K]error
	writeErrs map[K]error

	loads  atomic.Int64
	writes atomic.Int64
}

func NewMemory[K comparable, V any](values map[K]V) *Memory[K, V] {
	m := &Memory[K, V]{
		values:    make(map[K]V, len(values)),
		loadErrs:  make(map[K]error),
		writeErrs: make(map[K]error),
	}
	maps.Copy(m.values, values)
	return m
}

// FailLoad makes subsequent loads of key return err. A nil err clears it.
func (m *Memory[K, V]) FailLoad(key K, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.loadErrs, key)
		return
	}
	m.loadErrs[key] = err
}

// FailWrite makes subsequent writes and deletes of key return err. A nil err clears it.
func (m *Memory[K, V]) FailWrite(key K, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.writeErrs, key)
		return
	}
	m.writeErrs[key] = err
}

func (m *Memory[K, V]) Load(ctx context.Context, key K) (V, error) {
	var zero V
	if ctx == nil {
		return zero, fmt.Errorf("Load: nil context")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	m.loads.Add(1)

	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.loadErrs[key]; err != nil {
		return zero, err
	}
	v, ok := m.values[key]
	if !ok {
		return zero, fmt.Errorf("%v: %w", key, ErrNotFound)
	}
	return v, nil
}

func (m *Memory[K, V]) Write(ctx context.Context, key K, value V) error {
	if ctx == nil {
		return fmt.Errorf("Write: nil context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.writes.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErrs[key]; err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

func (m *Memory[K, V]) Delete(ctx context.Context, key K) error {
	if ctx == nil {
		return fmt.Errorf("Delete: nil context")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErrs[key]; err != nil {
		return err
	}
	delete(m.values, key)
	return nil
}

func (m *Memory[K, V]) Loads() int64 {
	return m.loads.Load()
}

func (m *Memory[K, V]) Writes() int64 {
	return m.writes.Load()
}

// Snapshot returns a copy of the stored values.
func (m *Memory[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}
