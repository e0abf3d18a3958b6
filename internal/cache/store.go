package cache

import "sync"

type store[K comparable, V any] struct {
	data sync.Map
}

func (s *store[K, V]) get(key K) (V, bool) {
	v, ok := s.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	val, ok := v.(V)
	return val, ok
}

func (s *store[K, V]) set(key K, value V) {
	s.data.Store(key, value)
}

func (s *store[K, V]) remove(key K) {
	s.data.Delete(key)
}

func (s *store[K, V]) len() int {
	n := 0
	s.data.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
