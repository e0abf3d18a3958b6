package failure

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
)

// View is a read-only mapping. It has no mutating methods; Clone hands out an
// independent copy for callers that need one.
type View[K comparable, V any] struct {
	m map[K]V
}

// newView copies m so later writes to the caller's map are not observed.
// Values are shared, not deep-copied.
func newView[K comparable, V any](m map[K]V) View[K, V] {
	if len(m) == 0 {
		return View[K, V]{}
	}
	return View[K, V]{m: maps.Clone(m)}
}

func (v View[K, V]) Get(key K) (V, bool) {
	val, ok := v.m[key]
	return val, ok
}

func (v View[K, V]) Has(key K) bool {
	_, ok := v.m[key]
	return ok
}

func (v View[K, V]) Len() int {
	return len(v.m)
}

// Keys returns the keys in a stable order: numeric keys by value, string
// keys lexically, anything else by its formatted representation.
func (v View[K, V]) Keys() []K {
	return sortedKeys(v.m)
}

// All iterates entries in the same order as Keys.
func (v View[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range sortedKeys(v.m) {
			if !yield(k, v.m[k]) {
				return
			}
		}
	}
}

// Clone returns a new, never-nil map holding the view's entries.
func (v View[K, V]) Clone() map[K]V {
	out := make(map[K]V, len(v.m))
	maps.Copy(out, v.m)
	return out
}

func sortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys[K])
	return keys
}

// compareKeys orders two keys of the same kind by value. Keys of other or
// mixed kinds (possible when K is an interface type) compare by their
// formatted form, then by type name.
func compareKeys[K comparable](a, b K) int {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsValid() && vb.IsValid() && va.Kind() == vb.Kind() {
		switch va.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(va.Int(), vb.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return cmp.Compare(va.Uint(), vb.Uint())
		case reflect.Float32, reflect.Float64:
			return cmp.Compare(va.Float(), vb.Float())
		case reflect.String:
			return cmp.Compare(va.String(), vb.String())
		}
	}
	return cmp.Or(
		cmp.Compare(fmt.Sprint(a), fmt.Sprint(b)),
		cmp.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)),
	)
}
