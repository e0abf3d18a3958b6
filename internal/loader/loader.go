package loader

import (
	"context"
	"errors"
)

// ErrNotFound is returned (possibly wrapped) when the source has no value for a key.
var ErrNotFound = errors.New("key not found")

// Loader fetches the value for a single key from the source of truth.
type Loader[K comparable, V any] interface {
	Load(ctx context.Context, key K) (V, error)
}

// BulkLoader is implemented by loaders that can resolve many keys in one call.
//
// LoadAll may return a *failure.BulkLoadingFailure[K, V] to report a partial
// result. Any other non-nil error is treated as a failure of every requested
// key. Keys absent from the returned map (with a nil error) are treated as
// not found.
type BulkLoader[K comparable, V any] interface {
	Loader[K, V]
	LoadAll(ctx context.Context, keys []K) (map[K]V, error)
}

// Writer persists values back to the source of truth.
type Writer[K comparable, V any] interface {
	Write(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
}
