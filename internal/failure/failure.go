package failure

import (
	"errors"
	"fmt"
)

// Kind discriminates the failures raised by the cache when its loader or
// writer misbehaves.
type Kind int

const (
	KindLoad Kind = iota + 1
	KindBulkLoad
	KindWrite
	KindBulkWrite
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindBulkLoad:
		return "bulk_load"
	case KindWrite:
		return "write"
	case KindBulkWrite:
		return "bulk_write"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is implemented by every error the cache raises on behalf of its
// loader or writer. Callers that only care about "some cache failure"
// match on this interface instead of a concrete type.
type Failure interface {
	error
	Kind() Kind
	Message() string
	Cause() error
}

// AsFailure finds the first Failure in err's chain.
func AsFailure(err error) (Failure, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsLoadingFailure reports whether err carries a single-key or bulk loading failure.
func IsLoadingFailure(err error) bool {
	f, ok := AsFailure(err)
	if !ok {
		return false
	}
	return f.Kind() == KindLoad || f.Kind() == KindBulkLoad
}

// IsWritingFailure reports whether err carries a single-key or bulk writing failure.
func IsWritingFailure(err error) bool {
	f, ok := AsFailure(err)
	if !ok {
		return false
	}
	return f.Kind() == KindWrite || f.Kind() == KindBulkWrite
}

// LoadingFailure is raised when the loader fails for a single key.
type LoadingFailure struct {
	key   any
	cause error
}

func NewLoadingFailure(key any, cause error) *LoadingFailure {
	return &LoadingFailure{key: key, cause: cause}
}

func (e *LoadingFailure) Key() any        { return e.key }
func (e *LoadingFailure) Kind() Kind      { return KindLoad }
func (e *LoadingFailure) Cause() error    { return e.cause }
func (e *LoadingFailure) Unwrap() error   { return e.cause }
func (e *LoadingFailure) Error() string   { return e.Message() }
func (e *LoadingFailure) Message() string { return keyedMessage("load", e.key, e.cause) }

// WritingFailure is raised when the writer fails for a single key.
type WritingFailure struct {
	key   any
	cause error
}

func NewWritingFailure(key any, cause error) *WritingFailure {
	return &WritingFailure{key: key, cause: cause}
}

func (e *WritingFailure) Key() any        { return e.key }
func (e *WritingFailure) Kind() Kind      { return KindWrite }
func (e *WritingFailure) Cause() error    { return e.cause }
func (e *WritingFailure) Unwrap() error   { return e.cause }
func (e *WritingFailure) Error() string   { return e.Message() }
func (e *WritingFailure) Message() string { return keyedMessage("write", e.key, e.cause) }

func keyedMessage(op string, key any, cause error) string {
	if cause == nil {
		return fmt.Sprintf("%s %v: unknown error", op, key)
	}
	return fmt.Sprintf("%s %v: %v", op, key, cause)
}
