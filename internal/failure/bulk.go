package failure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOverlappingKeys = errors.New("keys present in both failures and successes")
	ErrMissingKeys     = errors.New("requested keys missing from result")
	ErrUnexpectedKeys  = errors.New("result contains keys that were not requested")
)

// BulkLoadingFailure is raised when the loader fails for one or more keys of
// a bulk load. It carries the complete outcome of the batch: the error for
// every key that failed and the value for every key that loaded, so callers
// can keep the successes and decide per key what to do with the rest.
//
// The two key sets are expected to be disjoint and, together, to cover the
// requested keys. The constructors do not check this; use Validate.
type BulkLoadingFailure[K comparable, V any] struct {
	message   string
	failures  View[K, error]
	successes View[K, V]
}

// NewBulkLoadingFailure builds a failure with a generated message. nil maps
// are treated as empty.
func NewBulkLoadingFailure[K comparable, V any](failures map[K]error, successes map[K]V) *BulkLoadingFailure[K, V] {
	return NewBulkLoadingFailureWithMessage("", failures, successes)
}

// NewBulkLoadingFailureWithMessage builds a failure with an explicit message.
// An empty message falls back to the generated one.
func NewBulkLoadingFailureWithMessage[K comparable, V any](message string, failures map[K]error, successes map[K]V) *BulkLoadingFailure[K, V] {
	return &BulkLoadingFailure[K, V]{
		message:   message,
		failures:  newView(failures),
		successes: newView(successes),
	}
}

func (e *BulkLoadingFailure[K, V]) Failures() View[K, error] { return e.failures }
func (e *BulkLoadingFailure[K, V]) Successes() View[K, V]    { return e.successes }
func (e *BulkLoadingFailure[K, V]) Kind() Kind               { return KindBulkLoad }
func (e *BulkLoadingFailure[K, V]) Error() string            { return e.Message() }

func (e *BulkLoadingFailure[K, V]) Message() string {
	if e.message != "" {
		return e.message
	}
	total := e.failures.Len() + e.successes.Len()
	return fmt.Sprintf("bulk load failed for %d of %d keys", e.failures.Len(), total)
}

// Cause is nil when no per-key error was recorded, the error itself when
// exactly one was, and a join of all of them otherwise.
func (e *BulkLoadingFailure[K, V]) Cause() error {
	errs := e.Unwrap()
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// Unwrap exposes every per-key error to errors.Is and errors.As.
func (e *BulkLoadingFailure[K, V]) Unwrap() []error {
	return collectErrors(e.failures)
}

// Validate checks that the failure and success key sets are disjoint and
// together match requested exactly. Duplicate requested keys are allowed.
func (e *BulkLoadingFailure[K, V]) Validate(requested []K) error {
	return validateCoverage(e.failures, e.successes, requested)
}

// BulkWritingFailure is raised when the writer fails for one or more keys of
// a bulk write. Successes holds the keys that were written.
type BulkWritingFailure[K comparable] struct {
	message   string
	failures  View[K, error]
	successes View[K, struct{}]
}

func NewBulkWritingFailure[K comparable](failures map[K]error, successes []K) *BulkWritingFailure[K] {
	return NewBulkWritingFailureWithMessage("", failures, successes)
}

func NewBulkWritingFailureWithMessage[K comparable](message string, failures map[K]error, successes []K) *BulkWritingFailure[K] {
	written := make(map[K]struct{}, len(successes))
	for _, k := range successes {
		written[k] = struct{}{}
	}
	return &BulkWritingFailure[K]{
		message:   message,
		failures:  newView(failures),
		successes: View[K, struct{}]{m: written},
	}
}

func (e *BulkWritingFailure[K]) Failures() View[K, error]      { return e.failures }
func (e *BulkWritingFailure[K]) Successes() View[K, struct{}] { return e.successes }
func (e *BulkWritingFailure[K]) Kind() Kind                    { return KindBulkWrite }
func (e *BulkWritingFailure[K]) Error() string                 { return e.Message() }
func (e *BulkWritingFailure[K]) Unwrap() []error               { return collectErrors(e.failures) }

func (e *BulkWritingFailure[K]) Message() string {
	if e.message != "" {
		return e.message
	}
	total := e.failures.Len() + e.successes.Len()
	return fmt.Sprintf("bulk write failed for %d of %d keys", e.failures.Len(), total)
}

func (e *BulkWritingFailure[K]) Cause() error {
	errs := e.Unwrap()
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

func (e *BulkWritingFailure[K]) Validate(requested []K) error {
	return validateCoverage(e.failures, e.successes, requested)
}

func collectErrors[K comparable](failures View[K, error]) []error {
	if failures.Len() == 0 {
		return nil
	}
	errs := make([]error, 0, failures.Len())
	for _, err := range failures.All() {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateCoverage[K comparable, V any](failures View[K, error], successes View[K, V], requested []K) error {
	var overlap []string
	for k := range failures.All() {
		if successes.Has(k) {
			overlap = append(overlap, fmt.Sprint(k))
		}
	}
	if len(overlap) > 0 {
		return fmt.Errorf("%w: %s", ErrOverlappingKeys, strings.Join(overlap, ", "))
	}

	want := make(map[K]struct{}, len(requested))
	var missing []string
	for _, k := range requested {
		if _, seen := want[k]; seen {
			continue
		}
		want[k] = struct{}{}
		if !failures.Has(k) && !successes.Has(k) {
			missing = append(missing, fmt.Sprint(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}

	var unexpected []string
	for _, k := range failures.Keys() {
		if _, ok := want[k]; !ok {
			unexpected = append(unexpected, fmt.Sprint(k))
		}
	}
	for _, k := range successes.Keys() {
		if _, ok := want[k]; !ok {
			unexpected = append(unexpected, fmt.Sprint(k))
		}
	}
	if len(unexpected) > 0 {
		return fmt.Errorf("%w: %s", ErrUnexpectedKeys, strings.Join(unexpected, ", "))
	}
	return nil
}
