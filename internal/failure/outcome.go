package failure

// Outcome is the result of loading a single key: a value or an error.
type Outcome[V any] struct {
	Value V
	Err   error
}

func Loaded[V any](v V) Outcome[V] {
	return Outcome[V]{Value: v}
}

func Failed[V any](err error) Outcome[V] {
	return Outcome[V]{Err: err}
}

func (o Outcome[V]) OK() bool {
	return o.Err == nil
}

// Partition splits per-key outcomes into disjoint failure and success maps.
// Both returned maps are non-nil.
func Partition[K comparable, V any](outcomes map[K]Outcome[V]) (map[K]error, map[K]V) {
	failures := make(map[K]error)
	successes := make(map[K]V, len(outcomes))
	for k, o := range outcomes {
		if o.Err != nil {
			failures[k] = o.Err
			continue
		}
		successes[k] = o.Value
	}
	return failures, successes
}

// Collect returns the loaded values and, if any key failed, a
// *BulkLoadingFailure describing the whole batch.
func Collect[K comparable, V any](outcomes map[K]Outcome[V]) (map[K]V, error) {
	failures, successes := Partition(outcomes)
	if len(failures) == 0 {
		return successes, nil
	}
	return successes, NewBulkLoadingFailure(failures, successes)
}
