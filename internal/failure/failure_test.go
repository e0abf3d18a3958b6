package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadingFailure(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("get: %w", NewLoadingFailure("acme/repo", cause))

	assert.Equal(t, "get: load acme/repo: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsLoadingFailure(err))

	var lf *LoadingFailure
	require.True(t, errors.As(err, &lf))
	assert.Equal(t, "acme/repo", lf.Key())
	assert.Equal(t, KindLoad, lf.Kind())
	assert.Same(t, cause, lf.Cause())
}

func TestWritingFailure(t *testing.T) {
	err := NewWritingFailure(7, nil)

	assert.Equal(t, "write 7: unknown error", err.Error())
	assert.True(t, IsWritingFailure(err))
	assert.False(t, IsLoadingFailure(err))
}

func TestAsFailure_PlainErrorIsNotAFailure(t *testing.T) {
	_, ok := AsFailure(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsLoadingFailure(nil))
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindLoad:      "load",
		KindBulkLoad:  "bulk_load",
		KindWrite:     "write",
		KindBulkWrite: "bulk_write",
		Kind(42):      "kind(42)",
	}
	for k, want := range tests {
		assert.Equal(t, want, k.String())
	}
}

func TestCollect(t *testing.T) {
	t.Run("all loaded returns nil error", func(t *testing.T) {
		got, err := Collect(map[int]Outcome[string]{1: Loaded("a"), 2: Loaded("b")})
		require.NoError(t, err)
		assert.Equal(t, map[int]string{1: "a", 2: "b"}, got)
	})

	t.Run("partial failure keeps successes", func(t *testing.T) {
		got, err := Collect(map[int]Outcome[string]{
			1: Loaded("a"),
			2: Failed[string](errTimeout),
			3: Loaded("c"),
		})
		assert.Equal(t, map[int]string{1: "a", 3: "c"}, got)

		var bulk *BulkLoadingFailure[int, string]
		require.True(t, errors.As(err, &bulk))
		assert.Equal(t, []int{2}, bulk.Failures().Keys())
		assert.Equal(t, got, bulk.Successes().Clone())
	})

	t.Run("empty outcomes", func(t *testing.T) {
		got, err := Collect(map[int]Outcome[string]{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestOutcome_OK(t *testing.T) {
	assert.True(t, Loaded(1).OK())
	assert.False(t, Failed[int](errTimeout).OK())
}
