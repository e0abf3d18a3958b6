package github

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBudget(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	newBudget := func(remaining int, reset time.Time) *RequestBudget {
		b := NewRequestBudget()
		b.now = func() time.Time { return fixedNow }
		b.mu.Lock()
		b.remaining = remaining
		b.reset = reset
		b.mu.Unlock()
		return b
	}

	headers := func(kv ...string) *http.Response {
		resp := &http.Response{Header: make(http.Header)}
		for i := 0; i+1 < len(kv); i += 2 {
			resp.Header.Set(kv[i], kv[i+1])
		}
		return resp
	}

	shortCtx := func(t *testing.T) context.Context {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		t.Cleanup(cancel)
		return ctx
	}

	t.Run("Acquire decrements", func(t *testing.T) {
		b := newBudget(2, fixedNow.Add(time.Hour))
		require.NoError(t, b.Acquire(context.Background(), 2))
		assert.Equal(t, 0, b.Remaining())
	})

	t.Run("UpdateFromResponse sets remaining and reset", func(t *testing.T) {
		b := newBudget(5000, fixedNow.Add(time.Hour))
		b.UpdateFromResponse(headers("X-RateLimit-Remaining", "10", "X-RateLimit-Reset", "1700000000"))

		assert.Equal(t, 10, b.Remaining())
		b.mu.Lock()
		defer b.mu.Unlock()
		assert.True(t, b.reset.Equal(time.Unix(1700000000, 0)))
	})

	t.Run("Retry-After causes cooldown blocking", func(t *testing.T) {
		b := newBudget(5000, fixedNow.Add(-time.Hour))
		b.UpdateFromResponse(headers("Retry-After", "60"))

		assert.ErrorIs(t, b.Acquire(shortCtx(t), 1), context.DeadlineExceeded)
	})

	t.Run("Retry-After only extends cooldown", func(t *testing.T) {
		b := newBudget(5000, fixedNow.Add(-time.Hour))
		b.UpdateFromResponse(headers("Retry-After", "60"))
		b.UpdateFromResponse(headers("Retry-After", "10"))

		b.mu.Lock()
		defer b.mu.Unlock()
		assert.True(t, b.cooldown.Equal(fixedNow.Add(60*time.Second)))
	})

	t.Run("UpdateFromResponse ignores invalid headers", func(t *testing.T) {
		b := newBudget(7, time.Unix(123, 0))
		b.UpdateFromResponse(headers("X-RateLimit-Remaining", "nope", "X-RateLimit-Reset", "not-a-time"))

		assert.Equal(t, 7, b.Remaining())
		b.mu.Lock()
		defer b.mu.Unlock()
		assert.True(t, b.reset.Equal(time.Unix(123, 0)))
	})

	t.Run("exhausted before reset blocks", func(t *testing.T) {
		b := newBudget(0, fixedNow.Add(time.Hour))
		assert.ErrorIs(t, b.Acquire(shortCtx(t), 1), context.DeadlineExceeded)
	})

	t.Run("after reset allows exactly one probe until update", func(t *testing.T) {
		b := newBudget(0, fixedNow.Add(-time.Second))

		require.NoError(t, b.Acquire(context.Background(), 1))
		assert.Equal(t, 0, b.Remaining())
		assert.ErrorIs(t, b.Acquire(shortCtx(t), 1), context.DeadlineExceeded)
	})

	t.Run("UpdateFromResponse wakes waiters", func(t *testing.T) {
		b := newBudget(0, fixedNow.Add(time.Hour))

		errCh := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()
			errCh <- b.Acquire(ctx, 1)
		}()

		time.Sleep(10 * time.Millisecond)
		b.UpdateFromResponse(headers("X-RateLimit-Remaining", "1", "X-RateLimit-Reset", "1700000000"))

		assert.NoError(t, <-errCh)
	})

	t.Run("invalid inputs fail fast", func(t *testing.T) {
		b := newBudget(10, fixedNow.Add(time.Hour))

		var nilCtx context.Context
		assert.Error(t, b.Acquire(nilCtx, 1))
		assert.Error(t, b.Acquire(context.Background(), 0))
		assert.Error(t, b.Acquire(context.Background(), -1))

		var zero RequestBudget
		assert.ErrorContains(t, zero.Acquire(context.Background(), 1), "not initialized")
	})
}
