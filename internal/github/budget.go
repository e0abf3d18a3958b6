package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget tracks the GitHub rate limit and blocks callers once it is
// spent, until the reset time passes or a response reports a fresh budget.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	now       func() time.Time
	probed    bool
	cooldown  time.Time
	notifyCh  chan struct{}
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: 5000,
		reset:     time.Now().Add(1 * time.Hour),
		now:       time.Now,
		notifyCh:  make(chan struct{}),
	}
}

func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

func (b *RequestBudget) Acquire(ctx context.Context, n int) error {
	if ctx == nil {
		return fmt.Errorf("Acquire: nil context")
	}
	if n <= 0 {
		return fmt.Errorf("Acquire: n must be > 0 (got %d)", n)
	}
	if b == nil || b.now == nil || b.notifyCh == nil {
		return fmt.Errorf("Acquire: RequestBudget not initialized (use NewRequestBudget)")
	}

	for i := 0; i < n; i++ {
		if err := b.acquireOne(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *RequestBudget) acquireOne(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		ch := b.notifyCh

		switch {
		case now.Before(b.cooldown):
			until := b.cooldown
			b.mu.Unlock()
			if err := waitFor(ctx, ch, until.Sub(now)); err != nil {
				return err
			}

		case b.remaining > 0:
			b.remaining--
			b.mu.Unlock()
			return nil

		case !now.Before(b.reset):
			// Reset has passed but no refreshed budget was observed yet: let one
			// probe through, then wait for UpdateFromResponse.
			if !b.probed {
				b.probed = true
				b.mu.Unlock()
				return nil
			}
			b.mu.Unlock()
			if err := waitFor(ctx, ch, -1); err != nil {
				return err
			}

		default:
			reset := b.reset
			b.mu.Unlock()
			if err := waitFor(ctx, ch, reset.Sub(now)); err != nil {
				return err
			}
		}
	}
}

// waitFor blocks until ctx is done, ch is closed, or d elapses. A negative d
// waits without a timer.
func waitFor(ctx context.Context, ch <-chan struct{}, d time.Duration) error {
	if d < 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	case <-timer.C:
		return nil
	}
}

func (b *RequestBudget) signalLocked() {
	if b.notifyCh != nil {
		close(b.notifyCh)
	}
	b.notifyCh = make(chan struct{})
}

// UpdateFromResponse applies Retry-After and X-RateLimit-* headers.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if resp == nil || b == nil || b.now == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false

	if seconds, ok := headerInt(resp, "Retry-After"); ok && seconds > 0 {
		until := b.now().Add(time.Duration(seconds) * time.Second)
		if until.After(b.cooldown) {
			b.cooldown = until
			changed = true
		}
	}

	if val, ok := headerInt(resp, "X-RateLimit-Remaining"); ok && val >= 0 && b.remaining != val {
		b.remaining = val
		changed = true
	}

	if val, ok := headerInt(resp, "X-RateLimit-Reset"); ok && val > 0 {
		newReset := time.Unix(int64(val), 0)
		if !b.reset.Equal(newReset) {
			b.reset = newReset
			changed = true
		}
	}

	if changed {
		b.probed = false
		b.signalLocked()
	}
}

func headerInt(resp *http.Response, name string) (int, bool) {
	raw := resp.Header.Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
