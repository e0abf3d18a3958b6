package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"keyload/internal/cache"
	"keyload/internal/config"
	"keyload/internal/failure"
	"keyload/internal/output"
)

// Get loads a single key through the cache. Sources with a bulk path still
// answer it with their per-key Load.
func (e *Engine) Get(ctx context.Context, cfg *config.Config, key string) int {
	s, ok := e.start(ctx, cfg, output.OpGet, 1)
	if !ok {
		return exitCodeForRun(true, false, false)
	}
	defer s.close()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	v, err := s.cache.Get(runCtx, key)
	if err != nil && !failure.IsLoadingFailure(err) {
		s.log.Error("get failed", "source", cfg.Source.Name, "key", key, "err", err)
		return s.fatal()
	}

	var sum runSummary
	r := output.KeyResult{Key: key, Status: output.StatusLoaded, Value: v}
	if err != nil {
		pres := presentLoadError(keyedCause(err), cfg.Runtime.Verbose)
		r = output.KeyResult{Key: key, Status: pres.status, Message: pres.message}
	}
	switch r.Status {
	case output.StatusLoaded:
		sum.loaded++
	case output.StatusSkipped:
		sum.skipped++
	default:
		sum.failed++
	}
	s.write([]output.KeyResult{r})

	return s.finish(output.Event{
		Keys:     1,
		Loaded:   sum.loaded,
		Failed:   sum.failed,
		Skipped:  sum.skipped,
		ExitCode: exitCodeForRun(false, sum.failed > 0, sum.skipped > 0),
	})
}

// Put writes every entry through the cache to the source. With verify, each
// written key is dropped from the cache and read back from the source.
func (e *Engine) Put(ctx context.Context, cfg *config.Config, entries map[string]any, verify bool) int {
	if len(entries) == 0 {
		e.logger().Error("no entries to write")
		return exitCodeForRun(true, false, false)
	}

	s, ok := e.start(ctx, cfg, output.OpPut, len(entries))
	if !ok {
		return exitCodeForRun(true, false, false)
	}
	defer s.close()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	err := s.cache.PutAll(runCtx, entries)
	var bulk *failure.BulkWritingFailure[string]
	if err != nil && !errors.As(err, &bulk) {
		s.log.Error("put failed", "source", cfg.Source.Name, "err", readOnlyHint(err, cfg))
		return s.fatal()
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var written, failed int
	results := make([]output.KeyResult, 0, len(keys))
	for _, k := range keys {
		var cause error
		if bulk != nil {
			cause, _ = bulk.Failures().Get(k)
		}
		prefix := ""
		if cause == nil && verify {
			cause = verifyWrite(runCtx, s.cache, k, entries[k])
			prefix = "verify: "
		}
		if cause != nil {
			pres := presentWriteError(cause, cfg.Runtime.Verbose)
			results = append(results, output.KeyResult{Key: k, Status: pres.status, Message: prefix + pres.message})
			failed++
			continue
		}
		results = append(results, output.KeyResult{Key: k, Status: output.StatusWritten, Value: entries[k]})
		written++
	}
	s.write(results)

	return s.finish(output.Event{
		Keys:     len(results),
		Written:  written,
		Failed:   failed,
		ExitCode: exitCodeForRun(false, failed > 0, false),
	})
}

// verifyWrite re-reads key from the source and compares its printed form
// with want. Sources may store values as strings.
func verifyWrite(ctx context.Context, c *cache.Cache[string, any], key string, want any) error {
	c.Invalidate(key)
	got, err := c.Get(ctx, key)
	if err != nil {
		return keyedCause(err)
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		return fmt.Errorf("source returned %q, wrote %q", fmt.Sprint(got), fmt.Sprint(want))
	}
	return nil
}

// Delete removes every key from the source and the cache.
func (e *Engine) Delete(ctx context.Context, cfg *config.Config, keys []string) int {
	keys = slices.Compact(slices.Sorted(slices.Values(keys)))
	if len(keys) == 0 {
		e.logger().Error("no keys to delete")
		return exitCodeForRun(true, false, false)
	}

	s, ok := e.start(ctx, cfg, output.OpDelete, len(keys))
	if !ok {
		return exitCodeForRun(true, false, false)
	}
	defer s.close()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	var deleted, failed int
	results := make([]output.KeyResult, 0, len(keys))
	for _, k := range keys {
		err := s.cache.Remove(runCtx, k)
		if err != nil && !failure.IsWritingFailure(err) {
			s.log.Error("delete failed", "source", cfg.Source.Name, "key", k, "err", readOnlyHint(err, cfg))
			return s.fatal()
		}
		if err != nil {
			pres := presentWriteError(keyedCause(err), cfg.Runtime.Verbose)
			results = append(results, output.KeyResult{Key: k, Status: pres.status, Message: pres.message})
			failed++
			continue
		}
		results = append(results, output.KeyResult{Key: k, Status: output.StatusDeleted})
		deleted++
	}
	s.write(results)

	return s.finish(output.Event{
		Keys:     len(results),
		Deleted:  deleted,
		Failed:   failed,
		ExitCode: exitCodeForRun(false, failed > 0, false),
	})
}

// keyedCause strips a single-key failure down to its cause. Results already
// carry the key.
func keyedCause(err error) error {
	if f, ok := failure.AsFailure(err); ok && f.Cause() != nil {
		return f.Cause()
	}
	return err
}

func readOnlyHint(err error, cfg *config.Config) error {
	if errors.Is(err, cache.ErrReadOnly) {
		return fmt.Errorf("source %s is read-only (see `keyload sources list`): %w", cfg.Source.Name, err)
	}
	return err
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
