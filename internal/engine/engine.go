package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"keyload/internal/cache"
	"keyload/internal/config"
	"keyload/internal/failure"
	"keyload/internal/loader"
	"keyload/internal/output"
)

func exitCodeForRun(fatal, partial, skipped bool) int {
	// Exit code contract:
	// 0 = every key loaded
	// 1 = some keys not found at the source, none failed
	// 2 = partial failure (some keys failed to load)
	// 3 = fatal error (the load did not run)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if skipped {
		return 1
	}
	return 0
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()
	fail := func(err error) (*output.Manager, error) {
		_ = outMgr.Close()
		return nil, err
	}

	if !cfg.Output.NoConsole {
		cs, err := output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus, cfg.Output.ShowValues)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(cs); err != nil {
			return fail(err)
		}
	}

	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(es); err != nil {
			return fail(err)
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(fs); err != nil {
			return fail(err)
		}
	}

	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			return fail(err)
		}
		if err := outMgr.AddSink(rs); err != nil {
			return fail(err)
		}
	}

	return outMgr, nil
}

type Engine struct {
	Logger *slog.Logger
	Stdout io.Writer

	// openLoader is a test seam. If nil, the loader comes from the source registry.
	openLoader func(ctx context.Context, cfg *config.Config) (loader.Loader[string, any], error)
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Logger: logger, Stdout: os.Stdout}
}

func (e *Engine) open(ctx context.Context, cfg *config.Config) (loader.Loader[string, any], error) {
	if e.openLoader != nil {
		return e.openLoader(ctx, cfg)
	}

	src, ok := loader.Resolve(cfg.Source.Name)
	if !ok {
		return nil, fmt.Errorf("unknown source %q (see `keyload sources list`)", cfg.Source.Name)
	}
	opts := loader.Options{
		Path:    cfg.Source.Path,
		Token:   cfg.Source.Token,
		BaseURL: cfg.Source.BaseURL,
	}
	if cfg.Runtime.Verbose {
		opts.Logger = e.Logger
	}
	l, err := src.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", cfg.Source.Name, err)
	}
	return l, nil
}

type runSummary struct {
	loaded, failed, skipped int
}

// buildResults presents one result per distinct key, sorted by key.
func buildResults(keys []string, values map[string]any, bulk *failure.BulkLoadingFailure[string, any], verbose bool) ([]output.KeyResult, runSummary) {
	distinct := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, k)
	}
	sort.Strings(distinct)

	var sum runSummary
	results := make([]output.KeyResult, 0, len(distinct))
	for _, k := range distinct {
		if v, ok := values[k]; ok {
			results = append(results, output.KeyResult{Key: k, Status: output.StatusLoaded, Value: v})
			sum.loaded++
			continue
		}

		var cause error
		if bulk != nil {
			cause, _ = bulk.Failures().Get(k)
		}
		pres := presentLoadError(cause, verbose)
		results = append(results, output.KeyResult{Key: k, Status: pres.status, Message: pres.message})
		if pres.status == output.StatusSkipped {
			sum.skipped++
		} else {
			sum.failed++
		}
	}
	return results, sum
}

// session is the per-run state shared by every operation: the cache over
// the opened source and the output sinks, tagged with one run ID.
type session struct {
	log   *slog.Logger
	cache *cache.Cache[string, any]
	out   *output.Manager
	runID string
	op    string
}

// start opens the source, builds the cache and the sinks, and writes the
// run.started event. On failure it logs the cause and returns false.
func (e *Engine) start(ctx context.Context, cfg *config.Config, op string, nkeys int) (*session, bool) {
	log := e.logger()
	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	l, err := e.open(ctx, cfg)
	if err != nil {
		log.Error("opening source failed", "err", err)
		return nil, false
	}

	c, err := cache.New(l,
		cache.WithConcurrency(cfg.Runtime.Concurrency),
		cache.WithStrict(cfg.Runtime.Strict),
		cache.WithLogger(log),
	)
	if err != nil {
		log.Error("creating cache failed", "err", err)
		return nil, false
	}

	outMgr, err := setupOutputManager(cfg, stdout)
	if err != nil {
		log.Error("creating output sinks failed", "err", err)
		return nil, false
	}

	s := &session{log: log, cache: c, out: outMgr, runID: uuid.NewString(), op: op}
	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, RunID: s.runID, Op: op, Source: cfg.Source.Name, Keys: nkeys})
	log.Debug("run started", "run_id", s.runID, "op", op, "source", cfg.Source.Name, "keys", nkeys, "concurrency", cfg.Runtime.Concurrency)
	return s, true
}

func (s *session) write(results []output.KeyResult) {
	for _, r := range results {
		_ = s.out.Write(r)
	}
}

// finish writes the run.finished event and returns its exit code.
func (s *session) finish(ev output.Event) int {
	ev.Type = output.EventRunFinished
	ev.RunID = s.runID
	ev.Op = s.op
	_ = s.out.Write(ev)
	s.log.Debug("run finished", "run_id", s.runID, "op", s.op, "cached", s.cache.Len(), "exit_code", ev.ExitCode)
	return ev.ExitCode
}

func (s *session) fatal() int {
	return s.finish(output.Event{ExitCode: exitCodeForRun(true, false, false)})
}

func (s *session) close() {
	_ = s.out.Close()
}

// Run loads every configured key and reports one result per distinct key.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	log := e.logger()

	keys, err := cfg.ResolveKeys()
	if err != nil {
		log.Error("reading keys failed", "err", err)
		return exitCodeForRun(true, false, false)
	}
	if len(keys) == 0 {
		log.Error("no keys to load")
		return exitCodeForRun(true, false, false)
	}

	s, ok := e.start(ctx, cfg, output.OpLoad, len(keys))
	if !ok {
		return exitCodeForRun(true, false, false)
	}
	defer s.close()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	values, err := s.cache.GetAll(runCtx, keys)
	var bulk *failure.BulkLoadingFailure[string, any]
	if err != nil && !errors.As(err, &bulk) {
		log.Error("load failed", "source", cfg.Source.Name, "err", err)
		return s.fatal()
	}
	if bulk != nil {
		log.Debug("bulk load partially failed", "msg", bulk.Message(), "failed", bulk.Failures().Len(), "loaded", bulk.Successes().Len())
	}

	results, sum := buildResults(keys, values, bulk, cfg.Runtime.Verbose)
	s.write(results)

	return s.finish(output.Event{
		Keys:     len(results),
		Loaded:   sum.loaded,
		Failed:   sum.failed,
		Skipped:  sum.skipped,
		ExitCode: exitCodeForRun(false, sum.failed > 0, sum.skipped > 0),
	})
}
