package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ReportSink collects a run and writes it as a Markdown report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	results      []KeyResult
	op           string
	source       string
	runID        string
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case KeyResult:
		s.results = append(s.results, t)
	case *KeyResult:
		if t != nil {
			s.results = append(s.results, *t)
		}
	case Event:
		if t.RunID != "" {
			s.runID = t.RunID
		}
		if t.Op != "" {
			s.op = t.Op
		}
		if t.Source != "" {
			s.source = t.Source
		}
		if t.Type == EventRunFinished {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteString(s.render()); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("write report %s: %w", s.path, err)
	}
	return s.file.Close()
}

func (s *ReportSink) render() string {
	results := append([]KeyResult(nil), s.results...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].Key < results[j].Key })

	counts := make(map[Status]int)
	var done, fails, skips []KeyResult
	for _, r := range results {
		counts[r.Status]++
		switch r.Status {
		case StatusFailed:
			fails = append(fails, r)
		case StatusSkipped:
			skips = append(skips, r)
		default:
			done = append(done, r)
		}
	}

	op := s.op
	if op == "" {
		op = OpLoad
	}

	var b strings.Builder
	b.WriteString("# keyload Report\n\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Operation | %s |\n", op)
	if s.source != "" {
		fmt.Fprintf(&b, "| Source | %s |\n", escapeCell(s.source))
	}
	if s.runID != "" {
		fmt.Fprintf(&b, "| Run ID | %s |\n", s.runID)
	}
	fmt.Fprintf(&b, "| Keys | %d |\n", len(results))
	switch op {
	case OpPut:
		fmt.Fprintf(&b, "| Written | %d |\n", counts[StatusWritten])
	case OpDelete:
		fmt.Fprintf(&b, "| Deleted | %d |\n", counts[StatusDeleted])
	default:
		fmt.Fprintf(&b, "| Loaded | %d |\n", counts[StatusLoaded])
		fmt.Fprintf(&b, "| Skipped | %d |\n", counts[StatusSkipped])
	}
	fmt.Fprintf(&b, "| Failed | %d |\n", counts[StatusFailed])
	if s.haveExitCode {
		fmt.Fprintf(&b, "| Exit code | %d |\n", s.exitCode)
	} else {
		b.WriteString("| Exit code | unknown |\n")
	}
	b.WriteString("\n")

	// --- Failure reasons ---
	b.WriteString("## Failure Reasons\n\n")
	reasons := groupFailureReasons(fails)
	if len(reasons) == 0 {
		b.WriteString("- None\n\n")
	} else {
		b.WriteString("| Reason | Keys |\n")
		b.WriteString("| --- | --- |\n")
		for _, g := range reasons {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(g.reason), escapeCell(formatKeyList(g.keys, 5)))
		}
		b.WriteString("\n")
	}

	// --- Failed keys ---
	b.WriteString("## Failed Keys\n\n")
	if len(fails) == 0 {
		b.WriteString("- None\n\n")
	} else {
		b.WriteString("| Key | Reason |\n")
		b.WriteString("| --- | --- |\n")
		for _, r := range fails {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(r.Key), escapeCell(normalizeErrorReason(r.Key, r.Message)))
		}
		b.WriteString("\n")
	}

	if op == OpLoad || op == OpGet {
		b.WriteString("## Skipped Keys\n\n")
		if len(skips) == 0 {
			b.WriteString("- None\n")
		}
		for _, r := range skips {
			fmt.Fprintf(&b, "- `%s`: %s\n", r.Key, normalizeErrorReason(r.Key, r.Message))
		}
		b.WriteString("\n")
	}

	// --- Completed keys ---
	switch op {
	case OpPut:
		b.WriteString("## Written Keys\n\n")
	case OpDelete:
		b.WriteString("## Deleted Keys\n\n")
	default:
		b.WriteString("## Loaded Keys\n\n")
	}
	switch {
	case len(done) == 0:
		b.WriteString("- None\n")
	case op == OpDelete:
		for _, r := range done {
			fmt.Fprintf(&b, "- `%s`\n", r.Key)
		}
	default:
		b.WriteString("| Key | Value |\n")
		b.WriteString("| --- | --- |\n")
		for _, r := range done {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(r.Key), escapeCell(truncate(formatValue(r.Value), 80)))
		}
	}

	return b.String()
}
