package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	showValues      bool
	mu              sync.Mutex
	records         *recordWriter
	allowedStatuses map[Status]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string, showValues bool) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer:     w,
		format:     format,
		showValues: showValues,
	}
	if format != "text" {
		rw, err := newRecordWriter(w, format)
		if err != nil {
			return nil, fmt.Errorf("unsupported console format: %s", format)
		}
		s.records = rw
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[Status]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[Status(strings.ToUpper(st))] = true
		}
	}

	return s, nil
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(KeyResult); ok && !s.allowedStatuses[r.Status] {
			return nil
		}
	}

	if s.records != nil {
		return s.records.write(v)
	}
	return s.writeText(v)
}

func (s *ConsoleSink) writeText(v any) error {
	var line string
	switch t := v.(type) {
	case KeyResult:
		line = fmt.Sprintf("[%s] %s", t.Status, t.Key)
		if s.showValues && (t.Status == StatusLoaded || t.Status == StatusWritten) {
			line += " = " + formatValue(t.Value)
		}
		if t.Message != "" {
			line += " - " + t.Message
		}
	case Event:
		if t.Type != EventRunFinished {
			return nil
		}
		line = summaryLine(t)
	default:
		return nil
	}

	if _, err := fmt.Fprintln(s.writer, line); err != nil {
		return err
	}
	return flush(s.writer)
}

// summaryLine renders the counts of a run.finished event for its operation.
func summaryLine(e Event) string {
	switch e.Op {
	case OpPut:
		return fmt.Sprintf("%d keys: %d written, %d failed", e.Keys, e.Written, e.Failed)
	case OpDelete:
		return fmt.Sprintf("%d keys: %d deleted, %d failed", e.Keys, e.Deleted, e.Failed)
	default:
		return fmt.Sprintf("%d keys: %d loaded, %d failed, %d skipped", e.Keys, e.Loaded, e.Failed, e.Skipped)
	}
}

// formatValue renders v on one line; strings are printed bare.
func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records != nil {
		return s.records.finish()
	}
	return nil
}
