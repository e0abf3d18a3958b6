package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// StreamSink writes json or ndjson records to an underlying writer. The
// emit and file sinks are both stream sinks; they differ in where the bytes
// go and what happens on Close.
type StreamSink struct {
	mu      sync.Mutex
	records *recordWriter
	onClose func(finishErr error) error
}

func (s *StreamSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.write(v)
}

func (s *StreamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.records.finish()
	if s.onClose != nil {
		return errors.Join(err, s.onClose(err))
	}
	return err
}

// recordWriter implements the two structured formats shared by all sinks:
//   - json: aggregates KeyResult values and writes one JSON array on finish
//   - ndjson: streams Event values, one JSON object per line
//
// It is not safe for concurrent use; sinks hold their own lock.
type recordWriter struct {
	w       io.Writer
	format  string
	results []KeyResult
}

func newRecordWriter(w io.Writer, format string) (*recordWriter, error) {
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return &recordWriter{w: w, format: format, results: []KeyResult{}}, nil
}

func (r *recordWriter) write(v any) error {
	if r.format == "json" {
		if kr, ok := v.(KeyResult); ok {
			r.results = append(r.results, kr)
		}
		// Lifecycle events are not part of the aggregate.
		return nil
	}

	var e Event
	switch t := v.(type) {
	case Event:
		e = t
	case KeyResult:
		e = eventFromResult(t)
	default:
		return nil
	}
	if err := json.NewEncoder(r.w).Encode(e); err != nil {
		return err
	}
	return flush(r.w)
}

func (r *recordWriter) finish() error {
	if r.format != "json" {
		return nil
	}
	encoder := json.NewEncoder(r.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r.results); err != nil {
		return err
	}
	return flush(r.w)
}

// flush pushes buffered output (e.g. a *bufio.Writer) through so ndjson
// consumers see each record as it is written.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
