package output

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatForPath infers a structured format from the extension of path.
func FormatForPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}

// NewFileSink returns a sink writing to path. An empty format is inferred
// from the extension.
//
// ndjson records are appended to path as they arrive. The json aggregate is
// written to a temporary file next to path and renamed over it on Close, so
// an interrupted run never leaves a truncated array behind.
func NewFileSink(path string, format string) (*StreamSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if format == "" {
		inferred, err := FormatForPath(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var f *os.File
	var err error
	if format == "json" {
		f, err = os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	} else {
		f, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	bw := bufio.NewWriter(f)
	rw, err := newRecordWriter(bw, format)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}

	return &StreamSink{
		records: rw,
		onClose: func(finishErr error) error {
			err := errors.Join(bw.Flush(), f.Close())
			if format != "json" {
				return err
			}
			if finishErr != nil || err != nil {
				_ = os.Remove(f.Name())
				return err
			}
			if err := os.Rename(f.Name(), path); err != nil {
				_ = os.Remove(f.Name())
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		},
	}, nil
}
