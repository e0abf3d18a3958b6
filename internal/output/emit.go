package output

import (
	"fmt"
	"io"
)

// NewEmitSink returns a sink writing an additional structured stream to w,
// usually stdout next to a text console.
func NewEmitSink(w io.Writer, format string) (*StreamSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	rw, err := newRecordWriter(w, format)
	if err != nil {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &StreamSink{records: rw}, nil
}
