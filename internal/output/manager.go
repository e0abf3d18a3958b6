package output

import (
	"errors"
	"fmt"
	"sync"
)

// Sink defines a destination for load events and per-key results.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans records out to every registered sink. A sink whose Write
// fails is reported once and skipped afterwards; the other sinks keep
// receiving records. Close still closes every sink.
type Manager struct {
	mu     sync.Mutex
	sinks  []Sink
	broken map[int]bool
	closed bool
}

func NewManager() *Manager {
	return &Manager{broken: make(map[int]bool)}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	if s == nil {
		return errors.New("sink must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("output manager is closed")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Len() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sinks)
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("output manager is closed")
	}

	var errs []error
	for i, s := range m.sinks {
		if m.broken[i] {
			continue
		}
		if err := s.Write(v); err != nil {
			m.broken[i] = true
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes every sink once. Later calls are no-ops.
func (m *Manager) Close() error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
