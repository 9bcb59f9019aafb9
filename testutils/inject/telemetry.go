package inject

import (
	"sync"

	"github.com/decbot-sim/fieldsim/telemetry"
)

// TelemetrySink is an injectable telemetry sink. Without injected functions it records every line.
type TelemetrySink struct {
	telemetry.Sink
	AddLineFunc     func(label string, value interface{})
	RemoveStaleFunc func()

	mu    sync.Mutex
	lines map[string]interface{}
}

// AddLine calls the injected AddLine or records the line.
func (s *TelemetrySink) AddLine(label string, value interface{}) {
	if s.AddLineFunc != nil {
		s.AddLineFunc(label, value)
		return
	}
	if s.Sink != nil {
		s.Sink.AddLine(label, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lines == nil {
		s.lines = map[string]interface{}{}
	}
	s.lines[label] = value
}

// RemoveStale calls the injected RemoveStale or the real version, if any.
func (s *TelemetrySink) RemoveStale() {
	if s.RemoveStaleFunc != nil {
		s.RemoveStaleFunc()
		return
	}
	if s.Sink != nil {
		s.Sink.RemoveStale()
	}
}

// Line returns the last recorded value for label.
func (s *TelemetrySink) Line(label string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lines[label]
	return v, ok
}
