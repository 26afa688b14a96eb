// Package telemetry provides an in-memory, session-scoped sink for runtime
// errors captured while collecting client context.
//
// The sink is append-only for the lifetime of one page view / process run and
// is never a fatal path: recording always succeeds and never panics.
package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// Error is one captured failure.
type Error struct {
	// Kind identifies the capture site, e.g. "ip-lookup", "client-hints",
	// "unhandledrejection".
	Kind    string `json:"kind"`
	Message string `json:"message"`

	// Source, Line and Column carry script-error metadata when known.
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Sink collects Error entries in order. Safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	now    func() time.Time
	errors []Error
}

// NewSink returns a sink using the wall clock.
func NewSink() *Sink {
	return &Sink{now: time.Now}
}

// NewSinkWithClock returns a sink with an injected clock for tests.
func NewSinkWithClock(now func() time.Time) *Sink {
	if now == nil {
		now = time.Now
	}
	return &Sink{now: now}
}

// Record appends an entry with the given kind and message.
func (s *Sink) Record(kind, message string) {
	s.append(Error{Kind: kind, Message: message})
}

// RecordError appends an entry built from err. A nil err is a no-op.
func (s *Sink) RecordError(kind string, err error) {
	if err == nil {
		return
	}
	s.append(Error{Kind: kind, Message: err.Error()})
}

// RecordScriptError appends an entry carrying source location metadata.
func (s *Sink) RecordScriptError(message, source string, line, column int) {
	s.append(Error{
		Kind:    "error",
		Message: message,
		Source:  source,
		Line:    line,
		Column:  column,
	})
}

// CapturePanic records a recovered panic value and is intended for use in a
// deferred call:
//
//	defer sink.CapturePanic("aggregator")
//
// Error values, strings and arbitrary panic payloads are all normalized to a
// message string. The panic is swallowed.
func (s *Sink) CapturePanic(kind string) {
	v := recover()
	if v == nil {
		return
	}
	s.Record(kind, Stringify(v))
}

// Errors returns a copy of all recorded entries in capture order.
func (s *Sink) Errors() []Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Error, len(s.errors))
	copy(out, s.errors)
	return out
}

// Len returns the number of recorded entries.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors)
}

func (s *Sink) append(e Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Timestamp = s.now()
	s.errors = append(s.errors, e)
}

// Stringify normalizes a heterogeneous failure value (error, string or any
// other rejected value) to a message string.
func Stringify(v any) string {
	switch t := v.(type) {
	case error:
		return t.Error()
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
