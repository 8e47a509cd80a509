// Package events defines the advisory event sink the request pipeline
// emits diagnostics through. The sink is injected at construction and
// scoped to the owning client instance; events are fire-and-forget and
// must never influence request control flow.
package events

import (
	"context"
	"sync"
	"time"
)

// Well-known event names emitted by the pipeline.
const (
	// EventAttempt is emitted once per network attempt with the attempt
	// number, chosen backoff delay, and outcome classification.
	EventAttempt = "httpclient.attempt"

	// EventCredentialsInvalidated is emitted once per logical request
	// whose terminal outcome is HTTP 401.
	EventCredentialsInvalidated = "auth.credentials_invalidated"
)

// Event is a single diagnostic occurrence.
type Event struct {
	Name   string
	At     time.Time
	Fields map[string]any
}

// Sink receives pipeline events. Implementations must be safe for
// concurrent use and should return quickly; slow consumers should
// buffer internally.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(context.Context, Event) {}

// MemorySink records events in memory. Intended for tests and local
// debugging, not production workloads.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (s *MemorySink) Emit(_ context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a snapshot of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Named returns recorded events matching the given name.
func (s *MemorySink) Named(name string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
