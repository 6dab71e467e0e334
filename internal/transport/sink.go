// Package transport defines how lobby events leave the core. Publishing is
// fire-and-forget: a sink reports its own delivery failures and never blocks
// the lobby that produced the event.
package transport

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// Sink receives every event a lobby produces, in the order it was produced
type Sink interface {
	Publish(ctx context.Context, event model.Event)
}

// Multi fans an event out to several sinks in order
type Multi []Sink

// Publish forwards the event to every sink
func (m Multi) Publish(ctx context.Context, event model.Event) {
	for _, sink := range m {
		sink.Publish(ctx, event)
	}
}

// Discard drops every event
type Discard struct{}

// Publish does nothing
func (Discard) Publish(context.Context, model.Event) {}

// Recorder keeps every published event in memory. Tests use it to assert
// on what a lobby emitted.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

// Publish appends the event
func (r *Recorder) Publish(_ context.Context, event model.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Types returns the type of every recorded event
func (r *Recorder) Types() []model.EventType {
	events := r.Events()
	types := make([]model.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// Reset forgets recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
