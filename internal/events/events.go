// Package events carries domain events between components.
//
// The consultation store and rating aggregator publish an event after
// each successful write instead of signaling other components through
// shared state. Subscribers run synchronously in registration order, so a
// publisher returns only after every subscriber has seen the event.
package events

import (
	"sync"
	"time"
)

// Type identifies the kind of domain event.
type Type string

const (
	TypeConsultationTransitioned Type = "consultation_transitioned"
	TypeRatingSubmitted          Type = "rating_submitted"
)

// Event is a domain event. Fields are populated per type.
type Event struct {
	Type Type
	At   time.Time

	ConsultationID string
	PatientID      string
	DoctorID       string

	// Transition events
	OldStatus string
	NewStatus string

	// Rating events
	RatingID     string
	Score        int
	AverageScore float64
	RatingCount  int64
}

// Bus fans events out to subscribers. The zero value is unusable; use
// NewBus. A nil *Bus is safe to publish on, which keeps callers free of
// wiring checks.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers an event to all subscribers in registration order.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}
