// Package event carries the outcome notifications of save pipeline operations.
// Observers watch; they never influence control flow.
package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies an outcome
type Kind string

// Outcome kinds
const (
	SaveSuccess   Kind = "save_success"
	SaveFailed    Kind = "save_failed"
	LoadSuccess   Kind = "load_success"
	LoadFailed    Kind = "load_failed"
	DeleteSuccess Kind = "delete_success"
	DeleteFailed  Kind = "delete_failed"
	MigrationGap  Kind = "migration_gap"
)

// Failed reports whether the kind describes a failure
func (k Kind) Failed() bool {
	return k == SaveFailed || k == LoadFailed || k == DeleteFailed
}

// Event is a single notification
type Event struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Key      string `json:"key"`
	TypeName string `json:"type_name,omitempty"`
	Error    string `json:"error,omitempty"`
	// FromVersion and ToVersion are set on MigrationGap
	FromVersion int       `json:"from_version,omitempty"`
	ToVersion   int       `json:"to_version,omitempty"`
	Time        time.Time `json:"time"`
}

// New stamps a fresh event
func New(kind Kind, key, typeName string) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Key:      key,
		TypeName: typeName,
		Time:     time.Now().UTC(),
	}
}

// WithError returns a copy of e carrying err's description
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Publisher receives events
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(e Event)

// Publish calls f(e)
func (f PublisherFunc) Publish(e Event) { f(e) }

// Bus fans events out to every subscribed observer, synchronously and in
// subscription order. The zero value is ready to use.
type Bus struct {
	mu        sync.RWMutex
	observers []Publisher
}

// NewBus returns a bus with observers already subscribed
func NewBus(observers ...Publisher) *Bus {
	b := &Bus{}
	for _, o := range observers {
		b.Subscribe(o)
	}
	return b
}

// Subscribe adds an observer; nil observers are ignored
func (b *Bus) Subscribe(o Publisher) {
	if o == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Publish delivers e to every observer
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	observers := b.observers
	b.mu.RUnlock()
	for _, o := range observers {
		o.Publish(e)
	}
}

// Recorder keeps every event it receives. Handy in tests and for inspecting
// failures that fail-soft operations hide.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records e
func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in arrival order
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of the recorded events in arrival order
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}
