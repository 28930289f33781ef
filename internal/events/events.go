// Package events publishes committed presale operations to subscribers.
//
// Publication happens after the operation's transaction commits. A
// publish failure never undoes an operation; the journal remains the
// source of truth and subscribers can catch up from it.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rustsol114/velirion-presale/internal/journal"
)

// Event is the published form of a journal entry.
type Event struct {
	Seq       int64           `json:"seq"`
	ID        string          `json:"id"`
	RequestID string          `json:"request_id"`
	Op        journal.Op      `json:"op"`
	Caller    string          `json:"caller"`
	At        int64           `json:"at"`
	Args      json.RawMessage `json:"args"`
	Result    json.RawMessage `json:"result"`
}

// FromEntry converts a committed journal entry to an Event.
func FromEntry(e *journal.Entry) Event {
	return Event{
		Seq:       e.Seq,
		ID:        e.ID,
		RequestID: e.RequestID,
		Op:        e.Op,
		Caller:    e.Caller,
		At:        e.At,
		Args:      e.Args,
		Result:    e.Result,
	}
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory. Useful in tests.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
