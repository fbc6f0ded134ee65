// Package play is the terminal front end for a quiz session.
package play

import (
	"sync"

	"github.com/gokatarajesh/quiz-bank/internal/session"
)

// Feed buffers session events for the UI. Its Publish method is meant to be
// used as session.Options.OnEvent.
type Feed struct {
	events    chan session.Event
	closeOnce sync.Once
}

// NewFeed creates a feed holding up to size pending events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 64
	}
	return &Feed{events: make(chan session.Event, size)}
}

// Publish enqueues an event without blocking. The session calls it with its
// lock held, so a full buffer drops the event; every event carries a full
// snapshot and the next one catches the UI up.
func (f *Feed) Publish(e session.Event) {
	select {
	case f.events <- e:
	default:
	}
}

// Events is the receive side consumed by the model.
func (f *Feed) Events() <-chan session.Event {
	return f.events
}

// Close ends the stream. Publish must not be called afterwards.
func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.events) })
}
