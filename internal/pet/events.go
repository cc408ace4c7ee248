package pet

import (
	"fmt"
	"time"
)

// EventKind tags a game event.
type EventKind string

const (
	EventDecay  EventKind = "DECAY"
	EventFeed   EventKind = "FEED"
	EventClean  EventKind = "CLEAN"
	EventPlay   EventKind = "PLAY"
	EventSleep  EventKind = "SLEEP"
	EventWake   EventKind = "WAKE"
	EventHeal   EventKind = "HEAL"
	EventVet    EventKind = "VET"
	EventChat   EventKind = "CHAT"
	EventSystem EventKind = "SYSTEM"
)

// Event is one entry in the pet's history: what happened and when.
type Event struct {
	TS   time.Time `json:"ts"`
	Kind EventKind `json:"kind"`
	Meta string    `json:"meta,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s", e.TS.Format("15:04"), e.Meta)
}

// DefaultEventCapacity bounds the event log.
const DefaultEventCapacity = 200

// EventLog is a fixed-capacity ring buffer of events. Append is O(1)
// and evicts the oldest entry once full, so memory stays bounded no
// matter how long a session runs.
type EventLog struct {
	buf   []Event
	start int
	n     int
}

// NewEventLog creates a log holding at most capacity events.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &EventLog{buf: make([]Event, capacity)}
}

// Append records an event, dropping the oldest if the log is full.
func (l *EventLog) Append(e Event) {
	if l.n < len(l.buf) {
		l.buf[(l.start+l.n)%len(l.buf)] = e
		l.n++
		return
	}
	l.buf[l.start] = e
	l.start = (l.start + 1) % len(l.buf)
}

// Len returns the number of events currently held.
func (l *EventLog) Len() int {
	return l.n
}

// Recent returns the last n events in insertion order.
func (l *EventLog) Recent(n int) []Event {
	if n > l.n {
		n = l.n
	}
	out := make([]Event, 0, n)
	for i := l.n - n; i < l.n; i++ {
		out = append(out, l.buf[(l.start+i)%len(l.buf)])
	}
	return out
}

// All returns every held event in insertion order.
func (l *EventLog) All() []Event {
	return l.Recent(l.n)
}
