package pipeline

import "sync/atomic"

// Observer receives progress notifications from a run.
// Calls are made synchronously from the run goroutine and must not block.
type Observer interface {
	PhaseChanged(from, to Phase)
	LineLogged(line Line)
}

// EventKind distinguishes observer events.
type EventKind string

const (
	EventPhase EventKind = "phase"
	EventLine  EventKind = "line"
)

// Event is one notification delivered by a ChannelObserver.
type Event struct {
	Kind EventKind `json:"kind"`
	From Phase     `json:"from,omitempty"`
	To   Phase     `json:"to,omitempty"`
	Line *Line     `json:"line,omitempty"`
}

// ChannelObserver forwards notifications to a buffered channel. When the
// consumer falls behind events are dropped; the transcript stays complete.
type ChannelObserver struct {
	events  chan Event
	dropped atomic.Int64
}

// NewChannelObserver creates an observer with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{events: make(chan Event, buffer)}
}

// Events returns the event stream.
func (o *ChannelObserver) Events() <-chan Event {
	return o.events
}

// Dropped returns the number of events discarded because the buffer was full.
func (o *ChannelObserver) Dropped() int64 {
	return o.dropped.Load()
}

// Close closes the event stream. It must be called after the run finished.
func (o *ChannelObserver) Close() {
	close(o.events)
}

func (o *ChannelObserver) PhaseChanged(from, to Phase) {
	o.send(Event{Kind: EventPhase, From: from, To: to})
}

func (o *ChannelObserver) LineLogged(line Line) {
	o.send(Event{Kind: EventLine, Line: &line})
}

func (o *ChannelObserver) send(e Event) {
	select {
	case o.events <- e:
	default:
		o.dropped.Add(1)
	}
}
