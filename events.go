package main

import "sync/atomic"

type EventKind int

const (
	// EventProgress carries {processed, total, current number} after each
	// contact.
	EventProgress EventKind = iota
	// EventPercent carries the recomputed completion percentage, 0-100.
	EventPercent
	// EventLoginRequired signals the batch was aborted on the QR challenge.
	EventLoginRequired
	// EventError signals a fatal batch-level failure.
	EventError
	// EventFinished signals normal batch completion.
	EventFinished
)

type Event struct {
	Kind    EventKind
	Sent    int
	Total   int
	Current string
	Percent int
	Err     error
}

// reporter pushes lifecycle and per-contact events to the controlling
// interface. Emission never blocks the worker: when the consumer falls behind
// the buffer, events are dropped and counted rather than stalling delivery.
type reporter struct {
	ch      chan Event
	dropped atomic.Int64
}

func newReporter(buffer int) *reporter {
	if buffer <= 0 {
		buffer = 64
	}
	return &reporter{ch: make(chan Event, buffer)}
}

// Events is the stream the controlling interface consumes. It is closed once
// the run is over.
func (r *reporter) Events() <-chan Event {
	return r.ch
}

func (r *reporter) emit(ev Event) {
	select {
	case r.ch <- ev:
	default:
		r.dropped.Add(1)
	}
}

func (r *reporter) progress(processed, total int, current string) {
	r.emit(Event{Kind: EventProgress, Sent: processed, Total: total, Current: current})
	r.emit(Event{Kind: EventPercent, Percent: processed * 100 / total})
}

func (r *reporter) loginRequired() {
	r.emit(Event{Kind: EventLoginRequired})
}

func (r *reporter) fatal(err error) {
	r.emit(Event{Kind: EventError, Err: err})
}

func (r *reporter) finished() {
	r.emit(Event{Kind: EventFinished})
}

func (r *reporter) close() {
	close(r.ch)
}
