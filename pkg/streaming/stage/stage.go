package stage

import "io"

// Event names a notification a stage can emit.
type Event string

const (
	// EventError is emitted when the stage fails. Listeners receive the error.
	EventError Event = "error"

	// EventEnd is emitted by a Source once it has produced all of its data.
	EventEnd Event = "end"

	// EventFinish is emitted by a Sink once it was told to end and has
	// flushed and closed.
	EventFinish Event = "finish"
)

// Listener receives an emitted event. err is nil for EventEnd and EventFinish.
type Listener func(err error)

// ListenerID identifies one subscription on one stage.
type ListenerID uint64

// Stage is the capability every participant of a pipe exposes.
type Stage interface {
	// Name returns a human readable label used in logs.
	Name() string

	// On subscribes l to event and returns the handle needed to remove it.
	On(event Event, l Listener) ListenerID

	// Off removes a subscription. It returns false if id was not attached.
	Off(event Event, id ListenerID) bool

	// ListenerCount returns the number of subscriptions attached to event.
	ListenerCount(event Event) int
}

// Source produces a sequence of binary chunks. Read returns io.EOF once
// there is no more data.
type Source interface {
	Stage
	io.Reader
}

// Sink accepts a sequence of binary chunks. A blocking Write is the
// backpressure signal: the upstream does not produce while Write is pending.
type Sink interface {
	Stage
	io.Writer

	// End signals that no more data will be written. The sink emits
	// EventFinish once everything it accepted is flushed and it is closed.
	End() error
}

// Through is an interior stage: a Sink on its left and a Source on its right.
type Through interface {
	Source
	Sink
}

// Aborter is implemented by stages that can be torn down before they
// complete. Abort must unblock pending Read and Write calls.
type Aborter interface {
	Abort(err error)
}
