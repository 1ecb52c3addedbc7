package stage

import "sync"

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Emitter is a registry of event listeners. The zero value is ready to use.
type Emitter struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[Event][]listenerEntry
}

// On implements Stage.On.
func (e *Emitter) On(event Event, l Listener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[Event][]listenerEntry)
	}
	e.nextID++
	e.listeners[event] = append(e.listeners[event], listenerEntry{id: e.nextID, fn: l})
	return e.nextID
}

// Off implements Stage.Off.
func (e *Emitter) Off(event Event, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.listeners[event]
	for i, entry := range entries {
		if entry.id != id {
			continue
		}
		entries = append(entries[:i:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = entries
		}
		return true
	}
	return false
}

// ListenerCount implements Stage.ListenerCount.
func (e *Emitter) ListenerCount(event Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// Emit calls every listener attached to event, in subscription order, and
// returns how many were called. Listeners run on the calling goroutine
// without the registry lock held, so they may call On or Off.
func (e *Emitter) Emit(event Event, err error) int {
	e.mu.Lock()
	entries := make([]listenerEntry, len(e.listeners[event]))
	copy(entries, e.listeners[event])
	e.mu.Unlock()

	for _, entry := range entries {
		entry.fn(err)
	}
	return len(entries)
}
