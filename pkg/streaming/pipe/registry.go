package pipe

import (
	"sync"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// registration is one listener a pipeline attached to one stage.
type registration struct {
	stage stage.Stage
	event stage.Event
	id    stage.ListenerID
}

// registry remembers every listener a pipeline installed so that exactly
// those are removed at settlement.
type registry struct {
	mu      sync.Mutex
	entries []registration
}

func (r *registry) add(s stage.Stage, event stage.Event, l stage.Listener) {
	id := s.On(event, l)

	r.mu.Lock()
	r.entries = append(r.entries, registration{stage: s, event: event, id: id})
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// removeAll detaches every recorded listener and returns how many there were.
func (r *registry) removeAll() int {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	for _, e := range entries {
		e.stage.Off(e.event, e.id)
	}
	return len(entries)
}
