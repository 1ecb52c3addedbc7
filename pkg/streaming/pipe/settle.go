package pipe

import (
	"errors"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// ErrUnspecified replaces a nil error emitted with stage.EventError.
var ErrUnspecified = errors.New("stage reported an error without a cause")

// loop settles the pipeline with the first event it receives.
func (p *pipeline) loop() {
	ev := <-p.events
	p.settle(ev)
}

func (p *pipeline) settle(ev event) {
	close(p.done)
	removed := p.reg.removeAll()

	if ev.err != nil {
		for _, s := range p.stages {
			if a, ok := s.(stage.Aborter); ok {
				a.Abort(ev.err)
			}
		}
	}

	p.obs.settled(ev, removed)
	p.callback(ev.err)
}
