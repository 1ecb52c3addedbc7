package pipe

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// event is a stage outcome reported to the settlement loop.
type event struct {
	stage     int
	err       error
	completed bool
}

// pipeline is the state of one Pipe call. It lives until settlement.
type pipeline struct {
	id       string
	stages   []stage.Stage
	links    []*link
	config   Config
	callback Callback

	events chan event
	done   chan struct{}
	reg    registry
	obs    *observer
}

// Pipe links stages with the default configuration and calls callback once
// with the outcome. Argument errors are returned synchronously and the
// callback is not called.
func Pipe(stages []stage.Stage, callback Callback) error {
	return PipeWithConfig(stages, DefaultConfig(), callback)
}

// PipeWithConfig is Pipe with explicit options.
func PipeWithConfig(stages []stage.Stage, config Config, callback Callback) error {
	if err := validate(stages, callback); err != nil {
		return err
	}
	if err := config.validate(); err != nil {
		return err
	}

	p := &pipeline{
		id:       uuid.NewString(),
		stages:   stages,
		config:   config.withDefaults(),
		callback: callback,
		events:   make(chan event),
		done:     make(chan struct{}),
	}
	p.links = buildLinks(stages, p.config.KeepOpen)
	p.start()
	return nil
}

func (p *pipeline) start() {
	for i, s := range p.stages {
		i := i
		p.reg.add(s, stage.EventError, func(err error) {
			if err == nil {
				err = ErrUnspecified
			}
			p.post(event{stage: i, err: err})
		})
	}

	last := len(p.stages) - 1
	switch {
	case last == 0:
		p.reg.add(p.stages[last], stage.EventEnd, func(error) {
			p.post(event{stage: last, completed: true})
		})
	case !p.config.KeepOpen:
		p.reg.add(p.stages[last], stage.EventFinish, func(error) {
			p.post(event{stage: last, completed: true})
		})
	}

	p.obs = newObserver(p)
	p.obs.started()

	go p.loop()
	for _, l := range p.links {
		p.obs.linked(l)
		go p.pump(l)
	}
}

// post hands ev to the settlement loop. Once the pipeline has settled the
// event is discarded.
func (p *pipeline) post(ev event) {
	select {
	case p.events <- ev:
	case <-p.done:
		p.obs.late(ev)
	}
}

func (p *pipeline) settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *pipeline) moved(n int) {
	p.obs.moved(n)
}

// Run pipes stages and waits for the outcome. It returns the validation
// error, or the error the callback would have received.
func Run(stages []stage.Stage, config Config) error {
	result := make(chan error, 1)
	if err := PipeWithConfig(stages, config, func(err error) { result <- err }); err != nil {
		return err
	}
	return <-result
}

// ReadAll pipes src into memory and returns everything it produced.
func ReadAll(src stage.Source) ([]byte, error) {
	var buf bytes.Buffer
	sink := stage.NewSink("buffer", &buf)

	config := DefaultConfig()
	config.Name = "read_all"
	if err := Run([]stage.Stage{src, sink}, config); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
