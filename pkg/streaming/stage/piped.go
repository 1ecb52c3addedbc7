package stage

import (
	"io"
	"sync"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
)

// ProduceFunc writes the whole output of a Producer to w.
type ProduceFunc func(w io.Writer) error

// ConsumeFunc reads the whole input of a Consumer from r.
type ConsumeFunc func(r io.Reader) error

// TransformFunc reads src and writes the transformed bytes to dst.
type TransformFunc func(dst io.Writer, src io.Reader) error

// Producer is a Source whose data is written by a ProduceFunc running on its
// own goroutine. The goroutine starts on the first Read.
type Producer struct {
	Emitter

	name  string
	fn    ProduceFunc
	pr    *io.PipeReader
	pw    *io.PipeWriter
	start sync.Once
	ended sync.Once
}

// NewProducer creates a Source backed by fn.
func NewProducer(name string, fn ProduceFunc) *Producer {
	pr, pw := io.Pipe()
	return &Producer{name: name, fn: fn, pr: pr, pw: pw}
}

// Name implements Stage.Name.
func (p *Producer) Name() string { return p.name }

// Read implements io.Reader.
func (p *Producer) Read(b []byte) (int, error) {
	p.start.Do(func() { go p.run() })

	n, err := p.pr.Read(b)
	if err == io.EOF {
		p.ended.Do(func() { p.Emit(EventEnd, nil) })
	}
	return n, err
}

// Abort implements Aborter.
func (p *Producer) Abort(err error) {
	err = abortCause(err)
	p.start.Do(func() {})
	p.ended.Do(func() {})
	_ = p.pw.CloseWithError(err)
}

func (p *Producer) run() {
	err := p.fn(p.pw)
	_ = p.pw.CloseWithError(err)
	if err != nil {
		p.Emit(EventError, err)
	}
}

// Consumer is a Sink whose data is read by a ConsumeFunc running on its own
// goroutine. EventFinish is emitted once End was called and the function
// returned without error.
type Consumer struct {
	Emitter

	name string
	fn   ConsumeFunc
	in   pipeEnd
}

// NewConsumer creates a Sink backed by fn.
func NewConsumer(name string, fn ConsumeFunc) *Consumer {
	c := &Consumer{name: name, fn: fn}
	c.in.init()
	return c
}

// Name implements Stage.Name.
func (c *Consumer) Name() string { return c.name }

// Write implements io.Writer.
func (c *Consumer) Write(b []byte) (int, error) {
	c.in.start.Do(func() { go c.run() })
	return c.in.write(&c.Emitter, b)
}

// End implements Sink.End.
func (c *Consumer) End() error {
	c.in.start.Do(func() { go c.run() })
	return c.in.end()
}

// Abort implements Aborter.
func (c *Consumer) Abort(err error) {
	c.in.start.Do(func() {})
	c.in.abort(abortCause(err))
}

func (c *Consumer) run() {
	err := c.fn(readOnly{c.in.r})
	if err == nil {
		_, err = io.Copy(io.Discard, c.in.r)
	}
	if err != nil {
		_ = c.in.r.CloseWithError(err)
		c.Emit(EventError, err)
		return
	}
	c.Emit(EventFinish, nil)
}

// PipeThrough is a Through whose bytes are transformed by a TransformFunc
// running on its own goroutine.
type PipeThrough struct {
	Emitter

	name   string
	fn     TransformFunc
	in     pipeEnd
	outR   *io.PipeReader
	outW   *io.PipeWriter
	outEnd sync.Once
}

// NewThrough creates a Through backed by fn.
func NewThrough(name string, fn TransformFunc) *PipeThrough {
	t := &PipeThrough{name: name, fn: fn}
	t.in.init()
	t.outR, t.outW = io.Pipe()
	return t
}

// Name implements Stage.Name.
func (t *PipeThrough) Name() string { return t.name }

// Write implements io.Writer.
func (t *PipeThrough) Write(b []byte) (int, error) {
	t.in.start.Do(func() { go t.run() })
	return t.in.write(&t.Emitter, b)
}

// End implements Sink.End. EventFinish follows once the transform has
// written its last byte.
func (t *PipeThrough) End() error {
	t.in.start.Do(func() { go t.run() })
	return t.in.end()
}

// Read implements io.Reader.
func (t *PipeThrough) Read(b []byte) (int, error) {
	t.in.start.Do(func() { go t.run() })

	n, err := t.outR.Read(b)
	if err == io.EOF {
		t.outEnd.Do(func() { t.Emit(EventEnd, nil) })
	}
	return n, err
}

// Abort implements Aborter.
func (t *PipeThrough) Abort(err error) {
	err = abortCause(err)
	t.in.start.Do(func() {})
	t.outEnd.Do(func() {})
	t.in.abort(err)
	_ = t.outW.CloseWithError(err)
}

func (t *PipeThrough) run() {
	err := t.fn(t.outW, readOnly{t.in.r})
	if err == nil {
		_, err = io.Copy(io.Discard, t.in.r)
	}
	if err != nil {
		_ = t.in.r.CloseWithError(err)
		_ = t.outW.CloseWithError(err)
		t.Emit(EventError, err)
		return
	}
	_ = t.outW.Close()
	t.Emit(EventFinish, nil)
}

// pipeEnd is the writable half shared by Consumer and PipeThrough.
type pipeEnd struct {
	r     *io.PipeReader
	w     *io.PipeWriter
	start sync.Once
	mu    sync.Mutex
	ended bool
}

func (p *pipeEnd) init() {
	p.r, p.w = io.Pipe()
}

func (p *pipeEnd) write(e *Emitter, b []byte) (int, error) {
	p.mu.Lock()
	ended := p.ended
	p.mu.Unlock()
	if ended {
		e.Emit(EventError, pferrors.ErrWriteAfterEnd)
		return 0, pferrors.ErrWriteAfterEnd
	}
	// Failures here come from the worker closing the pipe; the worker has
	// already emitted them.
	return p.w.Write(b)
}

func (p *pipeEnd) end() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return nil
	}
	p.ended = true
	return p.w.Close()
}

// abort closes the read half so that pending and future writes fail with err.
func (p *pipeEnd) abort(err error) {
	p.mu.Lock()
	p.ended = true
	p.mu.Unlock()
	_ = p.r.CloseWithError(err)
}

// readOnly hides Close so that functions handing the reader to APIs that
// close it, such as an HTTP request body, cannot cut off the drain.
type readOnly struct {
	io.Reader
}

func abortCause(err error) error {
	if err == nil {
		return pferrors.ErrAborted
	}
	return err
}
