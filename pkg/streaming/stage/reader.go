package stage

import (
	"io"
	"sync"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
)

// ReaderSource adapts an io.Reader into a Source. The reader is closed, if it
// is an io.Closer, once it returns io.EOF, fails, or the source is aborted.
type ReaderSource struct {
	Emitter

	name     string
	r        io.Reader
	terminal sync.Once
}

// NewSource wraps r as a Source named name.
func NewSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, r: r}
}

// Name implements Stage.Name.
func (s *ReaderSource) Name() string { return s.name }

// Read implements io.Reader. EventEnd is emitted when the reader reports
// io.EOF and EventError when it fails.
func (s *ReaderSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	switch {
	case err == io.EOF:
		s.settle(func() { s.Emit(EventEnd, nil) })
	case err != nil:
		s.settle(func() { s.Emit(EventError, err) })
	}
	return n, err
}

// Abort implements Aborter. The reader is aborted if it implements Aborter
// and closed otherwise; no event is emitted.
func (s *ReaderSource) Abort(err error) {
	s.terminal.Do(func() { abortQuietly(s.r, err) })
}

func (s *ReaderSource) settle(emit func()) {
	s.terminal.Do(func() {
		closeQuietly(s.r)
		emit()
	})
}

// WriterSink adapts an io.Writer into a Sink. End closes the writer if it is
// an io.Closer and emits EventFinish.
type WriterSink struct {
	Emitter

	name  string
	w     io.Writer
	mu    sync.Mutex
	ended bool
}

// NewSink wraps w as a Sink named name.
func NewSink(name string, w io.Writer) *WriterSink {
	return &WriterSink{name: name, w: w}
}

// Name implements Stage.Name.
func (s *WriterSink) Name() string { return s.name }

// Write implements io.Writer. Writing after End fails with ErrWriteAfterEnd.
func (s *WriterSink) Write(p []byte) (int, error) {
	if s.isEnded() {
		s.Emit(EventError, pferrors.ErrWriteAfterEnd)
		return 0, pferrors.ErrWriteAfterEnd
	}

	n, err := s.w.Write(p)
	if err != nil {
		s.Emit(EventError, err)
	}
	return n, err
}

// End implements Sink.End. Calling End more than once is a no-op.
func (s *WriterSink) End() error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	s.mu.Unlock()

	if c, ok := s.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.Emit(EventError, err)
			return err
		}
	}
	s.Emit(EventFinish, nil)
	return nil
}

// Ended reports whether End or Abort has been called.
func (s *WriterSink) Ended() bool { return s.isEnded() }

// Abort implements Aborter. The writer is aborted if it implements Aborter
// and closed otherwise, without emitting EventFinish.
func (s *WriterSink) Abort(err error) {
	s.mu.Lock()
	wasEnded := s.ended
	s.ended = true
	s.mu.Unlock()

	if !wasEnded {
		abortQuietly(s.w, err)
	}
}

func (s *WriterSink) isEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func closeQuietly(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}

func abortQuietly(v interface{}, err error) {
	if a, ok := v.(Aborter); ok {
		a.Abort(err)
		return
	}
	closeQuietly(v)
}
