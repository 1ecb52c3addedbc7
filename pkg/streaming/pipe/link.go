package pipe

import (
	"io"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// link connects the output of stages[from] to the input of the next stage.
type link struct {
	from         int
	src          stage.Source
	dst          stage.Sink
	propagateEnd bool

	// final is set on the link into the last stage.
	final bool
}

// discard is the sink behind a pipeline whose last stage produces output
// nobody asked for.
type discard struct {
	stage.Emitter
}

func (*discard) Name() string                { return "discard" }
func (*discard) Write(p []byte) (int, error) { return len(p), nil }
func (*discard) End() error                  { return nil }

// buildLinks connects every adjacent pair. End propagates on interior links
// and, unless keepOpen is set, on the final one. A last stage that is also a
// Source is drained when its output would otherwise stall it.
func buildLinks(stages []stage.Stage, keepOpen bool) []*link {
	n := len(stages)
	links := make([]*link, 0, n)

	for i := 0; i < n-1; i++ {
		final := i == n-2
		links = append(links, &link{
			from:         i,
			src:          stages[i].(stage.Source),
			dst:          stages[i+1].(stage.Sink),
			propagateEnd: !final || !keepOpen,
			final:        final,
		})
	}

	if src, ok := stages[n-1].(stage.Source); ok && (n == 1 || !keepOpen) {
		links = append(links, &link{
			from: n - 1,
			src:  src,
			dst:  &discard{},
		})
	}
	return links
}

// pump moves data across l until the upstream ends, a stage fails, or the
// pipeline settles.
func (p *pipeline) pump(l *link) {
	buf := make([]byte, p.config.ChunkSize)

	for {
		n, rerr := l.src.Read(buf)
		if n > 0 {
			if p.settled() {
				return
			}
			written, werr := l.dst.Write(buf[:n])
			if werr == nil && written < n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				p.post(event{stage: l.from + 1, err: werr})
				return
			}
			p.moved(written)
		}

		switch {
		case rerr == io.EOF:
			p.endOf(l)
			return
		case rerr != nil:
			p.post(event{stage: l.from, err: rerr})
			return
		}
	}
}

func (p *pipeline) endOf(l *link) {
	if l.propagateEnd {
		if err := l.dst.End(); err != nil {
			p.post(event{stage: l.from + 1, err: err})
		}
		return
	}
	if l.final {
		p.post(event{stage: l.from + 1, completed: true})
	}
}
