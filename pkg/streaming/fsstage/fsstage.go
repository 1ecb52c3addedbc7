// Package fsstage provides file stages. Files are opened on first use, so
// errors such as a missing source or a directory as destination are reported
// through the stage's error event rather than by the constructor.
package fsstage

import (
	"io"
	"os"
	"sync"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// DefaultPerm is the mode of files created by Create and Append.
const DefaultPerm os.FileMode = 0o644

// Open returns a Source reading the file at path.
func Open(path string) *stage.ReaderSource {
	return stage.NewSource(path, &lazyFile{path: path, flag: os.O_RDONLY})
}

// Create returns a Sink that truncates or creates the file at path. The file
// is created on the first write, or on End if nothing was written.
func Create(path string) *stage.WriterSink {
	return stage.NewSink(path, &lazyFile{path: path, flag: os.O_WRONLY | os.O_CREATE | os.O_TRUNC, perm: DefaultPerm})
}

// Append returns a Sink that appends to the file at path, creating it if
// needed.
func Append(path string) *stage.WriterSink {
	return stage.NewSink(path, &lazyFile{path: path, flag: os.O_WRONLY | os.O_CREATE | os.O_APPEND, perm: DefaultPerm})
}

// lazyFile opens path on the first Read, Write or Close.
type lazyFile struct {
	path string
	flag int
	perm os.FileMode

	once sync.Once
	f    *os.File
	err  error
}

func (l *lazyFile) open() error {
	l.once.Do(func() {
		l.f, l.err = os.OpenFile(l.path, l.flag, l.perm)
	})
	return l.err
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if err := l.open(); err != nil {
		return 0, err
	}
	return l.f.Read(p)
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if err := l.open(); err != nil {
		return 0, err
	}
	return l.f.Write(p)
}

// Close opens writable files that were never written so that an empty
// output still exists. Read-only files that were never opened stay closed.
func (l *lazyFile) Close() error {
	if l.flag == os.O_RDONLY {
		l.once.Do(func() { l.err = os.ErrClosed })
	}
	if err := l.open(); err != nil {
		if err == os.ErrClosed {
			return nil
		}
		return err
	}
	return l.f.Close()
}

// Abort closes the file if it was opened and prevents it from being opened
// later, so an aborted Create leaves no file behind.
func (l *lazyFile) Abort(error) {
	l.once.Do(func() { l.err = os.ErrClosed })
	if l.f != nil {
		_ = l.f.Close()
	}
}

var _ io.ReadWriteCloser = (*lazyFile)(nil)
