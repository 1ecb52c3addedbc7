package testutil

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// MockWriter is a test writer that can simulate various write conditions
// including delays, errors, write counting and close tracking.
type MockWriter struct {
	buf         *bytes.Buffer
	mu          sync.Mutex
	writeDelay  time.Duration
	errorOnNth  int
	writeCount  int
	shouldError bool
	err         error
	closed      bool
	closeCount  int
	closeErr    error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		buf: &bytes.Buffer{},
	}
}

// Write implements io.Writer interface with configurable behavior.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.writeDelay > 0 {
		time.Sleep(mw.writeDelay)
	}

	if mw.closed {
		return 0, errors.New("write on closed mock writer")
	}

	if mw.shouldError {
		return 0, mw.err
	}

	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, errors.New("simulated error")
	}

	return mw.buf.Write(p)
}

// Close implements io.Closer and records the call.
func (mw *MockWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.closed = true
	mw.closeCount++
	return mw.closeErr
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// Len returns the current buffer length.
func (mw *MockWriter) Len() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.Len()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// Closed reports whether Close was called.
func (mw *MockWriter) Closed() bool {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.closed
}

// CloseCount returns the number of Close calls.
func (mw *MockWriter) CloseCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.closeCount
}

// SetWriteDelay configures a delay for each write operation.
func (mw *MockWriter) SetWriteDelay(delay time.Duration) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.writeDelay = delay
}

// SetErrorOnNth configures the writer to error on the nth write.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.shouldError = true
	mw.err = err
}

// SetCloseError configures the error returned by Close.
func (mw *MockWriter) SetCloseError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.closeErr = err
}

// MockReader serves data and then fails with err instead of io.EOF. A nil
// err makes it behave like bytes.Reader. It records Close calls.
type MockReader struct {
	mu     sync.Mutex
	data   []byte
	err    error
	closed bool
}

// NewMockReader creates a reader that yields data and then err.
func NewMockReader(data []byte, err error) *MockReader {
	return &MockReader{data: data, err: err}
}

// Read implements io.Reader.
func (mr *MockReader) Read(p []byte) (int, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if len(mr.data) == 0 {
		if mr.err != nil {
			return 0, mr.err
		}
		return 0, io.EOF
	}
	n := copy(p, mr.data)
	mr.data = mr.data[n:]
	return n, nil
}

// Close implements io.Closer.
func (mr *MockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.closed = true
	return nil
}

// Closed reports whether Close was called.
func (mr *MockReader) Closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.closed
}
