package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestTimeout is the default timeout for tests
const TestTimeout = 5 * time.Second

// WithTimeout creates a context with the default test timeout
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// AssertNotEqual fails the test if got == want
func AssertNotEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got == want {
		t.Fatalf("got %v, want anything else", got)
	}
}

// Eventually polls condition every tick until it returns true or timeout
// elapses, in which case the test fails.
func Eventually(t *testing.T, condition func() bool, timeout, tick time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(tick)
	}
}

// AssertEventually is Eventually with the default test timeout.
func AssertEventually(t *testing.T, condition func() bool) {
	t.Helper()
	Eventually(t, condition, TestTimeout, 10*time.Millisecond)
}

// WaitForInt32 waits until *addr equals want or fails the test after timeout.
func WaitForInt32(t *testing.T, addr *int32, want int32, timeout time.Duration) {
	t.Helper()
	Eventually(t, func() bool { return atomic.LoadInt32(addr) == want }, timeout, time.Millisecond)
}

// CallbackTracker records how often a callback ran and the last value it
// was given. It is safe for concurrent use.
type CallbackTracker struct {
	mu    sync.Mutex
	count int
	value interface{}
	calls chan struct{}
}

// NewCallbackTracker creates an empty tracker.
func NewCallbackTracker() *CallbackTracker {
	return &CallbackTracker{calls: make(chan struct{}, 1024)}
}

// Mark records a call. The first argument, if any, becomes the tracked value.
func (ct *CallbackTracker) Mark(args ...interface{}) {
	ct.mu.Lock()
	ct.count++
	if len(args) > 0 {
		ct.value = args[0]
	}
	ct.mu.Unlock()

	select {
	case ct.calls <- struct{}{}:
	default:
	}
}

// MarkErr records a call carrying err. It matches the pipe callback signature.
func (ct *CallbackTracker) MarkErr(err error) {
	ct.Mark(err)
}

// Called reports whether Mark was called at least once.
func (ct *CallbackTracker) Called() bool {
	return ct.CallCount() > 0
}

// CallCount returns the number of recorded calls.
func (ct *CallbackTracker) CallCount() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.count
}

// Value returns the last tracked value.
func (ct *CallbackTracker) Value() interface{} {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.value
}

// Err returns the last tracked value as an error.
func (ct *CallbackTracker) Err() error {
	err, _ := ct.Value().(error)
	return err
}

// Wait blocks until the next recorded call or fails the test after
// TestTimeout.
func (ct *CallbackTracker) Wait(t *testing.T) {
	t.Helper()
	select {
	case <-ct.calls:
	case <-time.After(TestTimeout):
		t.Fatalf("callback not called within %v", TestTimeout)
	}
}

// Reset clears the recorded calls.
func (ct *CallbackTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.count = 0
	ct.value = nil
	for len(ct.calls) > 0 {
		<-ct.calls
	}
}

// AssertCalled fails the test if the tracker was never called.
func (ct *CallbackTracker) AssertCalled(t *testing.T) {
	t.Helper()
	if !ct.Called() {
		t.Fatal("expected callback to be called")
	}
}

// AssertNotCalled fails the test if the tracker was called.
func (ct *CallbackTracker) AssertNotCalled(t *testing.T) {
	t.Helper()
	if ct.Called() {
		t.Fatalf("expected callback not to be called, got %d calls", ct.CallCount())
	}
}

// AssertCallCount fails the test unless the tracker was called exactly n times.
func (ct *CallbackTracker) AssertCallCount(t *testing.T, n int) {
	t.Helper()
	if got := ct.CallCount(); got != n {
		t.Fatalf("call count = %d, want %d", got, n)
	}
}
