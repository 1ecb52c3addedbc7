package pipe

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vnykmshr/pipeflow/internal/testutil"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

var allEvents = []stage.Event{stage.EventError, stage.EventEnd, stage.EventFinish}

// writeFile creates name under dir with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err)
	return string(data)
}

// run pipes stages and waits for the callback, failing the test if the
// call itself is rejected.
func run(t *testing.T, stages []stage.Stage, config Config) error {
	t.Helper()
	tracker := testutil.NewCallbackTracker()
	if err := PipeWithConfig(stages, config, tracker.MarkErr); err != nil {
		t.Fatalf("PipeWithConfig() = %v", err)
	}
	tracker.Wait(t)
	return tracker.Err()
}

// assertDetached fails if any stage still carries listeners.
func assertDetached(t *testing.T, stages ...stage.Stage) {
	t.Helper()
	for _, s := range stages {
		for _, ev := range allEvents {
			if n := s.ListenerCount(ev); n != 0 {
				t.Errorf("%s has %d %q listeners, want 0", s.Name(), n, ev)
			}
		}
	}
}

// failingSink rejects every write with err without emitting anything.
type failingSink struct {
	stage.Emitter
	err error
}

func (s *failingSink) Name() string              { return "failing" }
func (s *failingSink) Write([]byte) (int, error) { return 0, s.err }
func (s *failingSink) End() error                { return nil }

// shortSink accepts one byte less than it is given.
type shortSink struct {
	stage.Emitter
}

func (s *shortSink) Name() string { return "short" }
func (s *shortSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return len(p) - 1, nil
}
func (s *shortSink) End() error { return nil }

// gateSink blocks every write until release is closed.
type gateSink struct {
	stage.Emitter
	release chan struct{}

	mu     sync.Mutex
	writes int
}

func newGateSink() *gateSink {
	return &gateSink{release: make(chan struct{})}
}

func (s *gateSink) Name() string { return "gate" }

func (s *gateSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	<-s.release
	return len(p), nil
}

func (s *gateSink) End() error {
	s.Emit(stage.EventFinish, nil)
	return nil
}

func (s *gateSink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// sinkOnly has no Read method.
type sinkOnly struct {
	stage.Emitter
}

func (s *sinkOnly) Name() string                { return "sink-only" }
func (s *sinkOnly) Write(p []byte) (int, error) { return len(p), nil }
func (s *sinkOnly) End() error                  { return nil }

// sourceOnly has no Write method.
type sourceOnly struct {
	stage.Emitter
}

func (s *sourceOnly) Name() string             { return "source-only" }
func (s *sourceOnly) Read([]byte) (int, error) { return 0, nil }
