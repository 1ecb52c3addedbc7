package fsstage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	src := Open(path)
	ended := false
	src.On(stage.EventEnd, func(error) { ended = true })

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
	assert.True(t, ended)
	assert.Equal(t, path, src.Name())
}

func TestOpen_Missing(t *testing.T) {
	src := Open(filepath.Join(t.TempDir(), "missing"))

	var emitted error
	src.On(stage.EventError, func(err error) { emitted = err })

	_, err := src.Read(make([]byte, 16))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
	assert.True(t, errors.Is(emitted, fs.ErrNotExist), "emitted %v", emitted)
}

func TestOpen_AbortBeforeRead(t *testing.T) {
	src := Open(filepath.Join(t.TempDir(), "never-opened"))
	src.On(stage.EventError, func(err error) { t.Errorf("unexpected error event: %v", err) })
	src.Abort(nil)
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	sink := Create(path)

	finished := false
	sink.On(stage.EventFinish, func(error) { finished = true })

	_, err := sink.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = sink.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, sink.End())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.True(t, finished)
}

func TestCreate_EmptyOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, Create(path).End())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestCreate_Directory(t *testing.T) {
	sink := Create(t.TempDir())

	var emitted error
	sink.On(stage.EventError, func(err error) { emitted = err })

	_, err := sink.Write([]byte("x"))
	assert.True(t, errors.Is(err, syscall.EISDIR), "got %v", err)
	assert.True(t, errors.Is(emitted, syscall.EISDIR), "emitted %v", emitted)
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))

	sink := Append(path)
	_, err := sink.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, sink.End())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestCreate_AbortLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aborted.txt")
	sink := Create(path)
	sink.Abort(errors.New("upstream failed"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "got %v", err)
}
