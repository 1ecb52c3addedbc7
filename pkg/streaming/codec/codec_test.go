package codec

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// feed writes input into t and ends it, then returns everything t produced.
func feed(t *testing.T, th *stage.PipeThrough, input []byte) ([]byte, error) {
	t.Helper()
	go func() {
		if _, err := th.Write(input); err != nil {
			return
		}
		_ = th.End()
	}()
	return io.ReadAll(th)
}

func TestGzipRoundTrip(t *testing.T) {
	input := []byte(strings.Repeat("pipeflow ", 4096))

	compressed, err := feed(t, Gzip(), input)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(input))

	plain, err := feed(t, Gunzip(), compressed)
	require.NoError(t, err)
	assert.Equal(t, input, plain)
}

func TestGzipLevel(t *testing.T) {
	_, err := GzipLevel(42)
	require.Error(t, err)
	assert.True(t, pferrors.IsValidationError(err))

	th, err := GzipLevel(gzip.BestSpeed)
	require.NoError(t, err)

	out, err := feed(t, th, []byte("fast"))
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "fast", string(plain))
}

func TestGunzip_NotGzip(t *testing.T) {
	th := Gunzip()
	var emitted error
	done := make(chan struct{})
	th.On(stage.EventError, func(err error) {
		emitted = err
		close(done)
	})

	_, err := feed(t, th, []byte("definitely not gzip data"))
	assert.True(t, errors.Is(err, gzip.ErrHeader), "got %v", err)

	<-done
	assert.True(t, errors.Is(emitted, gzip.ErrHeader))
}

func TestGunzip_Empty(t *testing.T) {
	th := Gunzip()
	go func() { _ = th.End() }()

	_, err := io.ReadAll(th)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
