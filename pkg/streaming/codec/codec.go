// Package codec provides compression stages.
package codec

import (
	"compress/gzip"
	"errors"
	"io"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// Gzip returns a Through compressing its input with the default level.
func Gzip() *stage.PipeThrough {
	t, _ := GzipLevel(gzip.DefaultCompression)
	return t
}

// GzipLevel returns a Through compressing its input at level, which must be
// a valid compress/gzip level.
func GzipLevel(level int) (*stage.PipeThrough, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, pferrors.NewValidationError("codec", "level", level, "is not a valid gzip level").
			WithHint("use a value between -2 and 9")
	}

	return stage.NewThrough("gzip", func(dst io.Writer, src io.Reader) error {
		zw, err := gzip.NewWriterLevel(dst, level)
		if err != nil {
			return err
		}
		if _, err := io.Copy(zw, src); err != nil {
			return err
		}
		return zw.Close()
	}), nil
}

// Gunzip returns a Through decompressing gzip input. Input that is not gzip
// fails with gzip.ErrHeader; truncated input with io.ErrUnexpectedEOF.
func Gunzip() *stage.PipeThrough {
	return stage.NewThrough("gunzip", func(dst io.Writer, src io.Reader) error {
		zr, err := gzip.NewReader(src)
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, zr); err != nil {
			return err
		}
		return zr.Close()
	})
}
