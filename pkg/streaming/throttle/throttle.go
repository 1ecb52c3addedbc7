// Package throttle provides a Through that paces the bytes flowing through
// it with a bucket.Limiter.
package throttle

import (
	"context"
	"io"

	"github.com/vnykmshr/pipeflow/pkg/ratelimit/bucket"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// New returns a Through that forwards its input unchanged at the pace of
// lim. Waiting stops, and the stage fails, when ctx ends.
func New(ctx context.Context, lim *bucket.Limiter) *stage.PipeThrough {
	return stage.NewThrough("throttle", func(dst io.Writer, src io.Reader) error {
		buf := make([]byte, chunkSize(lim))
		for {
			n, err := src.Read(buf)
			if n > 0 {
				if werr := lim.WaitN(ctx, n); werr != nil {
					return werr
				}
				if _, werr := dst.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	})
}

// maxChunk bounds the copy buffer; a high rate implies a burst of the same size.
const maxChunk = 32 * 1024

func chunkSize(lim *bucket.Limiter) int {
	return min(lim.Burst(), maxChunk)
}

// Rate is New with a fresh limiter of bytesPerSecond. Zero disables pacing.
func Rate(ctx context.Context, bytesPerSecond int64) (*stage.PipeThrough, error) {
	lim, err := bucket.New(bucket.Config{BytesPerSecond: bytesPerSecond})
	if err != nil {
		return nil, err
	}
	return New(ctx, lim), nil
}
