// Package pipe composes stages into a single pipeline and reports its
// outcome exactly once.
//
// A pipeline is an ordered list of stages: a Source, zero or more Throughs
// and a final Sink. Each adjacent pair is linked by a goroutine that reads
// from the upstream stage and writes into the downstream one; a blocking
// Write is the backpressure signal. When the upstream reaches io.EOF the
// downstream is told to End, except on the final link when Config.KeepOpen
// is set, which leaves the final sink open for another pipeline.
//
// The callback receives the first stage error, or nil once the final stage
// completed. Every listener the pipeline attached to a stage is removed
// before the callback runs, and events arriving after that are discarded.
//
// Basic usage:
//
//	src := fsstage.Open("access.log")
//	dst := fsstage.Create("access.log.gz")
//	err := pipe.Pipe([]stage.Stage{src, codec.Gzip(), dst}, func(err error) {
//		if err != nil {
//			log.Printf("copy failed: %v", err)
//		}
//	})
//
// Run is the blocking form and ReadAll collects a source into memory.
//
// Chaining onto a shared sink:
//
//	cfg := pipe.DefaultConfig()
//	cfg.KeepOpen = true
//	pipe.PipeWithConfig([]stage.Stage{first, out}, cfg, func(err error) {
//		if err != nil {
//			return
//		}
//		pipe.Pipe([]stage.Stage{second, out}, done)
//	})
//
// # Failure handling
//
// On the first error every stage implementing stage.Aborter is aborted with
// that error, so data still in flight is discarded and blocked link
// goroutines return. The callback does not wait for them.
package pipe
