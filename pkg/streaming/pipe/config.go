package pipe

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vnykmshr/pipeflow/pkg/common/validation"
	"github.com/vnykmshr/pipeflow/pkg/metrics"
)

const (
	// DefaultChunkSize is the copy buffer size of each link.
	DefaultChunkSize = 32 * 1024

	// DefaultName labels pipelines that were not given a name.
	DefaultName = "pipe"

	instrumentationName = "github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
)

// Callback receives the outcome of a pipeline: nil on completion, otherwise
// the first error a stage reported, unwrapped.
type Callback func(err error)

// Config holds the options of a pipeline. The zero value is valid and
// behaves like the default: end is propagated to the final stage, logging
// and metrics are off.
type Config struct {
	// KeepOpen leaves the final stage open when the upstream ends, so it can
	// receive the output of another pipeline. The pipeline then completes as
	// soon as the final link has delivered all of its data.
	KeepOpen bool

	// Name labels the pipeline in logs, metrics and spans.
	Name string

	// ChunkSize is the copy buffer size of each link. It does not tune flow
	// control: a link still waits for every Write to return.
	ChunkSize int

	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger

	// Metrics records pipeline metrics. Nil disables them.
	Metrics *metrics.Registry

	// Tracer opens one span per pipeline. Nil uses the global provider.
	Tracer trace.Tracer
}

// DefaultConfig returns the default pipeline configuration, recording into
// metrics.DefaultRegistry and tracing with the global otel provider.
func DefaultConfig() Config {
	nop := zerolog.Nop()
	return Config{
		KeepOpen:  false,
		Name:      DefaultName,
		ChunkSize: DefaultChunkSize,
		Logger:    &nop,
		Metrics:   metrics.DefaultRegistry,
		Tracer:    otel.Tracer(instrumentationName),
	}
}

func (c Config) validate() error {
	if c.ChunkSize != 0 {
		return validation.ValidatePositive(module, "chunk_size", c.ChunkSize)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(instrumentationName)
	}
	return c
}
