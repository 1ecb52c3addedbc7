package copy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/pipeflow/internal/app"
	"github.com/vnykmshr/pipeflow/pkg/streaming/codec"
	"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/throttle"
)

type options struct {
	gzip   bool
	gunzip bool
	level  int
	rate   int64
}

// NewCmd creates the `pipeflow copy` command.
func NewCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "copy SRC DST",
		Short: "Stream SRC into DST, optionally compressing or decompressing",
		Long: `Stream SRC into DST in one pipeline.

SRC and DST are file paths, http(s) URLs, redis://host:port/key or "-" for
stdin and stdout. An http DST receives the data as a POST body.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args[0], args[1], o)
		},
	}

	cmd.Flags().BoolVar(&o.gzip, "gzip", false, "Compress the data with gzip")
	cmd.Flags().BoolVar(&o.gunzip, "gunzip", false, "Decompress gzip data")
	cmd.Flags().IntVar(&o.level, "level", -1, "gzip compression level (-2..9)")
	cmd.Flags().Int64Var(&o.rate, "rate", 0, "Limit throughput to this many bytes per second")
	cmd.MarkFlagsMutuallyExclusive("gzip", "gunzip")
	return cmd
}

func runCopy(cmd *cobra.Command, src, dst string, o options) error {
	ctx := cmd.Context()
	a := app.FromContext(ctx)

	source, err := a.Source(ctx, src)
	if err != nil {
		return err
	}

	stages := []stage.Stage{source}
	switch {
	case o.gzip:
		gz, err := codec.GzipLevel(o.level)
		if err != nil {
			return err
		}
		stages = append(stages, gz)
	case o.gunzip:
		stages = append(stages, codec.Gunzip())
	}

	if o.rate > 0 {
		th, err := throttle.Rate(ctx, o.rate)
		if err != nil {
			return err
		}
		stages = append(stages, th)
	}

	sink, err := a.Sink(ctx, dst)
	if err != nil {
		return err
	}
	stages = append(stages, sink)

	if err := pipe.Run(stages, a.PipeConfig("copy")); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	a.Logger.Info().Str("src", src).Str("dst", dst).Msg("copied")
	return nil
}
