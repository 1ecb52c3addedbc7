package cat

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/pipeflow/internal/app"
	"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// NewCmd creates the `pipeflow cat` command.
func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat DST SRC...",
		Short: "Concatenate every SRC into DST",
		Long: `Concatenate every SRC into DST.

Each SRC is streamed by its own pipeline into the same DST. DST stays open
between sources and is closed after the last one.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(cmd, args[0], args[1:])
		},
	}
}

func runCat(cmd *cobra.Command, dst string, srcs []string) error {
	ctx := cmd.Context()
	a := app.FromContext(ctx)

	sink, err := a.Sink(ctx, dst)
	if err != nil {
		return err
	}

	for i, src := range srcs {
		source, err := a.Source(ctx, src)
		if err != nil {
			abort(sink, err)
			return err
		}

		cfg := a.PipeConfig("cat")
		cfg.KeepOpen = i < len(srcs)-1
		if err := pipe.Run([]stage.Stage{source, sink}, cfg); err != nil {
			// a failed pipeline already aborted the sink
			return fmt.Errorf("cat %s: %w", src, err)
		}
	}

	a.Logger.Info().Str("dst", dst).Int("sources", len(srcs)).Msg("concatenated")
	return nil
}

func abort(s stage.Sink, err error) {
	if ab, ok := s.(stage.Aborter); ok {
		ab.Abort(err)
	}
}
