package root

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/pipeflow/cmd/pipeflow/cat"
	copycmd "github.com/vnykmshr/pipeflow/cmd/pipeflow/copy"
	"github.com/vnykmshr/pipeflow/cmd/pipeflow/run"
	"github.com/vnykmshr/pipeflow/cmd/pipeflow/serve"
	"github.com/vnykmshr/pipeflow/cmd/pipeflow/version"
	"github.com/vnykmshr/pipeflow/internal/app"
	"github.com/vnykmshr/pipeflow/internal/config"
)

type flags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

// NewRootCmd creates the root command for pipeflow.
func NewRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "pipeflow",
		Short: "Compose files, archives, compressors and remote endpoints into streaming pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, skip := cmd.Annotations[app.SkipAnnotation]; skip {
				return nil
			}
			return setup(cmd, f)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a := app.FromContext(cmd.Context()); a != nil {
				return a.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "Path to config file (default ./"+config.DefaultFile+" when present)")
	pf.StringVar(&f.envFile, "env-file", "", "Path to a .env file (default ./.env when present)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error or disabled")
	pf.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(
		version.NewCmd(),
		copycmd.NewCmd(),
		cat.NewCmd(),
		run.NewCmd(),
		serve.NewCmd(),
	)
	return cmd
}

func setup(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(config.Options{ConfigFile: f.configFile, EnvFile: f.envFile})
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Log.Validate(); err != nil {
		return err
	}

	a := app.New(cfg, cmd.ErrOrStderr())
	a.Stdin = cmd.InOrStdin()
	a.Stdout = cmd.OutOrStdout()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(app.WithContext(ctx, a))
	return nil
}

// Execute runs the root command with the provided args.
func Execute(ctx context.Context, args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
