package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/pipeflow/internal/app"
	"github.com/vnykmshr/pipeflow/internal/plan"
	"github.com/vnykmshr/pipeflow/pkg/scheduling/scheduler"
	"github.com/vnykmshr/pipeflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
)

type options struct {
	cron     string
	parallel int
	timeout  time.Duration
}

// NewCmd creates the `pipeflow run` command.
func NewCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "run PLAN.yml...",
		Short: "Run the pipelines described by YAML plans",
		Long: `Run the pipelines described by YAML plans.

Plans run concurrently, at most --parallel at a time. With --cron, or a
cron field in a plan, the plan runs on that schedule until interrupted. An
activation is skipped while the previous run of the same plan is still in
progress.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plans := make([]*plan.Plan, 0, len(args))
			for _, path := range args {
				p, err := plan.Load(path)
				if err != nil {
					return err
				}
				if o.cron != "" {
					p.Cron = o.cron
				}
				plans = append(plans, p)
			}

			a := app.FromContext(cmd.Context())
			if plans[0].Cron != "" {
				return schedule(cmd.Context(), a, plans)
			}
			return runAll(cmd.Context(), a, plans, o)
		},
	}

	cmd.Flags().StringVar(&o.cron, "cron", "", "Cron schedule, e.g. \"*/5 * * * *\" or \"@hourly\"")
	cmd.Flags().IntVarP(&o.parallel, "parallel", "p", 4, "Maximum number of plans running at once")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 0, "Fail a plan that runs longer than this")
	return cmd
}

func runOnce(ctx context.Context, a *app.App, p *plan.Plan) error {
	stages, err := p.Build(ctx, a.PlanDeps())
	if err != nil {
		return err
	}

	cfg := a.PipeConfig(p.Name)
	cfg.KeepOpen = p.KeepOpen
	if err := pipe.Run(stages, cfg); err != nil {
		return fmt.Errorf("plan %s: %w", p.Name, err)
	}
	a.Logger.Info().Str("plan", p.Name).Int("stages", len(stages)).Msg("plan completed")
	return nil
}

// runAll runs every plan once on a worker pool and joins their errors.
func runAll(ctx context.Context, a *app.App, plans []*plan.Plan, o options) error {
	if len(plans) == 1 {
		return runOnce(ctx, a, plans[0])
	}

	pool, err := workerpool.New(workerpool.Config{
		WorkerCount: min(o.parallel, len(plans)),
		TaskTimeout: o.timeout,
	})
	if err != nil {
		return err
	}

	submitErr := make(chan error, 1)
	go func() {
		defer pool.Shutdown()
		for _, p := range plans {
			p := p
			if err := pool.Submit(ctx, p.Name, func(ctx context.Context) error {
				return runOnce(ctx, a, p)
			}); err != nil {
				submitErr <- err
				return
			}
		}
		submitErr <- nil
	}()

	var errs []error
	for res := range pool.Results() {
		if res.Error != nil {
			errs = append(errs, res.Error)
		}
	}
	if err := <-submitErr; err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// schedule runs every plan on its own schedule until ctx is done.
func schedule(ctx context.Context, a *app.App, plans []*plan.Plan) error {
	s := scheduler.New(scheduler.Config{Logger: &a.Logger})

	for _, p := range plans {
		if p.Cron == "" {
			return fmt.Errorf("plan %s has no cron schedule", p.Name)
		}
		next, err := s.Next(p.Cron, time.Now())
		if err != nil {
			return err
		}
		a.Logger.Info().Str("plan", p.Name).Str("cron", p.Cron).Time("next", next).Msg("plan scheduled")
	}

	var wg sync.WaitGroup
	for _, p := range plans {
		wg.Add(1)
		go func(p *plan.Plan) {
			defer wg.Done()
			stats, err := s.Run(ctx, p.Name, p.Cron, func(ctx context.Context) error {
				return runOnce(ctx, a, p)
			})
			if err != nil {
				a.Logger.Error().Err(err).Str("plan", p.Name).Msg("scheduler failed")
				return
			}
			a.Logger.Info().
				Str("plan", p.Name).
				Int64("runs", stats.Runs).
				Int64("failures", stats.Failures).
				Int64("skips", stats.Skips).
				Msg("scheduler stopped")
		}(p)
	}
	wg.Wait()
	return nil
}
