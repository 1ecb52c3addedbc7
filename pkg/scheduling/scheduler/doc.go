// Package scheduler runs jobs on cron schedules.
//
// Each Run call drives one job until its context is cancelled. A run that
// is still in progress when the next activation is due causes that
// activation to be skipped, so a slow pipeline never overlaps with itself.
//
//	s := scheduler.New(scheduler.Config{})
//	err := s.Run(ctx, "nightly", "0 2 * * *", func(ctx context.Context) error {
//		return pipe.Run(stages(), cfg)
//	})
//
// Expressions use the standard five fields with an optional leading seconds
// field, plus descriptors such as "@hourly" and "@every 10m".
package scheduler
