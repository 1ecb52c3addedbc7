/*
Package scheduling runs pipelines repeatedly or side by side.

  - scheduler: cron schedules, skipping an activation while the previous
    run of the same job is still going
  - workerpool: a fixed number of workers running queued tasks

Scheduling a job:

	s := scheduler.New(scheduler.Config{Logger: &log})
	stats, err := s.Run(ctx, "backup", "@hourly", func(ctx context.Context) error {
		return pipe.Run(buildStages(), pipe.Config{Name: "backup"})
	})

Running tasks concurrently:

	pool, _ := workerpool.New(workerpool.Config{WorkerCount: 4})

Both stop when their context is done and wait for running work before
returning.
*/
package scheduling
