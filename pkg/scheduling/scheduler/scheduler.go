package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/common/validation"
)

const module = "scheduler"

// Job is one activation of a scheduled task.
type Job func(ctx context.Context) error

// Config holds scheduler configuration.
type Config struct {
	// Location is the time zone expressions are evaluated in. Defaults to time.Local.
	Location *time.Location

	// Logger receives one event per activation. Nil disables logging.
	Logger *zerolog.Logger

	// OnError is called when a job returns an error.
	OnError func(id string, err error)

	// OnSkip is called when an activation is skipped because the previous
	// run of the same job is still in progress.
	OnSkip func(id string)
}

// Stats counts the activations of one job.
type Stats struct {
	Runs     int64
	Failures int64
	Skips    int64
}

// Scheduler runs jobs on cron schedules.
type Scheduler struct {
	parser cron.Parser
	config Config
	log    zerolog.Logger
}

// New creates a scheduler.
func New(config Config) *Scheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	return &Scheduler{
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		config: config,
		log:    log,
	}
}

// Parse validates expr and returns its schedule.
func (s *Scheduler) Parse(expr string) (cron.Schedule, error) {
	if err := validation.ValidateNotEmpty(module, "expression", expr); err != nil {
		return nil, err
	}
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return nil, pferrors.NewValidationError(module, "expression", expr, "is not a valid cron expression").
			WithHint(err.Error())
	}
	return schedule, nil
}

// Next returns the first activation of expr after from.
func (s *Scheduler) Next(expr string, from time.Time) (time.Time, error) {
	schedule, err := s.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from.In(s.config.Location)), nil
}

// Run activates job on the schedule described by expr until ctx is done.
// It returns once the last activation finished.
func (s *Scheduler) Run(ctx context.Context, id, expr string, job Job) (Stats, error) {
	schedule, err := s.Parse(expr)
	if err != nil {
		return Stats{}, err
	}
	return s.RunSchedule(ctx, id, schedule, job)
}

// RunSchedule is Run with an already parsed schedule.
func (s *Scheduler) RunSchedule(ctx context.Context, id string, schedule cron.Schedule, job Job) (Stats, error) {
	if err := validation.ValidateNotNil(module, "job", job); err != nil {
		return Stats{}, err
	}

	var (
		running  atomic.Bool
		wg       sync.WaitGroup
		runs     atomic.Int64
		failures atomic.Int64
		skips    atomic.Int64
	)

	for {
		now := time.Now().In(s.config.Location)
		next := schedule.Next(now)
		if next.IsZero() {
			break
		}
		s.log.Debug().Str("job", id).Time("next", next).Msg("job scheduled")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			wg.Wait()
			return Stats{Runs: runs.Load(), Failures: failures.Load(), Skips: skips.Load()}, nil
		case <-timer.C:
		}

		if !running.CompareAndSwap(false, true) {
			skips.Add(1)
			s.log.Warn().Str("job", id).Msg("previous run still in progress, activation skipped")
			if s.config.OnSkip != nil {
				s.config.OnSkip(id)
			}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer running.Store(false)

			start := time.Now()
			err := job(ctx)
			runs.Add(1)
			if err != nil {
				failures.Add(1)
				s.log.Error().Err(err).Str("job", id).Dur("elapsed", time.Since(start)).Msg("job failed")
				if s.config.OnError != nil {
					s.config.OnError(id, err)
				}
				return
			}
			s.log.Info().Str("job", id).Dur("elapsed", time.Since(start)).Msg("job completed")
		}()
	}

	wg.Wait()
	return Stats{Runs: runs.Load(), Failures: failures.Load(), Skips: skips.Load()}, nil
}
