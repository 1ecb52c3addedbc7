// Package workerpool runs tasks on a fixed number of worker goroutines.
//
//	pool, _ := workerpool.New(workerpool.Config{WorkerCount: 4})
//	go func() {
//		for _, p := range plans {
//			_ = pool.Submit(ctx, p.Name, run(p))
//		}
//		pool.Shutdown()
//	}()
//	for res := range pool.Results() {
//		// ...
//	}
//
// Results must be consumed: a worker blocks until its result is taken.
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/common/validation"
)

const module = "workerpool"

// Task is a unit of work. It should return when ctx is done.
type Task func(ctx context.Context) error

// Result reports one executed task.
type Result struct {
	ID       string
	Error    error
	Duration time.Duration
	WorkerID int
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers. Must be positive.
	WorkerCount int

	// QueueSize is the number of tasks that may wait for a worker. Zero
	// makes Submit wait for a free worker.
	QueueSize int

	// TaskTimeout bounds each task. Zero means no timeout.
	TaskTimeout time.Duration
}

type job struct {
	ctx  context.Context
	id   string
	task Task
}

// Pool is a fixed set of workers fed by a queue.
type Pool struct {
	config  Config
	queue   chan job
	results chan Result

	mu       sync.RWMutex
	shutdown bool
	once     sync.Once
	workers  sync.WaitGroup
}

// New starts a pool with config.WorkerCount workers.
func New(config Config) (*Pool, error) {
	if err := validation.ValidatePositive(module, "worker_count", config.WorkerCount); err != nil {
		return nil, err
	}
	if config.QueueSize < 0 {
		return nil, pferrors.NewValidationError(module, "queue_size", config.QueueSize, "cannot be negative")
	}

	p := &Pool{
		config:  config,
		queue:   make(chan job, config.QueueSize),
		results: make(chan Result),
	}
	for i := 0; i < config.WorkerCount; i++ {
		p.workers.Add(1)
		go p.work(i)
	}
	return p, nil
}

// Submit queues task under id. It blocks while the queue is full and fails
// once ctx is done or the pool is shut down.
func (p *Pool) Submit(ctx context.Context, id string, task Task) error {
	if err := validation.ValidateNotNil(module, "task", task); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.shutdown {
		return fmt.Errorf("cannot submit task %s: %w", id, pferrors.ErrClosed)
	}

	select {
	case p.queue <- job{ctx: ctx, id: id, task: task}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task %s: %w", id, ctx.Err())
	}
}

// Results returns the channel of task results. It is closed after Shutdown
// once every queued task ran.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown stops accepting tasks. Queued tasks still run. The returned
// channel is closed when every worker exited.
func (p *Pool) Shutdown() <-chan struct{} {
	done := make(chan struct{})
	p.once.Do(func() {
		p.mu.Lock()
		p.shutdown = true
		close(p.queue)
		p.mu.Unlock()

		go func() {
			p.workers.Wait()
			close(p.results)
			close(done)
		}()
	})
	return done
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.config.WorkerCount
}

func (p *Pool) work(id int) {
	defer p.workers.Done()
	for j := range p.queue {
		p.results <- p.execute(id, j)
	}
}

func (p *Pool) execute(workerID int, j job) (res Result) {
	start := time.Now()
	res = Result{ID: j.id, WorkerID: workerID}

	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Errorf("task %s panicked: %v\nStack trace:\n%s", j.id, r, debug.Stack())
		}
		res.Duration = time.Since(start)
	}()

	ctx := j.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}
	res.Error = j.task(ctx)
	return res
}
