// Package worker provides a bounded worker pool that summarizes many texts
// concurrently against one summary service.
//
// Each job runs its own stream session; results are delivered through a
// callback in completion order, not submission order.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/skim/pkg/client"
	"github.com/papercomputeco/skim/pkg/logger"
	"github.com/papercomputeco/skim/pkg/stream"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// Job is one text to summarize. Name identifies it in results and logs,
// typically the source file path.
type Job struct {
	Name string
	Text string
}

// Result is the outcome of a Job.
type Result struct {
	Job Job

	// Text is the summary, or the partial text of a failed session.
	Text string

	// State is StateDone on success and StateFailed otherwise, including
	// when the stream never opened.
	State stream.State

	Err      error
	Duration time.Duration
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Client submits each job. Required.
	Client *client.Client

	// OnResult receives every result. It is called from worker goroutines
	// and must be safe for concurrent use.
	OnResult func(Result)

	// NumWorkers is the number of concurrent sessions (defaults to 3).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	Logger *slog.Logger
}

// Pool runs summary jobs on a fixed number of workers.
type Pool struct {
	config *Config
	ctx    context.Context
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Job
	wg     sync.WaitGroup
}

// NewPool creates a Pool and starts its workers. Canceling ctx abandons
// in-flight sessions; queued jobs then fail fast with the context error.
func NewPool(ctx context.Context, c *Config) (*Pool, error) {
	if c.Client == nil {
		return nil, errors.New("worker pool requires a client")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		ctx:    ctx,
		logger: log,
		queue:  make(chan Job, c.QueueSize),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job without blocking. It returns false when the queue is
// full or the pool is closed; the job is dropped in both cases.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed", "job", job.Name)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "job", job.Name, "input_chars", len(job.Text))
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "job", job.Name)
		return false
	}
}

// Close stops accepting jobs and waits for queued and in-flight jobs to
// finish. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	start := time.Now()
	result := Result{Job: job, State: stream.StateFailed}

	session, err := p.config.Client.Summarize(p.ctx, job.Text, nil)
	if session != nil {
		result.State = session.State()
		result.Text = session.Text()
	}
	result.Err = err
	result.Duration = time.Since(start)

	if err != nil {
		p.logger.Warn("summary failed",
			"job", job.Name,
			"reason", stream.Reason(err),
			"error", err,
		)
	} else {
		p.logger.Info("summary complete",
			"job", job.Name,
			"output_chars", len(result.Text),
			"duration", result.Duration,
		)
	}

	if p.config.OnResult != nil {
		p.config.OnResult(result)
	}
}
