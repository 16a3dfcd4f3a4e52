package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
var ErrQueueFull = errors.New("queue full")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// DrainTimeout bounds the handler context used for jobs still buffered
	// when Stop is called.
	DrainTimeout time.Duration
	Logger       *zap.Logger
}

// Stats reports queue counters.
type Stats struct {
	Processed int64
	Failed    int64
	Dropped   int64
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
// Buffered jobs are drained on Stop so short-lived work is not lost on
// shutdown.
type Queue struct {
	name    string
	handler Handler

	workers      int
	maxRetries   int
	retryDelay   time.Duration
	drainTimeout time.Duration
	logger       *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	stopped bool

	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:         name,
		handler:      handler,
		workers:      cfg.Workers,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		drainTimeout: cfg.DrainTimeout,
		logger:       cfg.Logger,
		jobs:         make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels workers, drains buffered jobs and waits for every goroutine
// to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped",
		zap.String("queue", q.name),
		zap.Int64("processed", q.processed.Load()),
		zap.Int64("failed", q.failed.Load()),
	)
}

// Enqueue pushes a job onto the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	ctx, err := q.acceptCtx()
	if err != nil {
		return err
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

// TryEnqueue pushes a job without blocking and reports ErrQueueFull when the
// buffer is saturated.
func (q *Queue) TryEnqueue(job Job) error {
	if _, err := q.acceptCtx(); err != nil {
		return err
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		q.dropped.Add(1)
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
	}
}

func (q *Queue) acceptCtx() (context.Context, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return nil, fmt.Errorf("queue %s not started", q.name)
	}
	if q.stopped {
		return nil, fmt.Errorf("queue %s stopped", q.name)
	}
	return q.ctx, nil
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case job := <-q.jobs:
			q.run(q.ctx, job, true)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobs:
			ctx, cancel := context.WithTimeout(context.Background(), q.drainTimeout)
			q.run(ctx, job, false)
			cancel()
		default:
			return
		}
	}
}

func (q *Queue) run(ctx context.Context, job Job, retry bool) {
	err := q.handler(ctx, job)
	if err == nil {
		q.processed.Add(1)
		return
	}
	if !retry {
		q.failed.Add(1)
		q.logger.Error("job failed during drain", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	q.handleFailure(job, err)
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.failed.Add(1)
		q.logger.Error("job exceeded retries",
			zap.String("queue", q.name),
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Error(err),
		)
		return
	}
	q.logger.Warn("job failed, retrying",
		zap.String("queue", q.name),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	)

	q.wg.Add(1)
	go func(j Job) {
		defer q.wg.Done()
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.failed.Add(1)
			return
		case <-timer.C:
		}
		select {
		case q.jobs <- j:
		case <-q.ctx.Done():
			q.failed.Add(1)
		}
	}(job)
}
