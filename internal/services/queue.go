package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/klix/internal/shared"
	"golang.org/x/time/rate"
)

// errSkip is returned by a job's resolve func when there is nothing to send.
var errSkip = errors.New("skipped")

// Job is a deferred fire-and-forget send.
//
// Resolve runs on a worker and returns the destination and payload. Returning an error wrapping
// errSkip (or an empty URL) skips the job without counting it as a failure.
type Job struct {
	Kind    string
	UserID  string
	Poster  Poster
	Resolve func(ctx context.Context) (url string, payload any, err error)
}

// JobOutcome is passed to the queue's completion callback. For a skipped job Err, if set, holds the reason.
type JobOutcome struct {
	Job      Job
	URL      string
	Delivery Delivery
	Err      error
	Skipped  bool
}

// QueueOptions sizes a [Queue].
type QueueOptions struct {
	Workers   int
	Size      int
	RateLimit float64
}

// Queue runs jobs on a fixed pool of workers sharing one rate limiter.
type Queue struct {
	jobs    chan Job
	limiter *rate.Limiter
	logger  *log.Logger
	onDone  func(JobOutcome)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewQueue starts opts.Workers workers (default 2) over a buffer of opts.Size jobs (default 256).
//
// A non-positive RateLimit means unlimited. onDone may be nil.
func NewQueue(opts QueueOptions, logger *log.Logger, onDone func(JobOutcome)) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Size <= 0 {
		opts.Size = 256
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan Job, opts.Size),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		onDone:  onDone,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue hands j to the workers without blocking.
//
// It returns [shared.ErrQueueFull] when the buffer is full and [shared.ErrQueueClosed] after Close.
func (q *Queue) Enqueue(j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return shared.ErrQueueClosed
	}

	select {
	case q.jobs <- j:
		return nil
	default:
		return fmt.Errorf("%w: %d jobs pending", shared.ErrQueueFull, len(q.jobs))
	}
}

// Pending reports the number of buffered jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Close stops accepting jobs and waits for the buffered ones to finish.
//
// If ctx ends first, in-flight sends are cancelled and ctx's error is returned.
func (q *Queue) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.logger.Warn("delivery queue drain timed out", "pending", len(q.jobs))
		q.cancel()
		return ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j Job) {
	out := JobOutcome{Job: j}
	defer func() {
		if q.onDone != nil {
			q.onDone(out)
		}
	}()

	url, payload, err := j.Resolve(q.ctx)
	if errors.Is(err, errSkip) {
		out.Skipped, out.Err = true, err
		return
	}
	if err == nil && url == "" {
		out.Skipped = true
		return
	}
	if err != nil {
		out.Err = err
		return
	}
	out.URL = url

	if err := q.limiter.Wait(q.ctx); err != nil {
		out.Err = fmt.Errorf("rate limiter: %w", err)
		return
	}

	out.Delivery, out.Err = j.Poster.Post(q.ctx, url, payload)
}
