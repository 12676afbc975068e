// Package queue implements the single-worker writer queue. Jobs run one at
// a time in the order they were enqueued; a failing or panicking job is
// reported to the error sink and the worker moves on to the next one.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tasklist/internal/errors"
	"tasklist/internal/logging"

	"github.com/sirupsen/logrus"
)

// DefaultCapacity is used when Options.Capacity is not positive
const DefaultCapacity = 64

// JobFunc is the body of a queued mutation
type JobFunc func(ctx context.Context) error

type job struct {
	op      logging.Operation
	fn      JobFunc
	barrier chan struct{}
}

// Options configures a Queue
type Options struct {
	Capacity int
	Sink     logging.ErrorSink
	Metrics  *Metrics
	Logger   *logrus.Entry
}

// Queue owns the pending jobs and the worker goroutine that runs them
type Queue struct {
	jobs    chan job
	sink    logging.ErrorSink
	metrics *Metrics
	logger  *logrus.Entry

	// mu guards closed and the send side of jobs
	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a queue and its worker
func New(opts Options) *Queue {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	sink := opts.Sink
	if sink == nil {
		sink = logging.NewLogSink(opts.Logger)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Base()
	}

	q := &Queue{
		jobs:    make(chan job, capacity),
		sink:    sink,
		metrics: opts.Metrics,
		logger:  logger.WithField("component", "writer_queue"),
		done:    make(chan struct{}),
	}
	go q.work()
	return q
}

// Enqueue appends a job. It blocks while the queue is full and fails with
// a closed error once Close has been called. Jobs must not enqueue further
// jobs or close the queue themselves.
func (q *Queue) Enqueue(op logging.Operation, fn JobFunc) error {
	return q.push(job{op: op, fn: fn})
}

// Sync waits until every job enqueued before the call has finished
func (q *Queue) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	if err := q.push(job{barrier: barrier}); err != nil {
		return err
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return errors.NewTimeoutError("waiting for pending changes", ctx.Err())
	}
}

// Close stops accepting jobs, waits for the pending ones to run and stops
// the worker. It is safe to call more than once.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})
	<-q.done
	return nil
}

// Done is closed once the worker has exited
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) push(j job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.NewClosedError("writer queue")
	}
	if j.barrier == nil {
		q.metrics.enqueued()
	}
	q.jobs <- j
	return nil
}

func (q *Queue) work() {
	defer close(q.done)

	ctx := context.Background()
	for j := range q.jobs {
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		q.metrics.dequeued()
		q.execute(ctx, j)
	}
	q.logger.Debug("writer queue drained")
}

func (q *Queue) execute(ctx context.Context, j job) {
	start := time.Now()
	err := q.runJob(ctx, j)
	duration := time.Since(start)

	code := ""
	if err != nil {
		code = errors.GetErrorCode(err)
		q.sink.Report(j.op, err)
	}
	q.metrics.observe(j.op.Name, duration, code)

	logging.WithOperation(q.logger, j.op).WithFields(logrus.Fields{
		"duration_ms": duration.Milliseconds(),
		"failed":      err != nil,
	}).Debug("job completed")
}

func (q *Queue) runJob(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPersistenceError(j.op.Name, fmt.Errorf("panic: %v", r)).
				WithContext("op_id", j.op.ID)
		}
	}()
	return j.fn(ctx)
}
