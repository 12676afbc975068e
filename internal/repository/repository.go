// Package repository serializes task mutations onto a single writer queue
// and exposes the resulting snapshots through a replay-latest channel.
package repository

import (
	"context"
	"sync"

	"tasklist/internal/domain"
	"tasklist/internal/logging"
	"tasklist/internal/observable"
	"tasklist/internal/queue"
	"tasklist/internal/store"
	"tasklist/internal/validation"

	"github.com/sirupsen/logrus"
)

// Operation names used for error reporting and metrics
const (
	OpInsert    = "insert"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpDeleteAll = "delete_all"
)

// Options configures a Repository
type Options struct {
	Capacity  int
	Sink      logging.ErrorSink
	Metrics   *queue.Metrics
	Logger    *logrus.Entry
	Validator *validation.TaskValidator
}

// Repository is the asynchronous, write-serialized facade over a Store
type Repository struct {
	store     *store.Store
	queue     *queue.Queue
	snapshots *observable.Subject[[]domain.Task]
	validator *validation.TaskValidator
	logger    *logrus.Entry

	stopObserving func()
	closeOnce     sync.Once
}

// New creates a repository owning a new writer queue. The snapshot
// channel starts with the store's current snapshot.
func New(st *store.Store, opts Options) *Repository {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Base()
	}
	validator := opts.Validator
	if validator == nil {
		validator = validation.NewTaskValidator()
	}
	sink := opts.Sink
	if sink == nil {
		sink = logging.NewLogSink(logger)
	}

	r := &Repository{
		store:     st,
		snapshots: observable.NewWithValue(st.CurrentSnapshot()),
		validator: validator,
		logger:    logger.WithField("component", "repository"),
		queue: queue.New(queue.Options{
			Capacity: opts.Capacity,
			Sink:     sink,
			Metrics:  opts.Metrics,
			Logger:   logger,
		}),
	}
	// Runs inside the job that made the change, so the new snapshot is
	// published before the next job starts.
	r.stopObserving = st.Observe(func(tasks []domain.Task) {
		r.snapshots.Publish(tasks)
	})
	return r
}

// Insert queues the creation of a task
func (r *Repository) Insert(title, description string) error {
	if err := r.validator.ValidateTaskForCreation(title, description); err != nil {
		return validation.ToAppError(err)
	}

	op := logging.NewOperation(OpInsert, 0)
	return r.queue.Enqueue(op, func(ctx context.Context) error {
		task, err := r.store.Insert(ctx, title, description)
		if err != nil {
			return err
		}
		logging.WithOperation(r.logger, op).WithField("task_id", task.ID).Debug("task inserted")
		return nil
	})
}

// Update queues a change of title and description of task id
func (r *Repository) Update(id int64, title, description string) error {
	if err := r.validator.ValidateTaskForUpdate(id, title, description); err != nil {
		return validation.ToAppError(err)
	}

	op := logging.NewOperation(OpUpdate, id)
	return r.queue.Enqueue(op, func(ctx context.Context) error {
		return r.store.Update(ctx, id, title, description)
	})
}

// Delete queues the removal of task id
func (r *Repository) Delete(id int64) error {
	if err := r.validator.ValidateTaskID(id); err != nil {
		return validation.ToAppError(err)
	}

	op := logging.NewOperation(OpDelete, id)
	return r.queue.Enqueue(op, func(ctx context.Context) error {
		return r.store.Delete(ctx, id)
	})
}

// DeleteAll queues the removal of every task
func (r *Repository) DeleteAll() error {
	op := logging.NewOperation(OpDeleteAll, 0)
	return r.queue.Enqueue(op, func(ctx context.Context) error {
		return r.store.DeleteAll(ctx)
	})
}

// Snapshots returns the shared snapshot channel. Values delivered through
// it are shared between subscribers and must not be modified; Subscribe
// hands out private copies instead.
func (r *Repository) Snapshots() *observable.Subject[[]domain.Task] {
	return r.snapshots
}

// Subscribe registers fn for the latest snapshot and every later one.
// Each call of fn receives its own copy.
func (r *Repository) Subscribe(fn func([]domain.Task)) *observable.Subscription[[]domain.Task] {
	return r.snapshots.Subscribe(func(tasks []domain.Task) {
		fn(domain.CloneTasks(tasks))
	})
}

// Snapshot returns the latest published snapshot
func (r *Repository) Snapshot() []domain.Task {
	tasks, _ := r.snapshots.Latest()
	return domain.CloneTasks(tasks)
}

// Get looks up a task in the latest snapshot
func (r *Repository) Get(id int64) (domain.Task, error) {
	return r.store.Get(id)
}

// Sync waits until every mutation queued before the call has been applied
// and published
func (r *Repository) Sync(ctx context.Context) error {
	return r.queue.Sync(ctx)
}

// Close waits for queued mutations, stops the worker and ends every
// subscription after its final delivery
func (r *Repository) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.queue.Close()
		r.stopObserving()
		r.snapshots.Close()
		r.logger.Debug("repository closed")
	})
	return err
}
