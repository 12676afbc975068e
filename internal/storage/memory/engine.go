// Package memory is an in-memory storage engine with durability disabled.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"tasklist/internal/domain"
	"tasklist/internal/errors"
)

// FailureFunc lets tests inject storage failures. It is consulted before
// every engine call with the operation name; a non-nil return aborts it.
type FailureFunc func(operation string) error

// Engine keeps tasks in a map guarded by a mutex
type Engine struct {
	mu     sync.Mutex
	tasks  map[int64]domain.Task
	lastID int64
	fail   FailureFunc
	closed bool
}

// New creates an empty in-memory engine
func New() *Engine {
	return &Engine{tasks: make(map[int64]domain.Task)}
}

// SetFailureFunc installs a failure hook. Pass nil to clear it.
func (e *Engine) SetFailureFunc(fn FailureFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = fn
}

func (e *Engine) check(operation string) error {
	if e.closed {
		return errors.NewClosedError("memory engine")
	}
	if e.fail != nil {
		if err := e.fail(operation); err != nil {
			return errors.NewPersistenceError(operation, err)
		}
	}
	return nil
}

// AllocateID returns the next id of a monotonic counter
func (e *Engine) AllocateID(ctx context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("allocate id"); err != nil {
		return 0, err
	}
	e.lastID++
	return e.lastID, nil
}

// Persist stores the task, replacing any task with the same id
func (e *Engine) Persist(ctx context.Context, task domain.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("persist task"); err != nil {
		return err
	}
	e.tasks[task.ID] = task
	if task.ID > e.lastID {
		e.lastID = task.ID
	}
	return nil
}

// Get returns the stored task with the given id
func (e *Engine) Get(ctx context.Context, id int64) (domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("get task"); err != nil {
		return domain.Task{}, err
	}
	task, ok := e.tasks[id]
	if !ok {
		return domain.Task{}, errors.NewNotFoundError("task", strconv.FormatInt(id, 10))
	}
	return task, nil
}

// Remove deletes the task with the given id
func (e *Engine) Remove(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("remove task"); err != nil {
		return err
	}
	if _, ok := e.tasks[id]; !ok {
		return errors.NewNotFoundError("task", strconv.FormatInt(id, 10))
	}
	delete(e.tasks, id)
	return nil
}

// RemoveAll deletes every task. The id counter is not reset.
func (e *Engine) RemoveAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("remove all tasks"); err != nil {
		return err
	}
	e.tasks = make(map[int64]domain.Task)
	return nil
}

// LoadAllOrderedByIDDesc returns a copy of every task, newest first
func (e *Engine) LoadAllOrderedByIDDesc(ctx context.Context) ([]domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check("load tasks"); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID > tasks[j].ID
	})
	return tasks, nil
}

// Close marks the engine closed; later calls fail
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
