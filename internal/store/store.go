// Package store keeps the ordered task snapshot in step with a storage
// engine and notifies observers after every successful mutation.
//
// Mutations are not safe for concurrent use; callers serialize them (the
// repository does so through its writer queue). CurrentSnapshot and
// Observe may be called from any goroutine.
//
// A mutation whose write succeeds but whose reload fails returns the
// reload error. The store then counts as stale and the next mutation
// reloads and notifies observers before doing its own work.
package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"tasklist/internal/domain"
	"tasklist/internal/errors"
	"tasklist/internal/storage"
)

// Observer receives the full snapshot after each mutation. The slice is a
// private copy owned by the observer.
type Observer func(tasks []domain.Task)

// Store is the durable, order-preserving task collection
type Store struct {
	engine storage.Engine

	mu           sync.RWMutex
	snapshot     []domain.Task
	stale        bool
	observers    map[int]Observer
	nextObserver int
}

// New creates a store over engine and loads its current contents
func New(ctx context.Context, engine storage.Engine) (*Store, error) {
	s := &Store{
		engine:    engine,
		observers: make(map[int]Observer),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Insert allocates an id, persists the task and notifies observers
func (s *Store) Insert(ctx context.Context, title, description string) (domain.Task, error) {
	if err := s.catchUp(ctx); err != nil {
		return domain.Task{}, err
	}

	id, err := s.engine.AllocateID(ctx)
	if err != nil {
		return domain.Task{}, err
	}

	task := domain.NewTask(title, description)
	task.ID = id
	if err := s.engine.Persist(ctx, task); err != nil {
		return domain.Task{}, err
	}

	return task, s.commit(ctx)
}

// Update replaces the title and description of an existing task
func (s *Store) Update(ctx context.Context, id int64, title, description string) error {
	if err := s.requireTask(ctx, id); err != nil {
		return err
	}

	task := domain.Task{ID: id, Title: title, Description: description}
	if err := s.engine.Persist(ctx, task); err != nil {
		return err
	}
	return s.commit(ctx)
}

// Delete removes a task permanently
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.requireTask(ctx, id); err != nil {
		return err
	}

	if err := s.engine.Remove(ctx, id); err != nil {
		return err
	}
	return s.commit(ctx)
}

// DeleteAll removes every task. Calling it on an empty store succeeds.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.catchUp(ctx); err != nil {
		return err
	}
	if err := s.engine.RemoveAll(ctx); err != nil {
		return err
	}
	return s.commit(ctx)
}

// CurrentSnapshot returns every task ordered by descending id. It is never nil.
func (s *Store) CurrentSnapshot() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneTasks(s.snapshot)
}

// Get returns the task with the given id from the current snapshot
func (s *Store) Get(id int64) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, task := range s.snapshot {
		if task.ID == id {
			return task, nil
		}
	}
	return domain.Task{}, errors.NewNotFoundError("task", strconv.FormatInt(id, 10))
}

// Observe registers fn for change notifications. Calling the returned
// function removes it.
func (s *Store) Observe(fn Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.nextObserver
	s.nextObserver++
	s.observers[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, key)
		})
	}
}

// Reload replaces the cached snapshot with the engine contents without
// notifying observers
func (s *Store) Reload(ctx context.Context) error {
	tasks, err := s.engine.LoadAllOrderedByIDDesc(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshot = domain.CloneTasks(tasks)
	s.stale = false
	s.mu.Unlock()
	return nil
}

// commit reloads the snapshot and calls every observer in registration order
func (s *Store) commit(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		s.mu.Lock()
		s.stale = true
		s.mu.Unlock()
		return err
	}

	s.mu.RLock()
	snapshot := s.snapshot
	keys := make([]int, 0, len(s.observers))
	for key := range s.observers {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	observers := make([]Observer, len(keys))
	for i, key := range keys {
		observers[i] = s.observers[key]
	}
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(domain.CloneTasks(snapshot))
	}
	return nil
}

// catchUp publishes writes whose reload failed earlier
func (s *Store) catchUp(ctx context.Context) error {
	s.mu.RLock()
	stale := s.stale
	s.mu.RUnlock()

	if !stale {
		return nil
	}
	return s.commit(ctx)
}

// requireTask fails with a not found error unless the engine holds id.
// The engine decides, so a task whose reload failed can still be changed.
func (s *Store) requireTask(ctx context.Context, id int64) error {
	if err := s.catchUp(ctx); err != nil {
		return err
	}
	_, err := s.engine.Get(ctx, id)
	return err
}
