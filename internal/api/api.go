package api

import (
	"context"
	"sync"

	"tasklist/internal/domain"
	"tasklist/internal/filter"
	"tasklist/internal/observable"
	"tasklist/internal/repository"
	"tasklist/internal/validation"
)

// Subscription is a revocable registration for displayed snapshots
type Subscription = observable.Subscription[filter.View]

// API defines what the presentation layer consumes from the task store.
type API interface {
	// Read side
	Subscribe(onSnapshot func(displayed []domain.Task)) *Subscription
	// SubscribeView also delivers the query and snapshot size each
	// displayed list was computed from
	SubscribeView(onView func(view filter.View)) *Subscription
	SetFilterQuery(query string)
	FilterQuery() string
	DisplayedSnapshot() []domain.Task
	Snapshot() []domain.Task
	Get(id int64) (domain.Task, error)

	// Write side. Failures while executing are reported to the error sink.
	Insert(title, description string) error
	Update(id int64, title, description string) error
	Delete(id int64) error
	DeleteAll() error

	// Sync waits until every change submitted so far has been applied
	Sync(ctx context.Context) error
	Close() error
}

type apiImpl struct {
	repo      *repository.Repository
	validator *validation.TaskValidator
	filter    *filter.Engine
	displayed *observable.Subject[filter.View]
	source    *observable.Subscription[[]domain.Task]

	closers   []func() error
	closeOnce sync.Once
	closeErr  error
}

// New creates an API over repo. Snapshots from the repository flow through
// a filter engine; subscribers receive the displayed subset.
func New(repo *repository.Repository, validator *validation.TaskValidator) API {
	if validator == nil {
		validator = validation.NewTaskValidator()
	}

	a := &apiImpl{
		repo:      repo,
		validator: validator,
		filter:    filter.NewEngine(),
		displayed: observable.New[filter.View](),
	}
	a.filter.OnChange(a.displayed.Publish)
	a.source = repo.Snapshots().Subscribe(a.filter.SetSnapshot)
	return a
}

func (a *apiImpl) Subscribe(onSnapshot func(displayed []domain.Task)) *Subscription {
	return a.displayed.Subscribe(func(view filter.View) {
		onSnapshot(domain.CloneTasks(view.Tasks))
	})
}

func (a *apiImpl) SubscribeView(onView func(view filter.View)) *Subscription {
	return a.displayed.Subscribe(func(view filter.View) {
		view.Tasks = domain.CloneTasks(view.Tasks)
		onView(view)
	})
}

func (a *apiImpl) SetFilterQuery(query string) {
	a.filter.SetQuery(query)
}

func (a *apiImpl) FilterQuery() string {
	return a.filter.Query()
}

// DisplayedSnapshot derives the displayed list from the latest published
// snapshot, so it is current as soon as Sync returns.
func (a *apiImpl) DisplayedSnapshot() []domain.Task {
	return filter.Apply(a.repo.Snapshot(), a.filter.Query())
}

func (a *apiImpl) Snapshot() []domain.Task {
	return a.repo.Snapshot()
}

func (a *apiImpl) Get(id int64) (domain.Task, error) {
	if err := a.validator.ValidateTaskID(id); err != nil {
		return domain.Task{}, validation.ToAppError(err)
	}
	return a.repo.Get(id)
}

func (a *apiImpl) Insert(title, description string) error {
	title, description = a.validator.CleanFields(title, description)
	return a.repo.Insert(title, description)
}

func (a *apiImpl) Update(id int64, title, description string) error {
	title, description = a.validator.CleanFields(title, description)
	return a.repo.Update(id, title, description)
}

func (a *apiImpl) Delete(id int64) error {
	return a.repo.Delete(id)
}

func (a *apiImpl) DeleteAll() error {
	return a.repo.DeleteAll()
}

func (a *apiImpl) Sync(ctx context.Context) error {
	return a.repo.Sync(ctx)
}

// Close drains pending changes, delivers the final displayed snapshot and
// releases the storage engine when the API owns it
func (a *apiImpl) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.repo.Close()
		<-a.source.Done()
		a.displayed.Close()

		for _, closer := range a.closers {
			if err := closer(); err != nil && a.closeErr == nil {
				a.closeErr = err
			}
		}
	})
	return a.closeErr
}
