// Package storage defines the persistence boundary of the task store.
//
// An Engine is the durable backing collection the store writes through.
// Any implementation honouring the contract below is substitutable: the
// SQLite engine for real use, the in-memory engine for tests.
package storage

import (
	"context"

	"tasklist/internal/domain"
)

// Engine is the storage collaborator used by the store.
//
// AllocateID returns a fresh id that is strictly greater than every id it
// returned before, including ids of removed tasks. Persist upserts by id.
// Get and Remove fail with a not found error when the id is absent.
// LoadAllOrderedByIDDesc returns every stored task, newest id first.
type Engine interface {
	AllocateID(ctx context.Context) (int64, error)
	Persist(ctx context.Context, task domain.Task) error
	Get(ctx context.Context, id int64) (domain.Task, error)
	Remove(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context) error
	LoadAllOrderedByIDDesc(ctx context.Context) ([]domain.Task, error)
	Close() error
}
