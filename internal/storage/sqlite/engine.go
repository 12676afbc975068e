// Package sqlite is the durable storage engine, backed by an embedded
// SQLite database through modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tasklist/internal/domain"
	"tasklist/internal/errors"
	"tasklist/internal/storage/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

const sequenceName = "tasks"

// Options tunes how the database is opened
type Options struct {
	BusyTimeout    time.Duration
	DirPermissions os.FileMode
}

// DefaultOptions returns the options used by New
func DefaultOptions() Options {
	return Options{
		BusyTimeout:    5 * time.Second,
		DirPermissions: 0755,
	}
}

// Engine implements storage.Engine on SQLite
type Engine struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database at dbPath with default options
func New(dbPath string) (*Engine, error) {
	return NewWithOptions(dbPath, DefaultOptions())
}

// NewWithOptions opens the database at dbPath and runs pending migrations
func NewWithOptions(dbPath string, opts Options) (*Engine, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), opts.DirPermissions); err != nil {
			return nil, errors.NewPersistenceError("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", buildDSN(dbPath, opts))
	if err != nil {
		return nil, errors.NewPersistenceError("open database", err)
	}
	// One connection: all writes already come from a single worker, and an
	// in-memory database only exists per connection.
	db.SetMaxOpenConns(1)

	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewPersistenceError("run migrations", err)
	}

	return &Engine{db: db, path: dbPath}, nil
}

func buildDSN(dbPath string, opts Options) string {
	if dbPath == MemoryPath {
		return dbPath
	}
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	if opts.BusyTimeout > 0 {
		dsn += fmt.Sprintf("&_pragma=busy_timeout(%d)", opts.BusyTimeout.Milliseconds())
	}
	return dsn
}

// Path returns the database path the engine was opened with
func (e *Engine) Path() string {
	return e.path
}

// Close closes the database connection
func (e *Engine) Close() error {
	return e.db.Close()
}

// AllocateID bumps the task sequence and returns the new value. The
// sequence lives in its own table so ids are never reused, even after
// every task has been removed.
func (e *Engine) AllocateID(ctx context.Context) (int64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, HandleDatabaseError("begin allocate id", err)
	}
	defer tx.Rollback()

	if err := Execute(ctx, tx, "advance task sequence",
		`UPDATE task_sequence SET value = value + 1 WHERE name = ?`, sequenceName); err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT value FROM task_sequence WHERE name = ?`, sequenceName).Scan(&id)
	if err != nil {
		return 0, HandleDatabaseError("read task sequence", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, HandleDatabaseError("commit allocate id", err)
	}
	return id, nil
}

// Persist inserts the task or replaces the title and description of the
// task with the same id
func (e *Engine) Persist(ctx context.Context, task domain.Task) error {
	row := rowFromDomain(task)
	query := `
	INSERT INTO tasks (id, title, description)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description`

	return Execute(ctx, e.db, "persist task", query, row.ID, row.Title, row.Description)
}

// Get retrieves a task by ID. The store uses it to check existence
// before an update or delete.
func (e *Engine) Get(ctx context.Context, id int64) (domain.Task, error) {
	query := `SELECT id, title, description FROM tasks WHERE id = ?`
	row, err := QuerySingle(ctx, e.db, query, ScanTask, "task", strconv.FormatInt(id, 10), id)
	if err != nil {
		return domain.Task{}, err
	}
	return row.toDomain(), nil
}

// Remove deletes a task by ID
func (e *Engine) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM tasks WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, e.db, query, "task", strconv.FormatInt(id, 10), id)
}

// RemoveAll deletes every task; the id sequence is left untouched
func (e *Engine) RemoveAll(ctx context.Context) error {
	return Execute(ctx, e.db, "remove all tasks", `DELETE FROM tasks`)
}

// LoadAllOrderedByIDDesc retrieves all tasks, most recently inserted first
func (e *Engine) LoadAllOrderedByIDDesc(ctx context.Context) ([]domain.Task, error) {
	query := `SELECT id, title, description FROM tasks ORDER BY id DESC`
	return QueryMultiple(ctx, e.db, query, ScanTasks, "tasks")
}
