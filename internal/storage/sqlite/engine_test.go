package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tasklist/internal/domain"
	"tasklist/internal/errors"
	"tasklist/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Engine = (*Engine)(nil)

func setupTestDB(t *testing.T) *Engine {
	dbPath := filepath.Join(t.TempDir(), "data", "tasks.db")

	engine, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine
}

func insertTask(t *testing.T, e *Engine, title, description string) domain.Task {
	ctx := context.Background()
	id, err := e.AllocateID(ctx)
	require.NoError(t, err)
	task := domain.Task{ID: id, Title: title, Description: description}
	require.NoError(t, e.Persist(ctx, task))
	return task
}

func TestNew_CreatesDirectory(t *testing.T) {
	engine := setupTestDB(t)

	_, err := os.Stat(filepath.Dir(engine.Path()))
	assert.NoError(t, err)
}

func TestAllocateID(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	first, err := engine.AllocateID(ctx)
	require.NoError(t, err)
	second, err := engine.AllocateID(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestAllocateID_NotReusedAfterRemoveAll(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	insertTask(t, engine, "a", "")
	last := insertTask(t, engine, "b", "")
	require.NoError(t, engine.RemoveAll(ctx))

	id, err := engine.AllocateID(ctx)
	require.NoError(t, err)
	assert.Greater(t, id, last.ID)
}

func TestPersistAndGet(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	task := insertTask(t, engine, "Buy milk", "2 litres")

	retrieved, err := engine.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, retrieved)

	_, err = engine.Get(ctx, 999)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestPersist_UpdatesExistingRow(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	task := insertTask(t, engine, "Call mom", "")
	task.Title = "Call dad"
	task.Description = "Sunday"
	require.NoError(t, engine.Persist(ctx, task))

	tasks, err := engine.LoadAllOrderedByIDDesc(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task, tasks[0])
}

func TestLoadAllOrderedByIDDesc(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	tasks, err := engine.LoadAllOrderedByIDDesc(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	insertTask(t, engine, "Buy eggs", "")
	insertTask(t, engine, "Call mom", "")
	insertTask(t, engine, "Buy milk", "")

	tasks, err = engine.LoadAllOrderedByIDDesc(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, domain.IDs(tasks))
	assert.Equal(t, "Buy milk", tasks[0].Title)
}

func TestRemove(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	task := insertTask(t, engine, "Buy milk", "")
	require.NoError(t, engine.Remove(ctx, task.ID))

	err := engine.Remove(ctx, task.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	tasks, err := engine.LoadAllOrderedByIDDesc(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRemoveAll_Idempotent(t *testing.T) {
	engine := setupTestDB(t)
	ctx := context.Background()

	insertTask(t, engine, "a", "")
	insertTask(t, engine, "b", "")

	require.NoError(t, engine.RemoveAll(ctx))
	require.NoError(t, engine.RemoveAll(ctx))

	tasks, err := engine.LoadAllOrderedByIDDesc(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDataSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	engine, err := New(dbPath)
	require.NoError(t, err)
	task := insertTask(t, engine, "Persisted", "across restarts")
	require.NoError(t, engine.Close())

	reopened, err := New(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	tasks, err := reopened.LoadAllOrderedByIDDesc(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{task}, tasks)

	id, err := reopened.AllocateID(ctx)
	require.NoError(t, err)
	assert.Equal(t, task.ID+1, id)
}

func TestInMemoryDatabase(t *testing.T) {
	engine, err := New(MemoryPath)
	require.NoError(t, err)
	defer engine.Close()

	task := insertTask(t, engine, "ephemeral", "")
	tasks, err := engine.LoadAllOrderedByIDDesc(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Task{task}, tasks)
}

func TestClosedEngineReturnsPersistenceError(t *testing.T) {
	engine, err := New(MemoryPath)
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	_, err = engine.LoadAllOrderedByIDDesc(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsPersistence(err))
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, MemoryPath, buildDSN(MemoryPath, DefaultOptions()))

	dsn := buildDSN("/tmp/x.db", DefaultOptions())
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "busy_timeout(5000)")
	assert.Contains(t, dsn, "journal_mode(WAL)")
}
