package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCommand(t *testing.T) {
	app, out := setupTestApp(t, "")

	err := NewAddCommand(app, "  2 litres ").Execute(context.Background(), []string{"Buy", "milk"})
	require.NoError(t, err)
	assert.Equal(t, "Task added\n", out.String())

	tasks := app.api.Snapshot()
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(1), tasks[0].ID)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "2 litres", tasks[0].Description)
}

func TestAddCommand_Errors(t *testing.T) {
	t.Run("missing title", func(t *testing.T) {
		app, _ := setupTestApp(t, "")
		err := NewAddCommand(app, "").Execute(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "usage: tl add")
	})

	t.Run("blank title", func(t *testing.T) {
		app, out := setupTestApp(t, "")
		err := NewAddCommand(app, "").Execute(context.Background(), []string{"   "})
		require.Error(t, err)
		assert.Equal(t, "failed to add task: Title required", err.Error())
		assert.Empty(t, out.String())
		assert.Empty(t, app.api.Snapshot())
	})
}

func TestEditCommand(t *testing.T) {
	app, out := setupTestApp(t, "")
	seedTasks(t, app, "Buy milk")
	require.NoError(t, app.api.Update(1, "Buy milk", "2 litres"))
	require.NoError(t, app.api.Sync(context.Background()))

	title := "Buy oat milk"
	err := NewEditCommand(app, &title, nil).Execute(context.Background(), []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, "Task updated\n", out.String())

	task, err := app.api.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.Equal(t, "2 litres", task.Description, "description without a flag keeps its value")

	empty := ""
	require.NoError(t, NewEditCommand(app, nil, &empty).Execute(context.Background(), []string{"1"}))
	task, err = app.api.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.Empty(t, task.Description)
}

func TestEditCommand_Errors(t *testing.T) {
	app, _ := setupTestApp(t, "")
	seedTasks(t, app, "Buy milk")

	blank := "  "
	tests := []struct {
		name     string
		title    *string
		args     []string
		expected string
	}{
		{"bad id", nil, []string{"x"}, "invalid input for id: must be a positive number"},
		{"unknown id", nil, []string{"9"}, "failed to edit task: task not found: 9"},
		{"blank title", &blank, []string{"1"}, "failed to edit task: Title required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEditCommand(app, tt.title, nil).Execute(context.Background(), tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}

	task, err := app.api.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
}

func TestRemoveCommand(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		app, out := setupTestApp(t, "y\n")
		seedTasks(t, app, "Buy milk", "Call mom")

		require.NoError(t, NewRemoveCommand(app, false).Execute(context.Background(), []string{"1"}))

		output := out.String()
		assert.Contains(t, output, "1. Buy milk\n")
		assert.Contains(t, output, "Are you sure you want to delete this task? [y/N]: ")
		assert.True(t, strings.HasSuffix(output, "Task deleted\n"))

		tasks := app.api.Snapshot()
		require.Len(t, tasks, 1)
		assert.Equal(t, "Call mom", tasks[0].Title)
	})

	t.Run("declined", func(t *testing.T) {
		app, out := setupTestApp(t, "n\n")
		seedTasks(t, app, "Buy milk")

		require.NoError(t, NewRemoveCommand(app, false).Execute(context.Background(), []string{"1"}))
		assert.Contains(t, out.String(), "Delete cancelled.")
		assert.Len(t, app.api.Snapshot(), 1)
	})

	t.Run("assume yes", func(t *testing.T) {
		app, out := setupTestApp(t, "")
		seedTasks(t, app, "Buy milk")

		require.NoError(t, NewRemoveCommand(app, true).Execute(context.Background(), []string{"1"}))
		assert.Equal(t, "Task deleted\n", out.String())
		assert.Empty(t, app.api.Snapshot())
	})

	t.Run("unknown id", func(t *testing.T) {
		app, _ := setupTestApp(t, "")
		seedTasks(t, app, "Buy milk")

		err := NewRemoveCommand(app, true).Execute(context.Background(), []string{"9"})
		require.Error(t, err)
		assert.Equal(t, "failed to delete task: task not found: 9", err.Error())
		assert.Len(t, app.api.Snapshot(), 1)
	})
}

func TestClearCommand(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		app, out := setupTestApp(t, "yes\n")
		seedTasks(t, app, "Buy milk", "Call mom")

		require.NoError(t, NewClearCommand(app, false).Execute(context.Background(), nil))
		assert.Contains(t, out.String(), "Are you sure you want to delete all tasks? [y/N]: ")
		assert.Contains(t, out.String(), "All tasks deleted")
		assert.Empty(t, app.api.Snapshot())
	})

	t.Run("declined", func(t *testing.T) {
		app, out := setupTestApp(t, "\n")
		seedTasks(t, app, "Buy milk", "Call mom")

		require.NoError(t, NewClearCommand(app, false).Execute(context.Background(), nil))
		assert.Contains(t, out.String(), "Delete cancelled.")
		assert.Len(t, app.api.Snapshot(), 2)
	})

	t.Run("ids are not reused", func(t *testing.T) {
		app, _ := setupTestApp(t, "")
		seedTasks(t, app, "Buy milk", "Call mom")

		require.NoError(t, NewClearCommand(app, true).Execute(context.Background(), nil))
		tasks := seedTasks(t, app, "Water plants")
		require.Len(t, tasks, 1)
		assert.Equal(t, int64(3), tasks[0].ID)
	})
}
