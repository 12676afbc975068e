package cli

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"tasklist/internal/api"
	"tasklist/internal/domain"
	"tasklist/internal/filter"
	"tasklist/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCommand_Session(t *testing.T) {
	input := strings.Join([]string{
		"/add Buy milk",
		"/add Call mom",
		"/add Buy eggs",
		"/rm 2",
		"buy",
		"/quit",
		"/add never runs",
	}, "\n") + "\n"
	app, _ := setupTestApp(t, input)

	require.NoError(t, NewWatchCommand(app, "").Execute(context.Background(), nil))

	require.NoError(t, app.api.Sync(context.Background()))
	titles := []string{}
	for _, task := range app.api.Snapshot() {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"Buy eggs", "Buy milk"}, titles)
	assert.Equal(t, "buy", app.api.FilterQuery())
}

func TestWatchCommand_EndOfInput(t *testing.T) {
	app, _ := setupTestApp(t, "/add Buy milk\n")

	require.NoError(t, NewWatchCommand(app, "").Execute(context.Background(), []string{"milk"}))
	assert.Equal(t, "milk", app.api.FilterQuery())
	assert.Len(t, app.api.DisplayedSnapshot(), 1)
}

func TestWatchCommand_ContextCancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	app, _ := setupTestApp(t, "")
	app.SetIO(reader, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- NewWatchCommand(app, "").Execute(ctx, nil)
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCommand_HandleErrors(t *testing.T) {
	tests := []struct {
		line     string
		expected string
	}{
		{"/add", "Error: failed to add task: Title required\n"},
		{"/rm x", "Error: invalid input for id: must be a positive number\n"},
		{"/rm 9", "Error: failed to delete task: task not found: 9\n"},
		{"/bogus", "Error: unknown command /bogus, type /help\n"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			app, out := setupTestApp(t, "")
			command := NewWatchCommand(app, "")

			assert.False(t, command.handle(context.Background(), tt.line))
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestWatchCommand_HandleCommands(t *testing.T) {
	app, out := setupTestApp(t, "")
	seedTasks(t, app, "Buy milk", "Call mom")
	command := NewWatchCommand(app, "")

	assert.False(t, command.handle(context.Background(), "/help"))
	assert.Contains(t, out.String(), "/quit")

	assert.False(t, command.handle(context.Background(), "/clear"))
	assert.Empty(t, app.api.Snapshot())

	assert.False(t, command.handle(context.Background(), "  Call "))
	assert.Equal(t, "  Call ", app.api.FilterQuery())

	assert.True(t, command.handle(context.Background(), "/q"))
	assert.True(t, command.handle(context.Background(), " /quit "))
}

func TestWatchCommand_Render(t *testing.T) {
	app, out := setupTestApp(t, "")
	seedTasks(t, app, "Buy eggs", "Call mom", "Buy milk")
	command := NewWatchCommand(app, "")

	snapshot := app.api.Snapshot()
	command.render(filter.View{Total: 3, Tasks: snapshot})
	assert.Equal(t, "\n3 tasks\n  3. Buy milk\n  2. Call mom\n  1. Buy eggs\n", out.String())

	out.Reset()
	command.render(filter.View{Query: " buy ", Total: 3, Tasks: filter.Apply(snapshot, "buy")})
	assert.Equal(t, "\n2 of 3 tasks match \"buy\"\n  3. Buy milk\n  1. Buy eggs\n", out.String())

	out.Reset()
	command.render(filter.View{Query: "zzz", Total: 3, Tasks: []domain.Task{}})
	assert.Equal(t, "\n0 of 3 tasks match \"zzz\"\n", out.String())
}

func TestWatchCommand_RenderUsesOnlyTheView(t *testing.T) {
	app, out := setupTestApp(t, "")
	seedTasks(t, app, "Buy eggs", "Call mom")
	app.api.SetFilterQuery("call")
	command := NewWatchCommand(app, "")

	// a view computed before the latest query change still renders
	// consistently with its own query
	command.render(filter.View{Query: "eggs", Total: 2, Tasks: []domain.Task{{ID: 1, Title: "Buy eggs"}}})
	assert.Equal(t, "\n1 of 2 tasks match \"eggs\"\n  1. Buy eggs\n", out.String())
}

func TestWatchCommand_ServeMetrics(t *testing.T) {
	logger, _ := test.NewNullLogger()
	registry := prometheus.NewRegistry()
	apiInstance, err := api.Open(context.Background(), testConfig(), api.Options{
		Sink:       logging.NewCollectingSink(),
		Registerer: registry,
		Logger:     logging.WithService(logger),
	})
	require.NoError(t, err)
	t.Cleanup(func() { apiInstance.Close() })

	app := NewApp(apiInstance, nil)
	out := &strings.Builder{}
	app.SetIO(strings.NewReader(""), out)
	app.SetMetrics(registry)

	require.NoError(t, apiInstance.Insert("Buy milk", ""))
	require.NoError(t, apiInstance.Sync(context.Background()))

	shutdown, err := NewWatchCommand(app, "127.0.0.1:0").serveMetrics()
	require.NoError(t, err)
	defer shutdown()

	match := regexp.MustCompile(`http://\S+/metrics`).FindString(out.String())
	require.NotEmpty(t, match)

	resp, err := http.Get(match)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tasklist_writer_queue_jobs_enqueued_total")
}

func TestWatchCommand_MetricsDisabled(t *testing.T) {
	app, _ := setupTestApp(t, "")

	err := NewWatchCommand(app, "127.0.0.1:0").Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics are not enabled")
}
