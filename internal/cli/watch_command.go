package cli

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"tasklist/internal/filter"
	"tasklist/internal/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const watchHelp = `Type to filter by title. Commands:
  /add <title>   add a task
  /rm <id>       delete a task
  /clear         delete every task
  /help          show this help
  /quit          leave`

// WatchCommand keeps the filtered list on screen and re-renders it on
// every snapshot or query change
type WatchCommand struct {
	app         *App
	metricsAddr string
}

// NewWatchCommand creates a new watch command handler
func NewWatchCommand(app *App, metricsAddr string) *WatchCommand {
	return &WatchCommand{app: app, metricsAddr: metricsAddr}
}

// Execute runs the interactive loop until /quit, end of input or ctx ends
func (c *WatchCommand) Execute(ctx context.Context, args []string) error {
	if c.metricsAddr != "" {
		shutdown, err := c.serveMetrics()
		if err != nil {
			return c.app.errors.Handle("serve metrics", err)
		}
		defer shutdown()
	}

	c.app.api.SetFilterQuery(strings.Join(args, " "))
	sub := c.app.api.SubscribeView(c.render)
	defer sub.Unsubscribe()

	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.app.reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		if c.app.interactive() {
			c.app.printf("> ")
		}

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := c.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

// handle runs one input line and reports whether the loop should end
func (c *WatchCommand) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		c.app.api.SetFilterQuery(line)
		return false
	}

	command, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch command {
	case "/quit", "/q":
		return true
	case "/help":
		c.app.println(watchHelp)
	case "/add":
		if err = c.app.api.Insert(rest, ""); err == nil {
			err = c.app.settle(ctx, "add task")
		} else {
			err = c.app.errors.Handle("add task", err)
		}
	case "/rm":
		var id int64
		if id, err = parseTaskID(rest); err != nil {
			err = c.app.errors.HandleSimple(err)
		} else if err = c.app.api.Delete(id); err == nil {
			err = c.app.settle(ctx, "delete task")
		} else {
			err = c.app.errors.Handle("delete task", err)
		}
	case "/clear":
		if err = c.app.api.DeleteAll(); err == nil {
			err = c.app.settle(ctx, "delete all tasks")
		} else {
			err = c.app.errors.Handle("delete all tasks", err)
		}
	default:
		err = fmt.Errorf("unknown command %s, type /help", command)
	}

	if err != nil {
		c.app.printf("Error: %v\n", err)
	}
	return false
}

// render prints one view; header and rows come from the same recomputation
func (c *WatchCommand) render(view filter.View) {
	query := strings.TrimSpace(view.Query)

	c.app.mu.Lock()
	defer c.app.mu.Unlock()

	if query == "" {
		fmt.Fprintf(c.app.out, "\n%d tasks\n", view.Total)
	} else {
		fmt.Fprintf(c.app.out, "\n%d of %d tasks match %q\n", len(view.Tasks), view.Total, query)
	}
	for _, task := range view.Tasks {
		fmt.Fprintf(c.app.out, "  %d. %s\n", task.ID, task.Title)
	}
}

func (c *WatchCommand) serveMetrics() (func(), error) {
	if c.app.metrics == nil {
		return nil, fmt.Errorf("metrics are not enabled")
	}

	listener, err := net.Listen("tcp", c.metricsAddr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.app.metrics, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Base().WithError(err).Error("metrics server stopped")
		}
	}()
	c.app.printf("Serving metrics on http://%s/metrics\n", listener.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}, nil
}
