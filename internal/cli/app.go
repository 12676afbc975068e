package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"tasklist/internal/api"
	"tasklist/internal/errors"
	"tasklist/internal/logging"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
)

// App carries what every command handler needs
type App struct {
	api      api.API
	failures *logging.CollectingSink
	metrics  prometheus.Gatherer
	errors   *ErrorHandler

	stdin  io.Reader
	reader *bufio.Reader

	// mu serializes writes to out; watch renders from another goroutine
	mu  sync.Mutex
	out io.Writer
}

// NewApp creates an application reading stdin and writing stdout.
// failures collects errors of queued changes so commands can report them.
func NewApp(apiInstance api.API, failures *logging.CollectingSink) *App {
	app := &App{
		api:      apiInstance,
		failures: failures,
		errors:   NewErrorHandler(),
	}
	app.SetIO(os.Stdin, os.Stdout)
	return app
}

// SetIO replaces the input and output streams
func (a *App) SetIO(in io.Reader, out io.Writer) {
	a.stdin = in
	a.reader = bufio.NewReader(in)
	a.out = out
}

// SetMetrics sets the gatherer served by watch --metrics-addr
func (a *App) SetMetrics(g prometheus.Gatherer) {
	a.metrics = g
}

func (a *App) printf(format string, args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, args...)
}

// settle waits for queued changes and returns the first failure reported
// while they ran
func (a *App) settle(ctx context.Context, operation string) error {
	if err := a.api.Sync(ctx); err != nil {
		return a.errors.Handle(operation, err)
	}
	if a.failures == nil {
		return nil
	}
	if failures := a.failures.Drain(); len(failures) > 0 {
		return a.errors.Handle(operation, failures[0].Err)
	}
	return nil
}

// confirm asks a yes/no question; anything but y or yes is a no
func (a *App) confirm(question string) (bool, error) {
	a.printf("%s [y/N]: ", question)

	line, err := a.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *App) interactive() bool {
	f, ok := a.stdin.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// parseTaskID parses a task id argument
func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidInputError("id", arg, "must be a positive number")
	}
	return id, nil
}
