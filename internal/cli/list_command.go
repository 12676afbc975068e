package cli

import (
	"context"
	"strings"

	"tasklist/internal/errors"
)

// ListCommand handles the list command
type ListCommand struct {
	app    *App
	format string
}

// NewListCommand creates a new list command handler
func NewListCommand(app *App, format string) *ListCommand {
	return &ListCommand{app: app, format: format}
}

// Execute prints the tasks whose title matches the joined arguments
func (c *ListCommand) Execute(ctx context.Context, args []string) error {
	format := strings.ToLower(c.format)
	if format == "" {
		format = formatTable
	}
	if !isSupportedFormat(format) {
		return c.app.errors.HandleSimple(errors.NewInvalidInputError("format", c.format, "supported formats are table, json and csv"))
	}

	if err := c.app.api.Sync(ctx); err != nil {
		return c.app.errors.Handle("list tasks", err)
	}
	c.app.api.SetFilterQuery(strings.Join(args, " "))
	tasks := c.app.api.DisplayedSnapshot()

	c.app.mu.Lock()
	defer c.app.mu.Unlock()
	if err := printTasks(c.app.out, tasks, format); err != nil {
		return c.app.errors.Handle("list tasks", err)
	}
	return nil
}
