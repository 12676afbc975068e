package cli

import (
	"context"
	"strings"

	"tasklist/internal/errors"
)

// AddCommand handles the add command
type AddCommand struct {
	app         *App
	description string
}

// NewAddCommand creates a new add command handler
func NewAddCommand(app *App, description string) *AddCommand {
	return &AddCommand{app: app, description: description}
}

// Execute inserts a task titled with the joined arguments
func (c *AddCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.app.errors.HandleSimple(errors.NewInvalidInputError("title", "", "usage: tl add <title> [-d description]"))
	}

	title := strings.Join(args, " ")
	if err := c.app.api.Insert(title, c.description); err != nil {
		return c.app.errors.Handle("add task", err)
	}
	if err := c.app.settle(ctx, "add task"); err != nil {
		return err
	}

	c.app.println("Task added")
	return nil
}
