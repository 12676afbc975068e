package cli

import (
	"context"
)

// EditCommand handles the edit command. A nil field keeps the current value.
type EditCommand struct {
	app         *App
	title       *string
	description *string
}

// NewEditCommand creates a new edit command handler
func NewEditCommand(app *App, title, description *string) *EditCommand {
	return &EditCommand{app: app, title: title, description: description}
}

// Execute updates the task identified by args[0]
func (c *EditCommand) Execute(ctx context.Context, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return c.app.errors.HandleSimple(err)
	}

	current, err := c.app.api.Get(id)
	if err != nil {
		return c.app.errors.Handle("edit task", err)
	}

	// edit a copy; the store only changes through Update
	edited := current
	if c.title != nil {
		edited.Title = *c.title
	}
	if c.description != nil {
		edited.Description = *c.description
	}

	if err := c.app.api.Update(edited.ID, edited.Title, edited.Description); err != nil {
		return c.app.errors.Handle("edit task", err)
	}
	if err := c.app.settle(ctx, "edit task"); err != nil {
		return err
	}

	c.app.println("Task updated")
	return nil
}
