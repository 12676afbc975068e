package cli

import (
	"context"
)

// ClearCommand handles the clear command
type ClearCommand struct {
	app       *App
	assumeYes bool
}

// NewClearCommand creates a new clear command handler
func NewClearCommand(app *App, assumeYes bool) *ClearCommand {
	return &ClearCommand{app: app, assumeYes: assumeYes}
}

// Execute deletes every task after confirmation
func (c *ClearCommand) Execute(ctx context.Context, args []string) error {
	if !c.assumeYes {
		ok, err := c.app.confirm("Are you sure you want to delete all tasks?")
		if err != nil {
			return c.app.errors.Handle("delete all tasks", err)
		}
		if !ok {
			c.app.println("Delete cancelled.")
			return nil
		}
	}

	if err := c.app.api.DeleteAll(); err != nil {
		return c.app.errors.Handle("delete all tasks", err)
	}
	if err := c.app.settle(ctx, "delete all tasks"); err != nil {
		return err
	}

	c.app.println("All tasks deleted")
	return nil
}
