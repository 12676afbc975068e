package cli

import (
	"context"
)

// RemoveCommand handles the rm command
type RemoveCommand struct {
	app       *App
	assumeYes bool
}

// NewRemoveCommand creates a new rm command handler
func NewRemoveCommand(app *App, assumeYes bool) *RemoveCommand {
	return &RemoveCommand{app: app, assumeYes: assumeYes}
}

// Execute deletes the task identified by args[0] after confirmation
func (c *RemoveCommand) Execute(ctx context.Context, args []string) error {
	id, err := parseTaskID(args[0])
	if err != nil {
		return c.app.errors.HandleSimple(err)
	}

	if !c.assumeYes {
		task, err := c.app.api.Get(id)
		if err != nil {
			return c.app.errors.Handle("delete task", err)
		}
		c.app.printf("%d. %s\n", task.ID, task.Title)

		ok, err := c.app.confirm("Are you sure you want to delete this task?")
		if err != nil {
			return c.app.errors.Handle("delete task", err)
		}
		if !ok {
			c.app.println("Delete cancelled.")
			return nil
		}
	}

	if err := c.app.api.Delete(id); err != nil {
		return c.app.errors.Handle("delete task", err)
	}
	if err := c.app.settle(ctx, "delete task"); err != nil {
		return err
	}

	c.app.println("Task deleted")
	return nil
}
