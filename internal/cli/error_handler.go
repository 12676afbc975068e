package cli

import (
	"fmt"

	"tasklist/internal/errors"
	"tasklist/internal/validation"
)

// ErrorHandler turns any failure into one user friendly line
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Handle provides user-friendly error messages for validation and other errors
func (eh *ErrorHandler) Handle(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %s", operation, eh.Message(err))
}

// HandleSimple provides user-friendly error messages without operation context
func (eh *ErrorHandler) HandleSimple(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", eh.Message(err))
}

// Message returns the text shown to the user for err
func (eh *ErrorHandler) Message(err error) string {
	if _, ok := errors.AsAppError(err); ok {
		return errors.GetUserMessage(err)
	}
	if validationErr, ok := validation.AsValidationError(err); ok {
		return validationErr.GetUserFriendlyMessage()
	}
	return err.Error()
}
