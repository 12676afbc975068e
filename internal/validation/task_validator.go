package validation

import (
	"tasklist/internal/config"
)

// TaskValidator provides validation for task mutations
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator creates a new task validator with default limits
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{
		validator: NewValidator(),
	}
}

// NewTaskValidatorWithConfig creates a task validator honouring configured limits
func NewTaskValidatorWithConfig(cfg *config.Config) *TaskValidator {
	return &TaskValidator{
		validator: NewValidatorWithConfig(cfg),
	}
}

// ValidateTitle validates a task title for creation or update
func (tv *TaskValidator) ValidateTitle(title string) error {
	validationError := NewValidationError()

	trimmed := tv.validator.TrimAndValidateString(title)
	if !tv.validator.IsNonEmptyString(trimmed) {
		validationError.AddRequiredError("title")
		return validationError
	}

	if max := tv.validator.TitleMaxLength(); !tv.validator.IsWithinLength(trimmed, max) {
		validationError.AddInvalidLengthError("title", trimmed, max)
	}

	if !tv.validator.HasNoControlCharacters(trimmed) {
		validationError.AddInvalidCharacterError("title", trimmed)
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateDescription validates a task description. Empty is allowed.
func (tv *TaskValidator) ValidateDescription(description string) error {
	max := tv.validator.DescriptionMaxLength()
	if tv.validator.IsWithinLength(tv.validator.TrimAndValidateString(description), max) {
		return nil
	}
	validationError := NewValidationError()
	validationError.AddInvalidLengthError("description", description, max)
	return validationError
}

// ValidateTaskID validates a task ID
func (tv *TaskValidator) ValidateTaskID(id int64) error {
	if !tv.validator.IsValidTaskID(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("id", id, "must be a positive integer")
		return validationError
	}
	return nil
}

// ValidateTaskForCreation validates the fields of a task about to be inserted
func (tv *TaskValidator) ValidateTaskForCreation(title, description string) error {
	validationError := NewValidationError()
	validationError.Merge(tv.ValidateTitle(title))
	validationError.Merge(tv.ValidateDescription(description))

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateTaskForUpdate validates an update of an existing task
func (tv *TaskValidator) ValidateTaskForUpdate(id int64, title, description string) error {
	validationError := NewValidationError()
	validationError.Merge(tv.ValidateTaskID(id))
	validationError.Merge(tv.ValidateTitle(title))
	validationError.Merge(tv.ValidateDescription(description))

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// CleanFields returns the trimmed title and description, as stored
func (tv *TaskValidator) CleanFields(title, description string) (string, string) {
	return tv.validator.TrimAndValidateString(title), tv.validator.TrimAndValidateString(description)
}
