package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"tasklist/internal/config"
)

const (
	defaultTitleMaxLength       = 255
	defaultDescriptionMaxLength = 4096
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance using default limits
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsWithinLength reports whether s has at most max characters.
// Length is counted in runes so non-ASCII titles are not penalised.
func (v *Validator) IsWithinLength(s string, max int) bool {
	return utf8.RuneCountInString(s) <= max
}

// HasNoControlCharacters rejects newlines, tabs and other control runes,
// which would break single-line list rendering.
func (v *Validator) HasNoControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// IsValidTaskID checks if a task ID is valid (positive)
func (v *Validator) IsValidTaskID(id int64) bool {
	return id > 0
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

// TitleMaxLength returns the configured maximum title length or the default
func (v *Validator) TitleMaxLength() int {
	if v.config != nil && v.config.Validation.TitleMaxLength > 0 {
		return v.config.Validation.TitleMaxLength
	}
	return defaultTitleMaxLength
}

// DescriptionMaxLength returns the configured maximum description length or the default
func (v *Validator) DescriptionMaxLength() int {
	if v.config != nil && v.config.Validation.DescriptionMaxLength > 0 {
		return v.config.Validation.DescriptionMaxLength
	}
	return defaultDescriptionMaxLength
}
