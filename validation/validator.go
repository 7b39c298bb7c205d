package validation

import (
	"fmt"
	"strings"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Error returns an INVALID_CONFIG AppError for component if any check
// failed, nil otherwise.
func (v *Validator) Error(component string) error {
	if !v.HasErrors() {
		return nil
	}
	return wrap(component, joinFieldErrors(v.errors), v.errors)
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Reserved rejects keys that collide with names the caller owns.
func (v *Validator) Reserved(field string, keys []string, reserved ...string) *Validator {
	for _, k := range keys {
		for _, r := range reserved {
			if k == r {
				v.AddError(field, fmt.Sprintf("key %q is reserved", k))
			}
		}
	}
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

func joinFieldErrors(fields []FieldError) string {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.Field + ": " + e.Message
	}
	return strings.Join(messages, "; ")
}
