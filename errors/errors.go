package errors

import (
	"fmt"
)

// AppError is the unified trainlog error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Recoverable reports whether an error-tolerant operator may catch e.
func (e *AppError) Recoverable() bool { return IsRecoverableCode(e.Code) }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// MissingField creates a new AppError for a required field that is absent from a record.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// InvalidConfig creates a new AppError for an argument rejected at construction time.
func InvalidConfig(component, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("%s: %s", component, reason),
		Details: map[string]any{"component": component},
	}
}

// Validation creates a new AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// Usage creates a new AppError for an API used outside its contract.
func Usage(reason string) *AppError {
	return &AppError{Code: ErrCodeUsage, Message: reason}
}

// IO creates a new AppError for a failed file operation.
func IO(op, path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeIO, Message: fmt.Sprintf("%s %s", op, path),
		Details: map[string]any{"op": op, "path": path}, Cause: cause,
	}
}

// Decode creates a new AppError for a value that could not be decoded.
func Decode(what string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecode, Message: fmt.Sprintf("cannot decode %s", what),
		Cause: cause,
	}
}
