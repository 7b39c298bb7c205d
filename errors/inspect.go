package errors

import (
	stderrors "errors"
)

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsMissingField reports whether err wraps a missing-field condition.
func IsMissingField(err error) bool {
	return IsCode(err, ErrCodeMissingField)
}

// MissingFieldName returns the field named by a missing-field error.
func MissingFieldName(err error) (string, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeMissingField {
		return "", false
	}
	field, ok := appErr.Details["field"].(string)
	return field, ok
}
