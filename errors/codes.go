package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Record errors
const (
	// ErrCodeMissingField indicates a required record field is absent.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Construction and contract errors
const (
	// ErrCodeInvalidConfig indicates an operator or component was built with unusable arguments.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUsage indicates an API was called outside its contract.
	ErrCodeUsage ErrorCode = "USAGE"
)

// Collaborator errors
const (
	// ErrCodeIO indicates a failure opening, reading or writing a log file.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeDecode indicates a stored value could not be decoded.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
)

var recoverableCodes = map[ErrorCode]bool{
	ErrCodeMissingField: true,
}

// IsRecoverableCode returns true if the code may be caught by an enclosing
// error-tolerant operator.
func IsRecoverableCode(code ErrorCode) bool {
	return recoverableCodes[code]
}
