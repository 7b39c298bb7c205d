// Package errors provides the error taxonomy shared by trainlog packages.
//
// Every failure is an *AppError carrying a machine-readable ErrorCode:
//
//   - MISSING_FIELD: a required record field is absent. This is the only
//     recoverable condition; ops.Duck catches it and nothing else.
//   - INVALID_CONFIG: an operator or component was constructed with
//     arguments that cannot work (e.g. an underivable result key).
//   - USAGE: an API was called outside its contract.
//   - IO_ERROR, DECODE_ERROR: collaborator failures reading or writing logs.
//
// Nothing in trainlog retries; codes exist so callers can branch on them.
package errors
