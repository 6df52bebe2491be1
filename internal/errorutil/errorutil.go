package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable data integrity issues.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrInvalidInput is a base error type for caller-contract violations. The
// caller was expected to validate its input before calling.
var ErrInvalidInput = errors.New("invalid input error")
