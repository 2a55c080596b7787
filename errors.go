package skn

import "errors"

var (
	// ErrFormat reports malformed or truncated binary skin data.
	ErrFormat = errors.New("malformed skin data")

	// ErrEmptyInput reports a zero-length point set given to the matcher.
	ErrEmptyInput = errors.New("empty point set")

	// ErrShapeMismatch reports a structurally empty or inconsistent record.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNotSupported reports a request for an unimplemented transfer mode.
	ErrNotSupported = errors.New("transfer mode not supported")
)
