package factory

import "errors"

var (
	// ErrNotFound reports that a referenced stage, device or target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput reports a malformed request: bad ranges, negative counts, out-of-range scores.
	ErrInvalidInput = errors.New("invalid input")
)
