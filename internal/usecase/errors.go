package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrContextUnavailable means team or period data needed by a stage could
	// not be fetched or parsed.
	ErrContextUnavailable = errors.New("sync context unavailable")
	// ErrPayloadUnparsable stops a full-replace stage from wiping stored rows
	// with the empty result of an unreadable body.
	ErrPayloadUnparsable = errors.New("payload unparsable")
)
