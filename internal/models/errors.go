package models

import "errors"

var (
	// ErrValidation marks malformed input rejected before any I/O.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized marks a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks a valid credential acting on a resource it does not own.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound = errors.New("not found")

	// ErrUpstream marks a failure of the external prediction service.
	ErrUpstream = errors.New("prediction service error")
)
