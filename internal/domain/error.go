package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDuplicateKey    = errors.New("duplicate correlation key")
	ErrUnauthorized    = errors.New("operation reserved to the operator")
	ErrSelfBlock       = errors.New("operator cannot block itself")

	// Infrastructure failure classes. Adapters wrap their errors with these so the
	// router can decide what to surface to the operator.
	ErrStorage   = errors.New("storage failure")
	ErrTransport = errors.New("transport failure")
)
