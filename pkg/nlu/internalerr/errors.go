package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Pipeline lifecycle failures
	ErrComponentResolution     = errors.New("component resolution failed")
	ErrMissingArgument         = errors.New("missing argument")
	ErrComponentInitialization = errors.New("component initialization failed")
	ErrInvalidState            = errors.New("invalid state")
)
