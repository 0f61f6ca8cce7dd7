package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Library errors
	ErrNoDatabase    = errors.New("no database open")
	ErrSchemaMissing = errors.New("table missing from library")
	ErrCorrupt       = errors.New("corrupt data")

	// Structural errors
	ErrNotFound         = errors.New("not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist %w", ErrNotFound)
	ErrEntityNotFound   = fmt.Errorf("playlist entity %w", ErrNotFound)
	ErrTrackNotFound    = fmt.Errorf("track %w", ErrNotFound)
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNoValidFields    = errors.New("no valid fields")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)
