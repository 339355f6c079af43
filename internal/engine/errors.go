package engine

import (
	"errors"

	"github.com/dshills/keystrike/internal/synth"
)

// Errors returned by engine operations.
var (
	// ErrPermissionDenied indicates the input-synthesis grant is missing.
	// Nothing was sent to the target application.
	ErrPermissionDenied = synth.ErrPermissionDenied

	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("engine is closed")

	// ErrNotFound indicates no shortcut matched an id or description.
	ErrNotFound = errors.New("shortcut not found")
)
