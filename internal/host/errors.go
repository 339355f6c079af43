package host

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrUnsupported is returned by adapters that need macOS.
	ErrUnsupported = errors.New("host: not supported on this platform")

	// ErrLauncherShutdown is returned when launching after Shutdown.
	ErrLauncherShutdown = errors.New("host: launcher is shut down")

	// ErrNotExecutable is returned when a tool path cannot be executed.
	ErrNotExecutable = errors.New("host: tool not executable")
)

// ScriptError reports a failed osascript run with its diagnostic output.
type ScriptError struct {
	Script string
	Output string
	Err    error
}

func (e *ScriptError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("osascript: %v: %s", e.Err, e.Output)
	}
	return fmt.Sprintf("osascript: %v", e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}
