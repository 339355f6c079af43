package synth

import (
	"context"
	"fmt"

	"github.com/dshills/keystrike/internal/dispatch"
)

// App identifies an application that can be brought to the front.
type App struct {
	Name     string
	BundleID string
	PID      int
}

// String returns the most specific identifier available.
func (a App) String() string {
	switch {
	case a.BundleID != "" && a.Name != "":
		return fmt.Sprintf("%s (%s)", a.Name, a.BundleID)
	case a.BundleID != "":
		return a.BundleID
	case a.Name != "":
		return a.Name
	case a.PID > 0:
		return fmt.Sprintf("pid %d", a.PID)
	default:
		return "<unknown app>"
	}
}

// Focuser inspects and changes the frontmost application.
type Focuser interface {
	Frontmost(ctx context.Context) (App, error)
	Activate(ctx context.Context, app App) error
}

// Surface is the caller's own UI, hidden before focus is handed back.
type Surface interface {
	Hide()
}

// Scripter runs a UI-automation script and waits for it to finish.
type Scripter interface {
	Run(ctx context.Context, script string) error
}

// Launcher starts a detached process without waiting for it.
type Launcher interface {
	Launch(path string, args ...string) error
}

// Poster injects one raw keyboard event into the shared input channel.
type Poster interface {
	Post(code dispatch.KeyCode, down bool, flags dispatch.Flags) error
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func()

// Hide calls f.
func (f SurfaceFunc) Hide() { f() }
