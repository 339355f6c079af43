package engine

import (
	"time"

	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/permission"
	"github.com/dshills/keystrike/internal/synth"
)

// DefaultCloseTimeout bounds how long Close waits for running captures.
const DefaultCloseTimeout = 500 * time.Millisecond

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger shared by every component.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHosts replaces the platform adapters with gate and the given
// synthesizer options. Used by tests and by embedders with their own hosts.
func WithHosts(gate permission.Gate, opts ...synth.Option) Option {
	return func(e *Engine) {
		e.gate = gate
		e.hostOpts = opts
		e.customHosts = true
	}
}

// WithSurface sets the UI surface hidden before focus is handed back.
func WithSurface(s synth.Surface) Option {
	return func(e *Engine) {
		e.surface = s
	}
}

// WithoutWatcher disables hot reload.
func WithoutWatcher() Option {
	return func(e *Engine) {
		e.watch = false
	}
}

// WithIDGenerator replaces the definition id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}
