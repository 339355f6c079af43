package host

import (
	"time"

	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/permission"
	"github.com/dshills/keystrike/internal/synth"
)

// MaxCaptures caps screenshot processes running at once.
const MaxCaptures = 4

// Config selects the external tools used by the system adapters.
type Config struct {
	OsascriptPath     string
	ScreencapturePath string
	Logger            *logging.Logger
}

// System bundles the adapters for the running platform.
type System struct {
	Gate      permission.Gate
	Osascript *Osascript
	Launcher  *Launcher
	Poster    synth.Poster

	capturePath string
	logger      *logging.Logger
}

// NewSystem builds the platform adapters. Missing tools are logged, not
// fatal: the corresponding strategies fail at execution time.
func NewSystem(cfg Config) *System {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Null()
	}
	logger = logger.WithComponent("host")

	capturePath := cfg.ScreencapturePath
	if capturePath == "" {
		capturePath = synth.DefaultCapturePath
	}

	s := &System{
		Gate:        NewAccessibilityGate(),
		Osascript:   NewOsascript(cfg.OsascriptPath),
		Launcher:    NewLauncher(WithLauncherLogger(logger), WithMaxProcesses(MaxCaptures)),
		Poster:      NewEventPoster(),
		capturePath: capturePath,
		logger:      logger,
	}
	for _, tool := range []string{s.Osascript.Path, capturePath} {
		if err := CheckExecutable(tool); err != nil {
			logger.Warn("%v", err)
		}
	}
	return s
}

// SynthOptions wires the adapters into a synthesizer.
func (s *System) SynthOptions() []synth.Option {
	return []synth.Option{
		synth.WithFocuser(s.Osascript),
		synth.WithScripter(s.Osascript),
		synth.WithLauncher(s.Launcher),
		synth.WithPoster(s.Poster),
		synth.WithCapturePath(s.capturePath),
	}
}

// Close stops launching and waits briefly for running captures.
func (s *System) Close(timeout time.Duration) {
	s.Launcher.Shutdown(timeout)
}
