// Package synth performs a resolved shortcut strategy against the
// application the user was working in.
//
// Each Execute walks a fixed state machine:
//
//	Gate -> RestoreFocus -> Synthesize -> Done
//
// Gate refuses to continue without the input-synthesis grant. RestoreFocus
// hides the caller's surface, waits, re-activates the target application
// and waits again. Synthesize emits the events and is never interrupted.
// Executions are serialized so two shortcuts never interleave.
package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/keystrike/internal/dispatch"
	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/permission"
)

// Default settle delays and tool paths.
const (
	DefaultFocusSettle   = 150 * time.Millisecond
	DefaultInputSettle   = 100 * time.Millisecond
	DefaultCapturePath   = "/usr/sbin/screencapture"
	DefaultScriptTimeout = 5 * time.Second
)

// State is a step of an execution.
type State int

const (
	StateIdle State = iota
	StateGate
	StateRestoreFocus
	StateSynthesize
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGate:
		return "gate"
	case StateRestoreFocus:
		return "restore-focus"
	case StateSynthesize:
		return "synthesize"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithFocuser sets the frontmost-application host.
func WithFocuser(f Focuser) Option {
	return func(s *Synthesizer) { s.focuser = f }
}

// WithSurface sets the surface hidden before focus is restored.
func WithSurface(sf Surface) Option {
	return func(s *Synthesizer) { s.surface = sf }
}

// WithScripter sets the UI-automation host.
func WithScripter(sc Scripter) Option {
	return func(s *Synthesizer) { s.scripter = sc }
}

// WithLauncher sets the process launcher used for captures.
func WithLauncher(l Launcher) Option {
	return func(s *Synthesizer) { s.launcher = l }
}

// WithPoster sets the raw key event host.
func WithPoster(p Poster) Option {
	return func(s *Synthesizer) { s.poster = p }
}

// WithSettleDelays overrides the two focus settle delays.
// Negative values are treated as zero.
func WithSettleDelays(focus, input time.Duration) Option {
	return func(s *Synthesizer) {
		s.focusSettle = max(focus, 0)
		s.inputSettle = max(input, 0)
	}
}

// WithCapturePath sets the screenshot utility path.
func WithCapturePath(path string) Option {
	return func(s *Synthesizer) {
		if path != "" {
			s.capturePath = path
		}
	}
}

// WithSleep replaces the settle-delay sleeper.
func WithSleep(fn SleepFunc) Option {
	return func(s *Synthesizer) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStateHook registers fn to observe every state transition.
func WithStateHook(fn func(State)) Option {
	return func(s *Synthesizer) { s.onState = fn }
}

// Synthesizer executes strategies. It is safe for concurrent use.
type Synthesizer struct {
	gate     permission.Gate
	focuser  Focuser
	surface  Surface
	scripter Scripter
	launcher Launcher
	poster   Poster

	focusSettle   time.Duration
	inputSettle   time.Duration
	capturePath   string
	scriptTimeout time.Duration

	sleep   SleepFunc
	logger  *logging.Logger
	onState func(State)

	// slot is a one-element semaphore held for a whole execution.
	slot chan struct{}
}

// New creates a Synthesizer guarded by gate. A nil gate denies everything.
func New(gate permission.Gate, opts ...Option) *Synthesizer {
	if gate == nil {
		gate = permission.Static(false)
	}
	s := &Synthesizer{
		gate:          gate,
		focusSettle:   DefaultFocusSettle,
		inputSettle:   DefaultInputSettle,
		capturePath:   DefaultCapturePath,
		scriptTimeout: DefaultScriptTimeout,
		sleep:         sleepContext,
		logger:        logging.Null(),
		slot:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("synth")
	return s
}

// Execute performs strategy against target, or against the current
// frontmost application when target is nil.
//
// It returns ErrPermissionDenied before any focus change when the grant is
// missing, and ctx.Err() when ctx ends while waiting for a previous
// execution or during focus restoration. Once synthesis starts it runs to
// completion and host failures are logged, not returned.
func (s *Synthesizer) Execute(ctx context.Context, strategy dispatch.Strategy, target *App) error {
	if strategy == nil {
		return errors.New("synth: nil strategy")
	}

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() {
		<-s.slot
		s.enter(StateIdle)
	}()

	s.enter(StateGate)
	if !s.gate.IsGranted() {
		s.logger.Warn("execution refused: %v", ErrPermissionDenied)
		return ErrPermissionDenied
	}

	s.enter(StateRestoreFocus)
	if err := s.restoreFocus(ctx, target); err != nil {
		return err
	}

	s.enter(StateSynthesize)
	s.synthesize(context.WithoutCancel(ctx), strategy)

	s.enter(StateDone)
	return nil
}

func (s *Synthesizer) enter(state State) {
	if s.onState != nil {
		s.onState(state)
	}
}

func (s *Synthesizer) restoreFocus(ctx context.Context, target *App) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	app := target
	if app == nil && s.focuser != nil {
		front, err := s.focuser.Frontmost(ctx)
		if err != nil {
			s.logger.Warn("frontmost application unavailable, skipping activation: %v", err)
		} else {
			app = &front
		}
	}

	if s.surface != nil {
		s.surface.Hide()
	}
	if err := s.sleep(ctx, s.focusSettle); err != nil {
		return err
	}

	if app != nil && s.focuser != nil {
		if err := s.focuser.Activate(ctx, *app); err != nil {
			s.logger.Warn("activate %s: %v", app, err)
		} else {
			s.logger.Debug("activated %s", app)
		}
	}
	return s.sleep(ctx, s.inputSettle)
}

func (s *Synthesizer) synthesize(ctx context.Context, strategy dispatch.Strategy) {
	s.logger.Debug("synthesizing %s", dispatch.Describe(strategy))

	var err error
	switch v := strategy.(type) {
	case dispatch.CaptureCommand:
		err = s.capture(v)
	case dispatch.DialogTrigger:
		err = s.runScript(ctx, DialogScript())
	case dispatch.TextKeystroke:
		err = s.runScript(ctx, KeystrokeScript(v.Char, v.Modifiers))
	case dispatch.RawSequence:
		err = s.postRaw(v)
	default:
		err = fmt.Errorf("unsupported strategy %T", strategy)
	}
	if err != nil {
		s.logger.Error("%s failed: %v", strategy.Kind(), err)
	}
}

func (s *Synthesizer) capture(c dispatch.CaptureCommand) error {
	if s.launcher == nil {
		return errors.New("no launcher configured")
	}
	return s.launcher.Launch(s.capturePath, c.Args...)
}

func (s *Synthesizer) runScript(ctx context.Context, script string) error {
	if s.scripter == nil {
		return errors.New("no scripter configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.scriptTimeout)
	defer cancel()
	return s.scripter.Run(ctx, script)
}

// postRaw presses the modifiers in order with a growing flag mask, taps each
// key with the full mask, then releases the modifiers in reverse order with
// a shrinking mask. Every modifier pressed is released even when a post fails.
func (s *Synthesizer) postRaw(seq dispatch.RawSequence) error {
	if seq.IsNoop() {
		return nil
	}
	if s.poster == nil {
		return errors.New("no event poster configured")
	}

	var errs []error
	post := func(code dispatch.KeyCode, down bool, flags dispatch.Flags) {
		if err := s.poster.Post(code, down, flags); err != nil {
			errs = append(errs, fmt.Errorf("post 0x%02X down=%t: %w", uint16(code), down, err))
		}
	}

	var flags dispatch.Flags
	for _, m := range seq.Modifiers {
		flags |= dispatch.FlagFor(m)
		post(m, true, flags)
	}
	full := dispatch.ModifierFlags(seq.Modifiers)
	for _, k := range seq.Keys {
		post(k, true, full)
		post(k, false, full)
	}
	flags = full
	for i := len(seq.Modifiers) - 1; i >= 0; i-- {
		m := seq.Modifiers[i]
		flags &^= dispatch.FlagFor(m)
		post(m, false, flags)
	}
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
