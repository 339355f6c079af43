// Package engine is the single entry point collaborators use: it owns the
// definition store, hot reload, search, and execution of shortcuts.
//
// A typical lifetime:
//
//	eng, err := engine.New(cfg, engine.WithLogger(logger))
//	if err != nil { ... }
//	defer eng.Close()
//	if err := eng.Start(ctx); err != nil { ... }
//	results := eng.Search("copy")
//	err = eng.Execute(ctx, results[0], nil)
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keystrike/internal/config"
	"github.com/dshills/keystrike/internal/dispatch"
	"github.com/dshills/keystrike/internal/host"
	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/permission"
	"github.com/dshills/keystrike/internal/search"
	"github.com/dshills/keystrike/internal/shortcut"
	"github.com/dshills/keystrike/internal/store"
	"github.com/dshills/keystrike/internal/synth"
	"github.com/dshills/keystrike/internal/watcher"
)

// Engine coordinates the store, watcher, and synthesizer.
// It is safe for concurrent use.
type Engine struct {
	cfg    *config.Config
	dir    string
	logger *logging.Logger

	store *store.Store
	synth *synth.Synthesizer
	gate  permission.Gate

	// Platform adapters, nil when WithHosts was used.
	system *host.System

	customHosts  bool
	hostOpts     []synth.Option
	watch        bool
	newID        func() string
	closeTimeout time.Duration

	surfaceMu sync.Mutex
	surface   synth.Surface

	mu      sync.Mutex
	started bool
	watcher *watcher.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	seedErr error

	closed atomic.Bool
}

// New creates an engine for cfg. A nil cfg means config.Default().
// Nothing touches the file system until Start.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dir, err := cfg.ShortcutsDir()
	if err != nil {
		return nil, fmt.Errorf("locating shortcuts directory: %w", err)
	}

	e := &Engine{
		cfg:          cfg,
		dir:          dir,
		logger:       logging.Null(),
		watch:        true,
		closeTimeout: DefaultCloseTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("engine")

	storeOpts := []store.Option{
		store.WithPatterns(cfg.Definitions.Patterns),
		store.WithLogger(e.logger.WithComponent("store")),
	}
	if e.newID != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(e.newID))
	}
	e.store = store.New(dir, storeOpts...)

	synthOpts := []synth.Option{
		synth.WithSettleDelays(cfg.FocusSettle(), cfg.InputSettle()),
		synth.WithCapturePath(cfg.Execution.ScreencapturePath),
		synth.WithLogger(e.logger),
		synth.WithSurface(synth.SurfaceFunc(e.hideSurface)),
	}
	if e.customHosts {
		synthOpts = append(synthOpts, e.hostOpts...)
	} else {
		e.system = host.NewSystem(host.Config{
			OsascriptPath:     cfg.Execution.OsascriptPath,
			ScreencapturePath: cfg.Execution.ScreencapturePath,
			Logger:            e.logger,
		})
		e.gate = e.system.Gate
		synthOpts = append(synthOpts, e.system.SynthOptions()...)
	}
	if e.gate == nil {
		e.gate = permission.Static(false)
	}
	e.synth = synth.New(e.gate, synthOpts...)

	return e, nil
}

// Start seeds the shortcuts directory if needed, loads the catalog, and
// starts hot reload. Failures here are logged and leave the engine usable,
// possibly with an empty catalog. Calling Start again is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrClosed
	}
	if e.started {
		return nil
	}
	e.started = true

	created, err := e.store.EnsureSeedFile()
	switch {
	case err != nil:
		e.seedErr = err
		e.logger.Error("preparing %s: %v", e.dir, err)
	case created:
		e.logger.Info("created default shortcuts in %s", e.dir)
	}

	// Watch before the initial load so edits made during it are seen.
	// A directory failure has already been logged by the seed step.
	if e.watch {
		if err := e.startWatcher(ctx); err != nil {
			if e.seedErr != nil {
				e.logger.Debug("hot reload disabled: %v", err)
			} else {
				e.logger.Warn("hot reload disabled: %v", err)
			}
		}
	}

	if err := e.store.Reload(); err != nil && e.seedErr == nil {
		e.logger.Error("loading shortcuts: %v", err)
	}
	return nil
}

func (e *Engine) startWatcher(ctx context.Context) error {
	w, err := watcher.New(e.dir, watcher.WithPatterns(e.cfg.Definitions.Patterns))
	if err != nil {
		return err
	}
	e.watcher = w

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		w.Run(ctx,
			func(ev watcher.Event) {
				e.logger.Debug("%s %s", ev.Op, ev.Path)
				if err := e.store.Reload(); err != nil {
					e.logger.Warn("reload after %s: %v", ev.Op, err)
				}
			},
			func(err error) {
				e.logger.Warn("watcher: %v", err)
			},
		)
	}()
	return nil
}

// Close stops hot reload and releases the watcher. It is safe to call more
// than once.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}

	e.mu.Lock()
	w := e.watcher
	cancel := e.cancel
	e.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
	}
	if w != nil {
		err = w.Close()
	}
	e.wg.Wait()

	if e.system != nil {
		e.system.Close(e.closeTimeout)
	}
	return err
}

// Dir returns the shortcuts directory.
func (e *Engine) Dir() string {
	return e.dir
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Snapshot returns the current immutable catalog.
func (e *Engine) Snapshot() *shortcut.Catalog {
	return e.store.Snapshot()
}

// Search returns the shortcuts whose description contains query, ignoring
// case. An empty query returns nothing.
func (e *Engine) Search(query string) []shortcut.Definition {
	return search.Search(e.store.Snapshot(), query)
}

// SearchGroups is Search reporting the group of each match.
func (e *Engine) SearchGroups(query string) []search.Result {
	return search.SearchGroups(e.store.Snapshot(), query)
}

// Groups returns every group in display order.
func (e *Engine) Groups() []shortcut.Group {
	return e.store.Snapshot().Groups()
}

// Lookup returns the shortcut with id.
func (e *Engine) Lookup(id string) (shortcut.Definition, bool) {
	return e.store.Snapshot().Lookup(id)
}

// Find returns the shortcut with id, or else the first shortcut whose
// description matches ref ignoring case.
func (e *Engine) Find(ref string) (shortcut.Definition, error) {
	cat := e.store.Snapshot()
	if d, ok := cat.Lookup(ref); ok {
		return d, nil
	}
	if d, ok := cat.FindByDescription(ref); ok {
		return d, nil
	}
	return shortcut.Definition{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

// Problems returns what went wrong with the last load, including a failure
// to prepare the directory.
func (e *Engine) Problems() []store.Problem {
	problems := e.store.Problems()

	e.mu.Lock()
	seedErr := e.seedErr
	e.mu.Unlock()
	if seedErr != nil {
		problems = append([]store.Problem{{Source: e.dir, Err: seedErr}}, problems...)
	}
	return problems
}

// Reload re-reads the shortcuts directory now.
func (e *Engine) Reload() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.store.Reload()
}

// Reloads returns how many catalogs have been loaded.
func (e *Engine) Reloads() int64 {
	return e.store.Reloads()
}

// OnReload registers fn to be called with each new catalog.
func (e *Engine) OnReload(fn func(*shortcut.Catalog)) {
	e.store.OnReload(fn)
}

// SetSurface sets the UI hidden before focus returns to the target.
func (e *Engine) SetSurface(s synth.Surface) {
	e.surfaceMu.Lock()
	e.surface = s
	e.surfaceMu.Unlock()
}

func (e *Engine) hideSurface() {
	e.surfaceMu.Lock()
	s := e.surface
	e.surfaceMu.Unlock()
	if s != nil {
		s.Hide()
	}
}

// Execute performs def in target, or in the frontmost application when
// target is nil. Key tokens with no known code are logged and skipped.
//
// It returns ErrPermissionDenied when input synthesis is not allowed,
// ErrClosed after Close, or the context error if ctx ends before synthesis
// starts.
func (e *Engine) Execute(ctx context.Context, def shortcut.Definition, target *synth.App) error {
	if e.closed.Load() {
		return ErrClosed
	}

	strategy := dispatch.Resolve(def.Keys)
	if raw, ok := strategy.(dispatch.RawSequence); ok {
		for _, tok := range raw.Dropped {
			e.logger.Warn("%q: %v", def.Description, &dispatch.UnknownKeyTokenError{Token: tok})
		}
	}
	e.logger.Info("executing %q (%s): %s", def.Description, def.Combo(), dispatch.Describe(strategy))

	err := e.synth.Execute(ctx, strategy, target)
	if errors.Is(err, synth.ErrPermissionDenied) {
		return ErrPermissionDenied
	}
	return err
}

// IsPermissionGranted reports whether shortcuts can be executed.
// The OS is asked on every call.
func (e *Engine) IsPermissionGranted() bool {
	return e.gate.IsGranted()
}

// RequestPermission asks the OS to show its grant prompt. It does not wait.
func (e *Engine) RequestPermission() error {
	return e.gate.RequestGrant()
}

// WaitForPermission polls until the grant appears or ctx ends.
func (e *Engine) WaitForPermission(ctx context.Context, interval time.Duration) error {
	return permission.WaitForGrant(ctx, e.gate, interval)
}
