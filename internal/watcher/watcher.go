// Package watcher observes the definitions directory and reports changes.
//
// A Watcher owns one fsnotify handle, acquired by New and released by Close.
// Events are delivered without debouncing; consumers are expected to make
// their reaction idempotent.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tidwall/match"
)

// ErrNotDirectory is returned by New when the path is not a directory.
var ErrNotDirectory = errors.New("path is not a directory")

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file was removed.
	OpRemove
	// OpRename indicates a file was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event is a change to a file in the watched directory.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Stats provides watcher status information.
type Stats struct {
	TotalEvents int64
	Dropped     int64
	Errors      int64
	LastError   error
	StartTime   time.Time
}

// Config holds watcher options.
type Config struct {
	// Patterns restricts events to base names matching one of the globs.
	// Empty means every file.
	Patterns []string

	// BufferSize is the size of the event and error channels.
	BufferSize int
}

// Option configures a Watcher.
type Option func(*Config)

// WithPatterns sets the base-name globs.
func WithPatterns(patterns []string) Option {
	return func(c *Config) {
		c.Patterns = patterns
	}
}

// Watcher watches a single directory.
type Watcher struct {
	dir    string
	config Config

	fsw *fsnotify.Watcher

	events chan Event
	errors chan error

	totalEvents atomic.Int64
	dropped     atomic.Int64
	totalErrors atomic.Int64
	startTime   time.Time

	mu        sync.Mutex
	lastError error
	closed    bool
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// New starts watching dir. The caller must Close the watcher.
func New(dir string, opts ...Option) (*Watcher, error) {
	cfg := Config{BufferSize: 64}
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:       abs,
		config:    cfg,
		fsw:       fsw,
		events:    make(chan Event, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		startTime: time.Now(),
		closeCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Events returns the event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases the OS handle. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		TotalEvents: w.totalEvents.Load(),
		Dropped:     w.dropped.Load(),
		Errors:      w.totalErrors.Load(),
		LastError:   w.lastError,
		StartTime:   w.startTime,
	}
}

// Run delivers events and errors to the handlers until ctx is done or the
// watcher is closed. A panicking handler does not stop delivery.
func (w *Watcher) Run(ctx context.Context, onEvent func(Event), onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.events:
			if !ok {
				return
			}
			if onEvent != nil {
				safeCall(func() { onEvent(ev) })
			}
		case err, ok := <-w.errors:
			if !ok {
				return
			}
			if onError != nil {
				safeCall(func() { onError(err) })
			}
		}
	}
}

func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.recordError(err)
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}
	if !w.matches(fsEvent.Name) {
		return
	}

	ev := Event{
		Path:      fsEvent.Name,
		Op:        op,
		Timestamp: time.Now(),
	}
	select {
	case w.events <- ev:
		w.totalEvents.Add(1)
	default:
		// A pending event already triggers a full reload.
		w.dropped.Add(1)
	}
}

// convertOp keeps write-class operations; chmod alone is ignored.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	if len(w.config.Patterns) == 0 {
		return true
	}
	for _, p := range w.config.Patterns {
		if match.Match(base, p) {
			return true
		}
	}
	return false
}

func (w *Watcher) recordError(err error) {
	w.totalErrors.Add(1)
	w.mu.Lock()
	w.lastError = err
	w.mu.Unlock()
}
