// Package store loads shortcut groups from a directory of definition files
// and owns the live catalog.
//
// Each file holds one group. Files are parsed independently: a malformed
// file is logged and skipped without affecting its siblings. The catalog is
// swapped atomically on every reload, so readers always observe either the
// previous or the next snapshot in full.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/keystrike/internal/dispatch"
	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/shortcut"
)

// DefaultPatterns are the file name globs considered definition files.
var DefaultPatterns = []string{"*.json", "*.yaml", "*.yml", "*.toml", "*.lua"}

// Option configures a Store or a Load call.
type Option func(*options)

type options struct {
	patterns []string
	codecs   *Codecs
	logger   *logging.Logger
	newID    func() string
}

func defaultOptions() options {
	return options{
		patterns: DefaultPatterns,
		codecs:   DefaultCodecs(),
		logger:   logging.Null(),
		newID:    uuid.NewString,
	}
}

// WithPatterns sets the definition file globs.
func WithPatterns(patterns []string) Option {
	return func(o *options) {
		if len(patterns) > 0 {
			o.patterns = patterns
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDGenerator overrides how definition IDs are assigned.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// Load reads every definition file in dir and builds a catalog.
// Per-file failures are returned as problems; only an unreadable
// directory is an error, reported as *IOError.
func Load(dir string, opts ...Option) (*shortcut.Catalog, []Problem, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return load(dir, o)
}

func load(dir string, o options) (*shortcut.Catalog, []Problem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, &IOError{Op: "read directory", Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if !isDefinitionFile(dir, e, o.patterns) {
			continue
		}
		if _, ok := o.codecs.For(e.Name()); !ok {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var groups []shortcut.Group
	var problems []Problem
	for _, name := range names {
		path := filepath.Join(dir, name)
		g, warnings, err := loadFile(path, o)
		if err != nil {
			o.logger.Warn("skipping %s: %v", name, err)
			problems = append(problems, Problem{Source: name, Err: err, Skipped: true})
			continue
		}
		for _, w := range warnings {
			o.logger.Debug("%s: %v", name, w)
			problems = append(problems, Problem{Source: name, Err: w})
		}
		groups = append(groups, g)
	}

	return shortcut.NewCatalog(groups), problems, nil
}

// loadFile parses one file. The returned warnings are unknown key tokens;
// they do not prevent the group from loading.
func loadFile(path string, o options) (shortcut.Group, []error, error) {
	codec, _ := o.codecs.For(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return shortcut.Group{}, nil, &IOError{Op: "read file", Path: path, Err: err}
	}

	doc, err := codec.Decode(path, data)
	if err != nil {
		return shortcut.Group{}, nil, err
	}

	g := shortcut.Group{
		Name:      doc.Name,
		Source:    filepath.Base(path),
		Shortcuts: make([]shortcut.Definition, 0, len(doc.Shortcuts)),
	}
	var warnings []error
	for i, e := range doc.Shortcuts {
		if len(e.Keys) == 0 {
			return shortcut.Group{}, nil, &ParseError{
				Path:    path,
				Message: fmt.Sprintf("shortcuts[%d].keys must not be empty", i),
			}
		}
		keys := make([]string, len(e.Keys))
		for j, k := range e.Keys {
			keys[j] = shortcut.NormalizeToken(k)
		}
		warnings = append(warnings, dispatch.UnknownTokens(keys)...)
		g.Shortcuts = append(g.Shortcuts, shortcut.Definition{
			ID:          o.newID(),
			Description: e.Description,
			Keys:        keys,
		})
	}
	return g, warnings, nil
}

// Store owns the live catalog for one directory.
type Store struct {
	dir  string
	opts options

	catalog atomic.Pointer[shortcut.Catalog]
	reloads atomic.Int64

	mu        sync.Mutex
	reloading bool
	pending   bool
	problems  []Problem
	listeners []func(*shortcut.Catalog)
}

// New creates a store for dir with an empty catalog. Call Reload to load it.
func New(dir string, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &Store{dir: dir, opts: o}
	s.catalog.Store(shortcut.EmptyCatalog())
	return s
}

// Dir returns the definitions directory.
func (s *Store) Dir() string {
	return s.dir
}

// Snapshot returns the current catalog. The snapshot never changes;
// callers keep a stable view for as long as they hold it.
func (s *Store) Snapshot() *shortcut.Catalog {
	return s.catalog.Load()
}

// Reloads returns how many times the catalog has been replaced.
func (s *Store) Reloads() int64 {
	return s.reloads.Load()
}

// Problems returns the problems found by the last successful load.
func (s *Store) Problems() []Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Problem(nil), s.problems...)
}

// OnReload registers fn to be called with each new catalog.
func (s *Store) OnReload(fn func(*shortcut.Catalog)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// EnsureSeedFile writes the default group if the directory has none.
func (s *Store) EnsureSeedFile() (bool, error) {
	return EnsureSeedFile(s.dir, s.opts.patterns)
}

// Reload re-reads the directory and swaps in a new catalog.
//
// At most one reload runs at a time. A call made while another reload is in
// progress returns immediately after asking the running reload to go around
// once more, so the final catalog always reflects the latest directory state.
// On *IOError the previous catalog is kept.
func (s *Store) Reload() error {
	s.mu.Lock()
	if s.reloading {
		s.pending = true
		s.mu.Unlock()
		return nil
	}
	s.reloading = true
	s.mu.Unlock()

	for {
		err := s.reloadOnce()

		s.mu.Lock()
		if !s.pending {
			s.reloading = false
			s.mu.Unlock()
			return err
		}
		s.pending = false
		s.mu.Unlock()
	}
}

func (s *Store) reloadOnce() error {
	cat, problems, err := load(s.dir, s.opts)
	if err != nil {
		return err
	}

	s.catalog.Store(cat)
	s.reloads.Add(1)

	s.mu.Lock()
	s.problems = problems
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	s.opts.logger.Info("loaded %d shortcuts from %d files", cat.Len(), len(cat.Groups()))
	for _, fn := range listeners {
		fn(cat)
	}
	return nil
}
