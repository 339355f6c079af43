package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileSystem is the file access the loader needs.
// Tests substitute an in-memory implementation.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader applies the file and environment layers over the defaults.
type Loader struct {
	fs   FileSystem
	path string
	env  *EnvLoader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fsys FileSystem) LoaderOption {
	return func(l *Loader) { l.fs = fsys }
}

// WithEnv replaces the environment layer. A nil loader disables it.
func WithEnv(env *EnvLoader) LoaderOption {
	return func(l *Loader) { l.env = env }
}

// NewLoader creates a loader for the TOML file at path. An empty path means
// DefaultPath.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:   OSFS{},
		path: path,
		env:  NewEnvLoader(EnvPrefix),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the config file path, resolving the default if needed.
func (l *Loader) Path() (string, error) {
	if l.path != "" {
		return l.path, nil
	}
	return DefaultPath()
}

// Load returns the defaults overlaid with the file and the environment.
// It does not validate; callers apply flags first and then call Validate.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	path, err := l.Path()
	if err != nil {
		return nil, fmt.Errorf("locating config file: %w", err)
	}
	if err := l.loadFile(cfg, path); err != nil {
		return nil, err
	}

	if l.env != nil {
		if err := l.env.Apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadFile decodes path over cfg. A missing file leaves cfg unchanged.
func (l *Loader) loadFile(cfg *Config, path string) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Decode(path, data, cfg)
}

// Decode parses TOML data over cfg. Keys that name no setting are rejected.
func Decode(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		var serr *toml.StrictMissingError
		switch {
		case errors.As(err, &derr):
			perr.Line, perr.Column = derr.Position()
		case errors.As(err, &serr):
			perr.Err = fmt.Errorf("%w: %v", ErrUnknownSetting, err)
			if len(serr.Errors) > 0 {
				perr.Line, perr.Column = serr.Errors[0].Position()
				perr.Message = fmt.Sprintf("unknown setting %q", strings.Join(serr.Errors[0].Key(), "."))
			}
		}
		return perr
	}
	return nil
}
