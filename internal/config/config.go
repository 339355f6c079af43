package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/keystrike/internal/logging"
)

// AppName names the per-user configuration directory.
const AppName = "keystrike"

// Config holds every keystrike setting.
type Config struct {
	Paths       PathsConfig       `toml:"paths"`
	Logging     LoggingConfig     `toml:"logging"`
	Execution   ExecutionConfig   `toml:"execution"`
	Definitions DefinitionsConfig `toml:"definitions"`
}

// PathsConfig locates keystrike's data.
type PathsConfig struct {
	// ShortcutsDir holds the definition files. Empty means the default
	// under the user config directory.
	ShortcutsDir string `toml:"shortcuts_dir"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File, when set, receives log output instead of stderr.
	File string `toml:"file"`
}

// ExecutionConfig tunes shortcut execution.
type ExecutionConfig struct {
	FocusSettleMS     int    `toml:"focus_settle_ms"`
	InputSettleMS     int    `toml:"input_settle_ms"`
	ScreencapturePath string `toml:"screencapture_path"`
	OsascriptPath     string `toml:"osascript_path"`
}

// DefinitionsConfig selects which files in the shortcuts directory are read.
type DefinitionsConfig struct {
	Patterns []string `toml:"patterns"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Execution: ExecutionConfig{
			FocusSettleMS:     150,
			InputSettleMS:     100,
			ScreencapturePath: "/usr/sbin/screencapture",
			OsascriptPath:     "/usr/bin/osascript",
		},
		Definitions: DefinitionsConfig{
			Patterns: []string{"*.json", "*.yaml", "*.yml", "*.toml", "*.lua"},
		},
	}
}

// Dir returns <user config dir>/keystrike.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ShortcutsDir returns the configured definitions directory, falling back
// to <user config dir>/keystrike/shortcuts.
func (c *Config) ShortcutsDir() (string, error) {
	if c.Paths.ShortcutsDir != "" {
		return expandHome(c.Paths.ShortcutsDir)
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "shortcuts"), nil
}

// FocusSettle returns the delay between hiding the surface and activating
// the target.
func (c *Config) FocusSettle() time.Duration {
	return time.Duration(c.Execution.FocusSettleMS) * time.Millisecond
}

// InputSettle returns the delay between activation and synthesis.
func (c *Config) InputSettle() time.Duration {
	return time.Duration(c.Execution.InputSettleMS) * time.Millisecond
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() logging.Level {
	if level, ok := logging.ParseLevel(c.Logging.Level); ok {
		return level
	}
	return logging.LevelInfo
}

// Validate checks every setting and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, &ValidationError{
			Path:    "logging.level",
			Message: "must be one of debug, info, warn, error",
			Value:   c.Logging.Level,
		})
	}
	if c.Execution.FocusSettleMS < 0 {
		errs = append(errs, &ValidationError{
			Path:    "execution.focus_settle_ms",
			Message: "must not be negative",
			Value:   c.Execution.FocusSettleMS,
		})
	}
	if c.Execution.InputSettleMS < 0 {
		errs = append(errs, &ValidationError{
			Path:    "execution.input_settle_ms",
			Message: "must not be negative",
			Value:   c.Execution.InputSettleMS,
		})
	}
	if c.Execution.ScreencapturePath == "" {
		errs = append(errs, &ValidationError{
			Path:    "execution.screencapture_path",
			Message: "must not be empty",
			Value:   c.Execution.ScreencapturePath,
		})
	}
	if c.Execution.OsascriptPath == "" {
		errs = append(errs, &ValidationError{
			Path:    "execution.osascript_path",
			Message: "must not be empty",
			Value:   c.Execution.OsascriptPath,
		})
	}
	if len(c.Definitions.Patterns) == 0 {
		errs = append(errs, &ValidationError{
			Path:    "definitions.patterns",
			Message: "must list at least one pattern",
			Value:   c.Definitions.Patterns,
		})
	}
	for _, p := range c.Definitions.Patterns {
		if p == "" {
			errs = append(errs, &ValidationError{
				Path:    "definitions.patterns",
				Message: "pattern must not be empty",
				Value:   c.Definitions.Patterns,
			})
			break
		}
	}

	return errors.Join(errs...)
}

func expandHome(path string) (string, error) {
	if path != "~" && !hasHomePrefix(path) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func hasHomePrefix(path string) bool {
	return len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator)
}
