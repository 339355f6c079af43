package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every keystrike environment variable.
const EnvPrefix = "KEYSTRIKE_"

// EnvLoader overlays settings from environment variables.
type EnvLoader struct {
	mapping map[string]string // env var -> setting path
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates an environment loader using the default mapping.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		mapping: defaultEnvMapping(prefix),
		lookup:  os.LookupEnv,
	}
}

// NewEnvLoaderWithLookup is NewEnvLoader reading from lookup instead of the
// process environment.
func NewEnvLoaderWithLookup(prefix string, lookup func(string) (string, bool)) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.lookup = lookup
	return l
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "SHORTCUTS_DIR":      "paths.shortcuts_dir",
		prefix + "LOG_LEVEL":          "logging.level",
		prefix + "LOG_FILE":           "logging.file",
		prefix + "FOCUS_SETTLE_MS":    "execution.focus_settle_ms",
		prefix + "INPUT_SETTLE_MS":    "execution.input_settle_ms",
		prefix + "SCREENCAPTURE_PATH": "execution.screencapture_path",
		prefix + "OSASCRIPT_PATH":     "execution.osascript_path",
		prefix + "PATTERNS":           "definitions.patterns",
	}
}

// Apply sets every mapped variable that is present onto cfg.
// Empty values are treated as set.
func (l *EnvLoader) Apply(cfg *Config) error {
	names := make([]string, 0, len(l.mapping))
	for name := range l.mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val, ok := l.lookup(name)
		if !ok {
			continue
		}
		if err := cfg.Set(l.mapping[name], val); err != nil {
			return fmt.Errorf("environment %s: %w", name, err)
		}
	}
	return nil
}

// Set assigns a setting from its string form. Patterns are comma separated.
func (c *Config) Set(path, value string) error {
	switch path {
	case "paths.shortcuts_dir":
		c.Paths.ShortcutsDir = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.file":
		c.Logging.File = value
	case "execution.focus_settle_ms":
		return setInt(&c.Execution.FocusSettleMS, path, value)
	case "execution.input_settle_ms":
		return setInt(&c.Execution.InputSettleMS, path, value)
	case "execution.screencapture_path":
		c.Execution.ScreencapturePath = value
	case "execution.osascript_path":
		c.Execution.OsascriptPath = value
	case "definitions.patterns":
		c.Definitions.Patterns = splitList(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, path)
	}
	return nil
}

func setInt(dst *int, path, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return &ValidationError{Path: path, Message: "must be an integer", Value: value}
	}
	*dst = n
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
