// Package main is the entry point for keystrike, a searchable catalog of
// keyboard shortcuts that can be executed in the frontmost application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/keystrike/internal/config"
	"github.com/dshills/keystrike/internal/engine"
	"github.com/dshills/keystrike/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errSilent reports failure through the exit code only; the command has
// already printed what went wrong.
var errSilent = errors.New("silent failure")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	dir        string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "keystrike",
		Short: "Search and run keyboard shortcuts",
		Long: `keystrike keeps a catalog of keyboard shortcuts in plain definition files
and performs them in the application you are working in.

Definition files (JSON, YAML, TOML or Lua) live in the shortcuts directory,
one group per file. The directory is created with a default set on first run
and reloaded whenever a file changes.

Examples:
  keystrike search copy            # Find shortcuts by description
  keystrike exec "Select All"      # Perform a shortcut in the frontmost app
  keystrike resolve COMMAND+SHIFT+4  # Show how a combination is performed
  keystrike pick                   # Interactive picker
  keystrike check                  # Report problems in definition files`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")
	pf.StringVar(&flags.dir, "dir", "", "Shortcuts directory (overrides configuration)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newSearchCmd(&flags),
		newListCmd(&flags),
		newExecCmd(&flags),
		newResolveCmd(),
		newCheckCmd(&flags),
		newPermissionCmd(&flags),
		newPickCmd(&flags),
		newWatchCmd(&flags),
	)
	return root
}

// loadConfig applies defaults, the config file, the environment and then
// the command line flags, in that order.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.NewLoader(flags.configPath).Load()
	if err != nil {
		return nil, err
	}
	if flags.dir != "" {
		cfg.Paths.ShortcutsDir = flags.dir
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg. Output goes to the log file
// when one is configured, otherwise to fallback.
func newLogger(cfg *config.Config, fallback io.Writer) (*logging.Logger, io.Closer, error) {
	out := fallback
	var closer io.Closer = nopCloser{}

	if cfg.Logging.File != "" {
		path := cfg.Logging.File
		if !filepath.IsAbs(path) {
			dir, err := config.Dir()
			if err != nil {
				return nil, nil, err
			}
			path = filepath.Join(dir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
		closer = f
	}

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel()
	lc.Output = out
	logger := logging.New(lc)
	return logger, closer, nil
}

// session is a configured, started engine and its cleanup.
type session struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *logging.Logger
	closer io.Closer
}

func (s *session) Close() {
	_ = s.engine.Close()
	_ = s.closer.Close()
}

// openSession loads configuration, builds the engine and starts it.
// logOut receives log output when no log file is configured.
func openSession(ctx context.Context, flags *globalFlags, logOut io.Writer, opts ...engine.Option) (*session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, closer, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg, append([]engine.Option{engine.WithLogger(logger)}, opts...)...)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	s := &session{cfg: cfg, engine: eng, logger: logger, closer: closer}

	if err := eng.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
