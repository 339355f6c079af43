package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dshills/keystrike/internal/dispatch"
	"github.com/dshills/keystrike/internal/engine"
	"github.com/dshills/keystrike/internal/permission"
	"github.com/dshills/keystrike/internal/picker"
	"github.com/dshills/keystrike/internal/shortcut"
	"github.com/dshills/keystrike/internal/synth"
)

// readOnly configures an engine that only reads the catalog.
var readOnly = []engine.Option{
	engine.WithoutWatcher(),
	engine.WithHosts(permission.Static(false)),
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find shortcuts whose description contains the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags, cmd.ErrOrStderr(), readOnly...)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout())
			results := s.engine.SearchGroups(strings.Join(args, " "))
			if len(results) == 0 {
				p.println(p.style(dimStyle, "no matches"))
				return nil
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{r.Definition.Description, r.Definition.Symbols(), r.Group}
			}
			p.table([]string{"SHORTCUT", "KEYS", "GROUP"},
				[]lipgloss.Style{lipgloss.NewStyle(), keysStyle, dimStyle}, rows)
			return nil
		},
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every shortcut by group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags, cmd.ErrOrStderr(), readOnly...)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout())
			groups := s.engine.Groups()
			if len(groups) == 0 {
				p.printf("no shortcuts in %s\n", s.engine.Dir())
				return nil
			}
			for i, g := range groups {
				if i > 0 {
					p.println()
				}
				p.printf("%s %s\n", p.style(groupStyle, g.Name), p.style(dimStyle, "("+g.Source+")"))
				for _, d := range g.Shortcuts {
					line := fmt.Sprintf("  %-32s %s", d.Description, p.style(keysStyle, d.Symbols()))
					if showIDs {
						line += "  " + p.style(dimStyle, d.ID)
					}
					p.println(line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show shortcut ids")
	return cmd
}

func newExecCmd(flags *globalFlags) *cobra.Command {
	var bundleID string

	cmd := &cobra.Command{
		Use:   "exec <id-or-description>",
		Short: "Perform a shortcut in the frontmost (or given) application",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags, cmd.ErrOrStderr(), engine.WithoutWatcher())
			if err != nil {
				return err
			}
			defer s.Close()

			def, err := s.engine.Find(strings.Join(args, " "))
			if err != nil {
				return err
			}

			var target *synth.App
			if bundleID != "" {
				target = &synth.App{BundleID: bundleID}
			}
			return explainExecError(s.engine.Execute(cmd.Context(), def, target))
		},
	}
	cmd.Flags().StringVar(&bundleID, "app", "", "Bundle id of the application to perform the shortcut in")
	return cmd
}

func explainExecError(err error) error {
	if errors.Is(err, engine.ErrPermissionDenied) {
		return fmt.Errorf("%w; run 'keystrike permission --request' and allow keystrike under Privacy & Security > Accessibility", err)
	}
	return err
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <KEY+KEY...>",
		Short: "Show how a key combination would be performed",
		Long: `Show the strategy chosen for a key combination without performing it.

Keys may be given as one argument joined with '+' or as separate arguments:
  keystrike resolve COMMAND+SHIFT+4
  keystrike resolve COMMAND OPTION K`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := splitKeys(args)
			p := newPrinter(cmd.OutOrStdout())

			strategy := dispatch.Resolve(keys)
			p.printf("%s %s\n", p.style(keysStyle, shortcut.Definition{Keys: keys}.Symbols()), dispatch.Describe(strategy))
			for _, err := range dispatch.UnknownTokens(keys) {
				p.println(p.style(warnStyle, "warning: "+err.Error()))
			}
			return nil
		},
	}
}

// splitKeys accepts "COMMAND+C", "COMMAND C" or a mix of both.
func splitKeys(args []string) []string {
	var keys []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, "+") {
			if part = strings.TrimSpace(part); part != "" {
				keys = append(keys, part)
			}
		}
	}
	return keys
}

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report problems in definition files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags, io.Discard, readOnly...)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout())
			problems := s.engine.Problems()
			snap := s.engine.Snapshot()
			p.printf("%s: %d shortcuts in %d files\n", s.engine.Dir(), snap.Len(), len(snap.Groups()))
			for _, src := range snap.Sources() {
				p.println("  " + p.style(dimStyle, src))
			}

			if len(problems) == 0 {
				p.println(p.style(okStyle, "no problems"))
				return nil
			}
			for _, prob := range problems {
				style := warnStyle
				if prob.Skipped {
					style = errStyle
				}
				p.println(p.style(style, prob.String()))
			}
			return errSilent
		},
	}
}

func newPermissionCmd(flags *globalFlags) *cobra.Command {
	var request, wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Show or request the accessibility permission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags, cmd.ErrOrStderr(), engine.WithoutWatcher())
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout())
			if s.engine.IsPermissionGranted() {
				p.println(p.style(okStyle, "accessibility permission granted"))
				return nil
			}

			if request {
				if err := s.engine.RequestPermission(); err != nil {
					return err
				}
				p.println("requested accessibility permission; approve keystrike in System Settings")
			}
			if !wait {
				p.println(p.style(warnStyle, "accessibility permission not granted"))
				return errSilent
			}

			p.println(p.style(dimStyle, "waiting for permission..."))
			if err := s.engine.WaitForPermission(cmd.Context(), interval); err != nil {
				return err
			}
			p.println(p.style(okStyle, "accessibility permission granted"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&request, "request", false, "Show the system permission prompt")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the permission is granted")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval for --wait")
	return cmd
}

func newPickCmd(flags *globalFlags) *cobra.Command {
	var bundleID string

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Search interactively and perform the chosen shortcut",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would corrupt the screen; only a log file receives them.
			s, err := openSession(cmd.Context(), flags, io.Discard)
			if err != nil {
				return err
			}
			defer s.Close()

			var opts []picker.Option
			opts = append(opts, picker.WithLogger(s.logger))
			if bundleID != "" {
				opts = append(opts, picker.WithTarget(&synth.App{BundleID: bundleID}))
			}
			pk, err := picker.NewTerminal(s.engine, opts...)
			if err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			s.engine.SetSurface(pk)

			def, err := pk.Run(cmd.Context())
			switch {
			case errors.Is(err, picker.ErrCancelled), errors.Is(err, context.Canceled):
				return nil
			case err != nil:
				return explainExecError(err)
			}
			s.logger.Info("performed %q", def.Description)
			return nil
		},
	}
	cmd.Flags().StringVar(&bundleID, "app", "", "Bundle id of the application to perform the shortcut in")
	return cmd
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Load definitions and report every reload until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags, cmd.ErrOrStderr(), engine.WithHosts(permission.Static(false)))
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd.OutOrStdout())
			report := func(cat *shortcut.Catalog) {
				p.printf("%s %d shortcuts in %d files\n",
					p.style(dimStyle, time.Now().Format("15:04:05")), cat.Len(), len(cat.Groups()))
				for _, prob := range s.engine.Problems() {
					p.println(p.style(warnStyle, "  "+prob.String()))
				}
			}
			s.engine.OnReload(report)
			report(s.engine.Snapshot())

			p.printf("watching %s (Ctrl-C to stop)\n", s.engine.Dir())
			<-cmd.Context().Done()
			return nil
		},
	}
}
