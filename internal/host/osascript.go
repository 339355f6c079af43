package host

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/keystrike/internal/synth"
)

// DefaultOsascriptPath is the system AppleScript runner.
const DefaultOsascriptPath = "/usr/bin/osascript"

// frontmostScript prints "name|bundle id|pid" of the frontmost process.
const frontmostScript = `tell application "System Events"
	set p to first application process whose frontmost is true
	set b to ""
	try
		set b to bundle identifier of p
	end try
	return (name of p) & "|" & b & "|" & (unix id of p)
end tell`

// Osascript runs AppleScript through the osascript tool. It implements
// synth.Scripter and synth.Focuser.
type Osascript struct {
	Path string
}

// NewOsascript returns an Osascript using path, or the system default.
func NewOsascript(path string) *Osascript {
	if path == "" {
		path = DefaultOsascriptPath
	}
	return &Osascript{Path: path}
}

// Run executes script and waits for it to finish.
func (o *Osascript) Run(ctx context.Context, script string) error {
	_, err := o.Output(ctx, script)
	return err
}

// Output executes script and returns its trimmed standard output.
func (o *Osascript) Output(ctx context.Context, script string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, o.Path, "-e", script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &ScriptError{
			Script: script,
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Frontmost returns the application that currently has focus.
func (o *Osascript) Frontmost(ctx context.Context) (synth.App, error) {
	out, err := o.Output(ctx, frontmostScript)
	if err != nil {
		return synth.App{}, err
	}
	return ParseFrontmost(out)
}

// Activate brings app to the front.
func (o *Osascript) Activate(ctx context.Context, app synth.App) error {
	script, err := ActivateScript(app)
	if err != nil {
		return err
	}
	return o.Run(ctx, script)
}

// ParseFrontmost parses the "name|bundle id|pid" line printed by the
// frontmost query. The bundle id may be empty.
func ParseFrontmost(out string) (synth.App, error) {
	parts := strings.Split(strings.TrimSpace(out), "|")
	if len(parts) != 3 {
		return synth.App{}, fmt.Errorf("host: unexpected frontmost output %q", out)
	}
	app := synth.App{
		Name:     strings.TrimSpace(parts[0]),
		BundleID: strings.TrimSpace(parts[1]),
	}
	if pid := strings.TrimSpace(parts[2]); pid != "" {
		n, err := strconv.Atoi(pid)
		if err != nil {
			return synth.App{}, fmt.Errorf("host: bad pid in frontmost output %q: %w", out, err)
		}
		app.PID = n
	}
	if app.Name == "" && app.BundleID == "" && app.PID == 0 {
		return synth.App{}, fmt.Errorf("host: empty frontmost output %q", out)
	}
	return app, nil
}

// ActivateScript returns the script that activates app, preferring the
// bundle id, then the name, then the process id.
func ActivateScript(app synth.App) (string, error) {
	switch {
	case app.BundleID != "":
		return fmt.Sprintf("tell application id %s to activate", quote(app.BundleID)), nil
	case app.Name != "":
		return fmt.Sprintf("tell application %s to activate", quote(app.Name)), nil
	case app.PID > 0:
		return fmt.Sprintf(`tell application "System Events" to set frontmost of (first process whose unix id is %d) to true`, app.PID), nil
	default:
		return "", fmt.Errorf("host: cannot activate %s", app)
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
