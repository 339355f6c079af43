//go:build unix

package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTool writes an executable shell script into dir.
func writeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	return path
}

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := writeTool(t, dir, "tool", "exit 0")

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CheckExecutable(exe); err != nil {
		t.Errorf("CheckExecutable(exe): %v", err)
	}
	if err := CheckExecutable(plain); !errors.Is(err, ErrNotExecutable) {
		t.Errorf("CheckExecutable(plain) = %v, want ErrNotExecutable", err)
	}
	if err := CheckExecutable(filepath.Join(dir, "missing")); !errors.Is(err, ErrNotExecutable) {
		t.Errorf("CheckExecutable(missing) = %v, want ErrNotExecutable", err)
	}
}

func TestOsascript_OutputAndArgs(t *testing.T) {
	dir := t.TempDir()
	// Echo the script passed after -e.
	tool := writeTool(t, dir, "osascript", `[ "$1" = "-e" ] || exit 2; printf '%s\n' "$2"`)

	o := NewOsascript(tool)
	out, err := o.Output(context.Background(), "Finder|com.apple.finder|1")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if out != "Finder|com.apple.finder|1" {
		t.Errorf("Output = %q", out)
	}
}

func TestOsascript_FailureCarriesStderr(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "osascript", `echo "execution error: not allowed" >&2; exit 1`)

	err := NewOsascript(tool).Run(context.Background(), "anything")
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("Run error = %v, want *ScriptError", err)
	}
	if scriptErr.Output != "execution error: not allowed" {
		t.Errorf("Output = %q", scriptErr.Output)
	}
}

func TestOsascript_ContextTimeout(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "osascript", `exec sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewOsascript(tool).Run(ctx, "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run error = %v, want DeadlineExceeded", err)
	}
}

func TestOsascript_Frontmost(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "osascript", `echo "Terminal|com.apple.Terminal|321"`)

	app, err := NewOsascript(tool).Frontmost(context.Background())
	if err != nil {
		t.Fatalf("Frontmost: %v", err)
	}
	if app.BundleID != "com.apple.Terminal" || app.PID != 321 {
		t.Errorf("Frontmost = %+v", app)
	}
}

func TestLauncher_LaunchAndReap(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "args")
	tool := writeTool(t, dir, "capture", `echo "$@" > "`+marker+`"`)

	l := NewLauncher(WithIDGenerator(func() string { return "fixed" }))
	defer l.Shutdown(time.Second)

	p, err := l.Start(tool, "-i", "-c")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.ID != "fixed" {
		t.Errorf("ID = %q", p.ID)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	if p.ExitCode() != 0 {
		t.Errorf("ExitCode = %d", p.ExitCode())
	}
	if p.State() != ProcessExited {
		t.Errorf("State = %s", p.State())
	}

	deadline := time.Now().Add(5 * time.Second)
	for l.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("process was not reaped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if strings.TrimSpace(string(data)) != "-i -c" {
		t.Errorf("args = %q", data)
	}
}

func TestLauncher_NonZeroExitRecorded(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "fail", `echo boom >&2; exit 3`)

	l := NewLauncher()
	defer l.Shutdown(time.Second)

	p, err := l.Start(tool)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-p.Done()
	if p.ExitCode() != 3 {
		t.Errorf("ExitCode = %d, want 3", p.ExitCode())
	}
	if strings.TrimSpace(p.Stderr()) != "boom" {
		t.Errorf("Stderr = %q", p.Stderr())
	}
}

func TestLauncher_RejectsNonExecutable(t *testing.T) {
	l := NewLauncher()
	defer l.Shutdown(time.Second)

	if err := l.Launch(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrNotExecutable) {
		t.Errorf("Launch error = %v, want ErrNotExecutable", err)
	}
	if l.Count() != 0 {
		t.Errorf("Count = %d, want 0", l.Count())
	}
}

func TestLauncher_MaxProcesses(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "slow", "sleep 1")

	l := NewLauncher(WithMaxProcesses(1))
	defer l.Shutdown(3 * time.Second)

	if err := l.Launch(tool); err != nil {
		t.Fatalf("first Launch: %v", err)
	}
	if err := l.Launch(tool); err == nil {
		t.Error("expected limit error on second Launch")
	}
}

func TestLauncher_ShutdownDoesNotKill(t *testing.T) {
	dir := t.TempDir()
	tool := writeTool(t, dir, "slow", "sleep 1")

	l := NewLauncher()
	p, err := l.Start(tool)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if l.Shutdown(10 * time.Millisecond) {
		t.Error("Shutdown reported all exited while a process was running")
	}
	if p.State() != ProcessRunning {
		t.Errorf("State after Shutdown = %s, want running", p.State())
	}
	if err := l.Launch(tool); !errors.Is(err, ErrLauncherShutdown) {
		t.Errorf("Launch after Shutdown = %v, want ErrLauncherShutdown", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process never exited")
	}
	if p.State() != ProcessExited {
		t.Errorf("final State = %s, want exited", p.State())
	}
}
