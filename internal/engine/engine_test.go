package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/keystrike/internal/config"
	"github.com/dshills/keystrike/internal/dispatch"
	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/permission"
	"github.com/dshills/keystrike/internal/synth"
)

// fakeHost records every side effect the synthesizer asks for.
type fakeHost struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeHost) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeHost) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeHost) Frontmost(ctx context.Context) (synth.App, error) {
	f.record("frontmost")
	return synth.App{Name: "Editor", BundleID: "com.example.editor"}, nil
}

func (f *fakeHost) Activate(ctx context.Context, app synth.App) error {
	f.record("activate " + app.BundleID)
	return nil
}

func (f *fakeHost) Run(ctx context.Context, script string) error {
	f.record("script " + script)
	return nil
}

func (f *fakeHost) Launch(path string, args ...string) error {
	f.record("launch " + path + " " + strings.Join(args, " "))
	return nil
}

func (f *fakeHost) Post(code dispatch.KeyCode, down bool, flags dispatch.Flags) error {
	f.record(fmt.Sprintf("post 0x%02X %t", uint16(code), down))
	return nil
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ShortcutsDir = filepath.Join(t.TempDir(), "shortcuts")
	cfg.Execution.FocusSettleMS = 0
	cfg.Execution.InputSettleMS = 0
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, granted bool, opts ...Option) (*Engine, *fakeHost) {
	t.Helper()
	host := &fakeHost{}
	base := []Option{
		WithHosts(permission.Static(granted),
			synth.WithFocuser(host),
			synth.WithScripter(host),
			synth.WithLauncher(host),
			synth.WithPoster(host),
		),
		WithIDGenerator(sequentialIDs()),
	}
	eng, err := New(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng, host
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Execution.FocusSettleMS = -1
	if _, err := New(cfg, WithHosts(permission.Static(true))); !errors.Is(err, config.ErrValidationFailed) {
		t.Fatalf("New error = %v, want ErrValidationFailed", err)
	}
}

func TestStart_SeedsEmptyDirectory(t *testing.T) {
	cfg := testConfig(t)
	eng, _ := newTestEngine(t, cfg, true, WithoutWatcher())

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := os.Stat(filepath.Join(eng.Dir(), "default.json")); err != nil {
		t.Fatalf("seed file not written: %v", err)
	}
	got := eng.Search("copy")
	if len(got) != 1 || got[0].Description != "Copy" {
		t.Errorf("Search(copy) = %+v, want the seeded Copy", got)
	}
	if len(eng.Search("")) != 0 {
		t.Error("empty query must return no results")
	}
	if len(eng.Problems()) != 0 {
		t.Errorf("Problems = %v", eng.Problems())
	}
}

func TestStart_Idempotent(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if eng.Reloads() != 1 {
		t.Errorf("Reloads = %d, want 1", eng.Reloads())
	}
}

func TestStart_DirectoryFailureLoggedOnce(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, "file", "x")

	cfg := testConfig(t)
	cfg.Paths.ShortcutsDir = filepath.Join(base, "file", "shortcuts")

	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelWarn, Output: &buf})
	eng, _ := newTestEngine(t, cfg, true, WithLogger(logger))

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "shortcuts") {
		t.Errorf("logged %d lines, want 1:\n%s", len(lines), buf.String())
	}
}

func TestStart_UnwritableDirectoryLeavesEmptyCatalog(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	writeFile(t, base, "file", "x")

	cfg := testConfig(t)
	cfg.Paths.ShortcutsDir = filepath.Join(blocker, "shortcuts")
	eng, _ := newTestEngine(t, cfg, true)

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := eng.Snapshot().Len(); n != 0 {
		t.Errorf("catalog len = %d, want 0", n)
	}
	if len(eng.Problems()) == 0 {
		t.Error("expected a problem describing the directory failure")
	}
	if len(eng.Search("copy")) != 0 {
		t.Error("search should find nothing")
	}
}

func TestFind(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	byDesc, err := eng.Find("select all")
	if err != nil {
		t.Fatalf("Find by description: %v", err)
	}
	byID, err := eng.Find(byDesc.ID)
	if err != nil || byID.Description != "Select All" {
		t.Errorf("Find by id = %+v, %v", byID, err)
	}
	if _, err := eng.Find("launch rockets"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find unknown = %v, want ErrNotFound", err)
	}
}

func TestExecute_PermissionDenied(t *testing.T) {
	eng, host := newTestEngine(t, testConfig(t), false, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	def, err := eng.Find("Copy")
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.Execute(context.Background(), def, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Execute error = %v, want ErrPermissionDenied", err)
	}
	if calls := host.Calls(); len(calls) != 0 {
		t.Errorf("host calls = %v, want none", calls)
	}
	if eng.IsPermissionGranted() {
		t.Error("IsPermissionGranted = true")
	}
}

func TestExecute_Strategies(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Copy", `script tell application "System Events" to keystroke "c" using {command down}`},
		{"Screenshot Selected Area", "launch /usr/sbin/screencapture -i -c"},
		{"Screenshot Options", `script tell application "System Events" to key code 23 using {command down, shift down}`},
	}

	eng, host := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			def, err := eng.Find(tt.desc)
			if err != nil {
				t.Fatalf("Find(%q): %v", tt.desc, err)
			}
			before := len(host.Calls())
			if err := eng.Execute(context.Background(), def, nil); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			calls := host.Calls()[before:]
			if len(calls) == 0 || calls[len(calls)-1] != tt.want {
				t.Errorf("calls = %v, want last %q", calls, tt.want)
			}
		})
	}
}

func TestExecute_ExplicitTarget(t *testing.T) {
	eng, host := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	def, _ := eng.Find("Undo")

	target := &synth.App{BundleID: "com.example.other"}
	if err := eng.Execute(context.Background(), def, target); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := host.Calls()
	if calls[0] != "activate com.example.other" {
		t.Errorf("first call = %q, want activation of explicit target", calls[0])
	}
}

func TestExecute_HidesSurface(t *testing.T) {
	eng, host := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	eng.SetSurface(synth.SurfaceFunc(func() { host.record("hide") }))

	def, _ := eng.Find("Paste")
	if err := eng.Execute(context.Background(), def, nil); err != nil {
		t.Fatal(err)
	}
	calls := host.Calls()
	if len(calls) < 2 || calls[1] != "hide" {
		t.Errorf("calls = %v, want hide after frontmost", calls)
	}
}

func TestExecute_AfterClose(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	def, _ := eng.Find("Copy")

	if err := eng.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := eng.Execute(context.Background(), def, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Execute after Close = %v, want ErrClosed", err)
	}
	if err := eng.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
}

func TestSnapshot_StableAcrossReload(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	before := eng.Snapshot()
	n := before.Len()

	writeFile(t, eng.Dir(), "extra.json",
		`{"name":"Extra","shortcuts":[{"description":"Copy Path","keys":["COMMAND","OPTION","C"]}]}`)
	if err := eng.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if before.Len() != n {
		t.Errorf("held snapshot changed from %d to %d", n, before.Len())
	}
	if eng.Snapshot().Len() != n+1 {
		t.Errorf("new snapshot len = %d, want %d", eng.Snapshot().Len(), n+1)
	}
	if got := eng.Search("copy"); len(got) != 2 {
		t.Errorf("Search(copy) = %d results, want 2", len(got))
	}
}

func TestHotReload(t *testing.T) {
	eng, _ := newTestEngine(t, testConfig(t), true)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeFile(t, eng.Dir(), "terminal.yaml",
		"name: Terminal\nshortcuts:\n  - description: Clear Scrollback\n    keys: [COMMAND, K]\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(eng.Search("scrollback")) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("new definition file was not picked up by hot reload")
}

func TestUnknownTokensStillExecute(t *testing.T) {
	eng, host := newTestEngine(t, testConfig(t), true, WithoutWatcher())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, eng.Dir(), "odd.json",
		`{"name":"Odd","shortcuts":[{"description":"Mystery","keys":["CONTROL","HYPER","SPACE"]}]}`)
	if err := eng.Reload(); err != nil {
		t.Fatal(err)
	}

	def, err := eng.Find("Mystery")
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Execute(context.Background(), def, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var posts int
	for _, c := range host.Calls() {
		if strings.HasPrefix(c, "post ") {
			posts++
		}
	}
	if posts != 4 {
		t.Errorf("posted %d events, want 4 (control and space, down and up)", posts)
	}
}
