package picker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keystrike/internal/search"
	"github.com/dshills/keystrike/internal/shortcut"
	"github.com/dshills/keystrike/internal/synth"
)

// fakeEngine searches a fixed catalog and records executions.
type fakeEngine struct {
	cat     *shortcut.Catalog
	execErr error
	hide    func()

	mu       sync.Mutex
	executed []shortcut.Definition
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{cat: shortcut.NewCatalog([]shortcut.Group{{
		Name:   "General",
		Source: "default.json",
		Shortcuts: []shortcut.Definition{
			{ID: "1", Description: "Copy", Keys: []string{"COMMAND", "C"}},
			{ID: "2", Description: "Copy Path", Keys: []string{"COMMAND", "OPTION", "C"}},
			{ID: "3", Description: "Paste", Keys: []string{"COMMAND", "V"}},
		},
	}})}
}

func (f *fakeEngine) Search(query string) []shortcut.Definition {
	return search.Search(f.cat, query)
}

func (f *fakeEngine) Execute(ctx context.Context, def shortcut.Definition, target *synth.App) error {
	f.mu.Lock()
	f.executed = append(f.executed, def)
	f.mu.Unlock()
	if f.execErr != nil {
		return f.execErr
	}
	if f.hide != nil {
		f.hide()
	}
	return nil
}

func newSimPicker(t *testing.T, eng Engine) (*Picker, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	return New(screen, eng), screen
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func typeRune(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

// runPicker starts p.Run and returns a channel with its result once the
// screen is ready for events.
func runPicker(t *testing.T, p *Picker) <-chan result {
	t.Helper()
	done := make(chan result, 1)
	go func() {
		def, err := p.Run(context.Background())
		done <- result{def, err}
	}()
	select {
	case <-p.ready:
	case <-time.After(5 * time.Second):
		t.Fatal("picker never initialized")
	}
	return done
}

type result struct {
	def shortcut.Definition
	err error
}

func post(t *testing.T, s tcell.Screen, events ...tcell.Event) {
	t.Helper()
	for _, ev := range events {
		if err := s.PostEvent(ev); err != nil {
			t.Fatalf("PostEvent: %v", err)
		}
	}
}

func wait(t *testing.T, done <-chan result) result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("picker did not finish")
		return result{}
	}
}

func TestHandleKey_EmptyUntilTyped(t *testing.T) {
	p, _ := newSimPicker(t, newFakeEngine())

	if _, ok := p.Selected(); ok {
		t.Fatal("nothing should be selected before typing")
	}
	if _, run, _ := p.handleKey(key(tcell.KeyEnter)); run {
		t.Fatal("Enter with no results must not execute")
	}

	for _, r := range "cop" {
		p.handleKey(typeRune(r))
	}
	if string(p.query) != "cop" {
		t.Errorf("Query = %q", string(p.query))
	}
	if len(p.results) != 2 {
		t.Fatalf("results = %d, want 2", len(p.results))
	}
}

func TestHandleKey_Navigation(t *testing.T) {
	p, _ := newSimPicker(t, newFakeEngine())
	for _, r := range "copy" {
		p.handleKey(typeRune(r))
	}

	p.handleKey(key(tcell.KeyDown))
	if d, _ := p.Selected(); d.Description != "Copy Path" {
		t.Errorf("after Down selected = %q", d.Description)
	}
	p.handleKey(key(tcell.KeyDown))
	if d, _ := p.Selected(); d.Description != "Copy" {
		t.Errorf("Down wraps: selected = %q", d.Description)
	}
	p.handleKey(key(tcell.KeyUp))
	if d, _ := p.Selected(); d.Description != "Copy Path" {
		t.Errorf("Up wraps: selected = %q", d.Description)
	}

	def, run, quit := p.handleKey(key(tcell.KeyEnter))
	if !run || quit || def.ID != "2" {
		t.Errorf("Enter = %+v run=%t quit=%t", def, run, quit)
	}
}

func TestHandleKey_EditingQuery(t *testing.T) {
	p, _ := newSimPicker(t, newFakeEngine())
	for _, r := range "pas" {
		p.handleKey(typeRune(r))
	}
	p.handleKey(key(tcell.KeyBackspace2))
	if string(p.query) != "pa" {
		t.Errorf("Query after backspace = %q", string(p.query))
	}
	p.handleKey(key(tcell.KeyCtrlU))
	if string(p.query) != "" || len(p.results) != 0 {
		t.Errorf("Ctrl-U left query %q with %d results", string(p.query), len(p.results))
	}
	if _, _, quit := p.handleKey(key(tcell.KeyEscape)); !quit {
		t.Error("Esc should quit")
	}
}

func TestRun_ExecutesSelection(t *testing.T) {
	eng := newFakeEngine()
	p, screen := newSimPicker(t, eng)
	eng.hide = p.Hide

	done := runPicker(t, p)
	// "pa" matches Copy Path then Paste; Down selects the second.
	post(t, screen, typeRune('p'), typeRune('a'), key(tcell.KeyDown), key(tcell.KeyEnter))

	r := wait(t, done)
	if r.err != nil {
		t.Fatalf("Run error = %v", r.err)
	}
	if r.def.Description != "Paste" {
		t.Errorf("executed %q, want Paste", r.def.Description)
	}
	if !p.isHidden() {
		t.Error("screen should be finalized after execution")
	}
}

func TestRun_Cancel(t *testing.T) {
	eng := newFakeEngine()
	p, screen := newSimPicker(t, eng)

	done := runPicker(t, p)
	post(t, screen, typeRune('c'), key(tcell.KeyEscape))

	if r := wait(t, done); !errors.Is(r.err, ErrCancelled) {
		t.Fatalf("Run error = %v, want ErrCancelled", r.err)
	}
	if len(eng.executed) != 0 {
		t.Errorf("executed = %v, want none", eng.executed)
	}
}

func TestRun_ErrorBeforeHideKeepsPickerOpen(t *testing.T) {
	eng := newFakeEngine()
	eng.execErr = errors.New("accessibility permission not granted")
	p, screen := newSimPicker(t, eng)

	done := runPicker(t, p)
	post(t, screen, typeRune('c'), key(tcell.KeyEnter), key(tcell.KeyEscape))

	r := wait(t, done)
	if !errors.Is(r.err, ErrCancelled) {
		t.Fatalf("Run error = %v, want ErrCancelled after Esc", r.err)
	}
	if len(eng.executed) != 1 {
		t.Errorf("executed %d times, want 1", len(eng.executed))
	}
	if !strings.Contains(p.status, "permission") {
		t.Errorf("status = %q", p.status)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	p, _ := newSimPicker(t, newFakeEngine())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx)
		done <- err
	}()
	<-p.ready
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run ignored context cancellation")
	}
}

func TestDraw(t *testing.T) {
	p, screen := newSimPicker(t, newFakeEngine())
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(40, 6)

	for _, r := range "copy" {
		p.handleKey(typeRune(r))
	}
	p.draw()

	if got := rowText(screen, 0, 40); !strings.HasPrefix(got, "> copy") {
		t.Errorf("prompt row = %q", got)
	}
	if got := rowText(screen, 2, 40); !strings.Contains(got, "Copy") || !strings.Contains(got, "⌘C") {
		t.Errorf("first result row = %q", got)
	}
	if got := rowText(screen, 3, 40); !strings.Contains(got, "Copy Path") || !strings.Contains(got, "⌥⌘C") {
		t.Errorf("second result row = %q", got)
	}

	_, _, style, _ := screen.GetContent(1, 2) //nolint:staticcheck // GetContent is the correct API
	if _, _, attrs := style.Decompose(); attrs&tcell.AttrReverse == 0 {
		t.Error("selected row should be reversed")
	}
}

func rowText(s tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := s.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}
