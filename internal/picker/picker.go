// Package picker is a terminal UI for finding and running shortcuts.
//
// The list stays empty until something is typed. Up and Down move the
// selection, Enter runs the selected shortcut and Esc or Ctrl-C quits.
// The picker is also the engine's surface: when execution hands focus
// back to the target application the picker finalizes its screen first.
package picker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keystrike/internal/logging"
	"github.com/dshills/keystrike/internal/shortcut"
	"github.com/dshills/keystrike/internal/synth"
)

// Engine is what the picker needs from the shortcut engine.
type Engine interface {
	Search(query string) []shortcut.Definition
	Execute(ctx context.Context, def shortcut.Definition, target *synth.App) error
}

// ErrCancelled is returned by Run when the user quits without choosing.
var ErrCancelled = errors.New("picker cancelled")

// Styles used by the picker.
var (
	styleDefault  = tcell.StyleDefault
	stylePrompt   = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleKeys     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// Option configures a Picker.
type Option func(*Picker)

// WithTarget executes in app instead of the frontmost application.
func WithTarget(app *synth.App) Option {
	return func(p *Picker) { p.target = app }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Picker) {
		if l != nil {
			p.logger = l
		}
	}
}

// Picker is a single-use interactive search over an Engine.
type Picker struct {
	screen tcell.Screen
	engine Engine
	target *synth.App
	logger *logging.Logger

	query    []rune
	results  []shortcut.Definition
	selected int
	offset   int
	status   string

	hideOnce sync.Once
	hidden   bool
	mu       sync.Mutex

	// ready is closed once the screen is initialized.
	ready chan struct{}
}

// New creates a picker drawing on screen. The screen must not be
// initialized yet; Run initializes it and finalizes it on return.
func New(screen tcell.Screen, engine Engine, opts ...Option) *Picker {
	p := &Picker{
		screen: screen,
		engine: engine,
		logger: logging.Null(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent("picker")
	return p
}

// NewTerminal creates a picker on the controlling terminal.
func NewTerminal(engine Engine, opts ...Option) (*Picker, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(screen, engine, opts...), nil
}

// Hide finalizes the screen so the terminal is restored before focus moves.
// It is safe to call more than once.
func (p *Picker) Hide() {
	p.hideOnce.Do(func() {
		p.mu.Lock()
		p.hidden = true
		p.mu.Unlock()
		p.screen.Fini()
	})
}

// Run shows the picker until a shortcut is executed or the user quits.
// It returns the executed shortcut, or ErrCancelled.
func (p *Picker) Run(ctx context.Context) (shortcut.Definition, error) {
	if err := p.screen.Init(); err != nil {
		return shortcut.Definition{}, fmt.Errorf("init screen: %w", err)
	}
	defer p.Hide()
	close(p.ready)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	p.draw()
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return shortcut.Definition{}, ErrCancelled
		}
		if ctx.Err() != nil {
			return shortcut.Definition{}, ctx.Err()
		}

		switch e := ev.(type) {
		case *tcell.EventResize:
			p.screen.Sync()
		case *tcell.EventKey:
			def, run, quit := p.handleKey(e)
			if quit {
				return shortcut.Definition{}, ErrCancelled
			}
			if run {
				err := p.engine.Execute(ctx, def, p.target)
				if err == nil || p.isHidden() {
					return def, err
				}
				// Execution stopped before the screen was handed back.
				p.status = err.Error()
				p.logger.Warn("execute %q: %v", def.Description, err)
			}
		}
		p.draw()
	}
}

func (p *Picker) isHidden() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hidden
}

// handleKey applies one key press. It reports the shortcut to run or a
// request to quit.
func (p *Picker) handleKey(ev *tcell.EventKey) (def shortcut.Definition, run, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return def, false, true
	case tcell.KeyEnter:
		if len(p.results) == 0 {
			return def, false, false
		}
		return p.results[p.selected], true, false
	case tcell.KeyUp, tcell.KeyCtrlP:
		p.move(-1)
	case tcell.KeyDown, tcell.KeyCtrlN:
		p.move(1)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(p.query) > 0 {
			p.query = p.query[:len(p.query)-1]
			p.refresh()
		}
	case tcell.KeyCtrlU:
		p.query = p.query[:0]
		p.refresh()
	case tcell.KeyRune:
		p.query = append(p.query, ev.Rune())
		p.refresh()
	}
	return def, false, false
}

func (p *Picker) move(delta int) {
	if len(p.results) == 0 {
		return
	}
	p.selected = (p.selected + delta + len(p.results)) % len(p.results)
}

func (p *Picker) refresh() {
	p.results = p.engine.Search(string(p.query))
	p.selected = 0
	p.offset = 0
	p.status = ""
}

// Selected returns the highlighted shortcut, if any.
func (p *Picker) Selected() (shortcut.Definition, bool) {
	if len(p.results) == 0 {
		return shortcut.Definition{}, false
	}
	return p.results[p.selected], true
}

func (p *Picker) draw() {
	if p.isHidden() {
		return
	}
	p.screen.Clear()
	width, height := p.screen.Size()

	x := drawText(p.screen, 0, 0, width, "> ", stylePrompt)
	x = drawText(p.screen, x, 0, width, string(p.query), styleDefault)
	p.screen.ShowCursor(x, 0)

	if p.status != "" {
		drawText(p.screen, 0, 1, width, p.status, styleStatus)
	} else if len(p.query) > 0 {
		drawText(p.screen, 0, 1, width, fmt.Sprintf("%d match(es)", len(p.results)), styleKeys)
	}

	rows := height - 2
	if rows <= 0 {
		p.screen.Show()
		return
	}
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if p.selected >= p.offset+rows {
		p.offset = p.selected - rows + 1
	}

	for i := 0; i < rows && p.offset+i < len(p.results); i++ {
		idx := p.offset + i
		def := p.results[idx]
		style := styleDefault
		if idx == p.selected {
			style = styleSelected
		}
		y := 2 + i
		for cx := 0; cx < width; cx++ {
			p.screen.SetContent(cx, y, ' ', nil, style)
		}
		drawText(p.screen, 1, y, width, def.Description, style)

		keys := def.Symbols()
		kx := width - len([]rune(keys)) - 1
		if kx > len([]rune(def.Description))+2 {
			keyStyle := styleKeys
			if idx == p.selected {
				keyStyle = styleSelected
			}
			drawText(p.screen, kx, y, width, keys, keyStyle)
		}
	}
	p.screen.Show()
}

// drawText writes s at (x, y), clipped to width, and returns the column
// after the last rune written.
func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) int {
	for _, r := range text {
		if x >= width {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
