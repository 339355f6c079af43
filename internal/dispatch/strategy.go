package dispatch

import (
	"fmt"
	"strings"

	"github.com/dshills/keystrike/internal/shortcut"
)

// Kind identifies an execution strategy.
type Kind int

const (
	// KindCapture launches the system screenshot tool.
	KindCapture Kind = iota
	// KindDialog opens the OS screenshot dialog through scripting.
	KindDialog
	// KindText sends one scripted keystroke.
	KindText
	// KindRaw posts raw key down/up events.
	KindRaw
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCapture:
		return "capture"
	case KindDialog:
		return "dialog"
	case KindText:
		return "text"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Strategy is the resolved way of performing a shortcut.
// The concrete types are CaptureCommand, DialogTrigger, TextKeystroke
// and RawSequence.
type Strategy interface {
	Kind() Kind
	strategy()
}

// CaptureCommand runs the screenshot utility with Args.
type CaptureCommand struct {
	Args []string
}

// DialogTrigger opens the OS screenshot dialog.
type DialogTrigger struct{}

// TextKeystroke types Char with Modifiers held.
type TextKeystroke struct {
	Char      rune
	Modifiers shortcut.ModifierSet
}

// RawSequence presses Modifiers in order, taps each of Keys, then releases
// the modifiers in reverse order.
type RawSequence struct {
	Modifiers []KeyCode
	Keys      []KeyCode

	// Dropped lists tokens that had no key code.
	Dropped []string
}

func (CaptureCommand) Kind() Kind { return KindCapture }
func (DialogTrigger) Kind() Kind  { return KindDialog }
func (TextKeystroke) Kind() Kind  { return KindText }
func (RawSequence) Kind() Kind    { return KindRaw }

func (CaptureCommand) strategy() {}
func (DialogTrigger) strategy()  {}
func (TextKeystroke) strategy()  {}
func (RawSequence) strategy()    {}

// IsNoop reports whether the sequence posts nothing.
func (r RawSequence) IsNoop() bool {
	return len(r.Modifiers) == 0 && len(r.Keys) == 0
}

// Describe returns a one-line human-readable form of s.
func Describe(s Strategy) string {
	switch v := s.(type) {
	case CaptureCommand:
		return fmt.Sprintf("capture %s", strings.Join(v.Args, " "))
	case DialogTrigger:
		return "dialog screenshot-panel"
	case TextKeystroke:
		if v.Modifiers.IsEmpty() {
			return fmt.Sprintf("text %q", v.Char)
		}
		return fmt.Sprintf("text %q using %s", v.Char, v.Modifiers)
	case RawSequence:
		desc := fmt.Sprintf("raw modifiers=%s keys=%s", hexCodes(v.Modifiers), hexCodes(v.Keys))
		if len(v.Dropped) > 0 {
			desc += fmt.Sprintf(" dropped=%s", strings.Join(v.Dropped, ","))
		}
		return desc
	default:
		return "unknown"
	}
}

func hexCodes(codes []KeyCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("0x%02X", uint16(c))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
