// Package dispatch classifies a shortcut's key list into an execution
// strategy.
//
// Resolution is ordered and the first matching tier wins:
//
//  1. exact capture-command signatures (screenshot utility),
//  2. the screenshot dialog signature,
//  3. one text-eligible key plus any modifiers (scripted keystroke),
//  4. everything else as a raw key event sequence.
//
// Captures must precede the generic tiers because the OS intercepts those
// combinations before raw events reach it.
package dispatch

import (
	"strings"

	"github.com/dshills/keystrike/internal/shortcut"
)

// signature identifies a combination independent of modifier order.
type signature struct {
	mods shortcut.ModifierSet
	keys string
}

func newSignature(mods shortcut.ModifierSet, keys ...string) signature {
	return signature{mods: mods, keys: strings.Join(keys, "+")}
}

const cmdShift = shortcut.ModCommand | shortcut.ModShift

// captureArgs maps capture signatures to screencapture arguments.
// Every capture is copied to the clipboard.
var captureArgs = map[signature][]string{
	newSignature(cmdShift, "3"):          {"-c"},
	newSignature(cmdShift, "4"):          {"-i", "-c"},
	newSignature(cmdShift, "4", "SPACE"): {"-i", "-W", "-c"},
	newSignature(cmdShift, "6"):          {"-b", "-c"},
}

// dialogSignature opens the screenshot toolbar.
var dialogSignature = newSignature(cmdShift, "5")

// DialogKeyCode and DialogModifiers describe the scripted combination that
// opens the screenshot toolbar.
const (
	DialogKeyCode   KeyCode              = 0x17
	DialogModifiers shortcut.ModifierSet = cmdShift
)

// Resolve returns the strategy for keys. It never fails: unknown tokens
// degrade to a RawSequence that omits them.
func Resolve(keys []string) Strategy {
	mods, rest := shortcut.SplitKeys(keys)
	canon := make([]string, len(rest))
	for i, k := range rest {
		canon[i] = canonicalKey(k)
	}
	sig := newSignature(mods, canon...)

	if args, ok := captureArgs[sig]; ok {
		return CaptureCommand{Args: append([]string(nil), args...)}
	}

	if sig == dialogSignature {
		return DialogTrigger{}
	}

	if len(canon) == 1 {
		if ch, ok := textChars[canon[0]]; ok {
			return TextKeystroke{Char: ch, Modifiers: mods}
		}
	}

	return ResolveRaw(keys)
}

// ResolveRaw builds the raw event sequence for keys regardless of the
// earlier tiers.
func ResolveRaw(keys []string) RawSequence {
	var seq RawSequence
	var seen shortcut.ModifierSet

	for _, k := range keys {
		tok := shortcut.NormalizeToken(k)
		if tok == "" {
			continue
		}
		if mod, ok := shortcut.ModifierFromToken(tok); ok {
			if seen.Has(mod) {
				continue
			}
			seen = seen.With(mod)
			seq.Modifiers = append(seq.Modifiers, modifierCodes[mod])
			continue
		}
		code, ok := keyCodes[canonicalKey(tok)]
		if !ok {
			seq.Dropped = append(seq.Dropped, tok)
			continue
		}
		seq.Keys = append(seq.Keys, code)
	}
	return seq
}
