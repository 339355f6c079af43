package synth

import (
	"fmt"
	"strings"

	"github.com/dshills/keystrike/internal/dispatch"
	"github.com/dshills/keystrike/internal/shortcut"
)

// usingClause renders an AppleScript "using {...}" clause for mods,
// or "" when there are none.
func usingClause(mods shortcut.ModifierSet) string {
	var parts []string
	if mods.Has(shortcut.ModCommand) {
		parts = append(parts, "command down")
	}
	if mods.Has(shortcut.ModShift) {
		parts = append(parts, "shift down")
	}
	if mods.Has(shortcut.ModOption) {
		parts = append(parts, "option down")
	}
	if mods.Has(shortcut.ModControl) {
		parts = append(parts, "control down")
	}
	if len(parts) == 0 {
		return ""
	}
	return " using {" + strings.Join(parts, ", ") + "}"
}

func quoteAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// KeystrokeScript returns the System Events script that types ch with mods.
func KeystrokeScript(ch rune, mods shortcut.ModifierSet) string {
	return fmt.Sprintf(`tell application "System Events" to keystroke %s%s`,
		quoteAppleScript(string(ch)), usingClause(mods))
}

// DialogScript returns the System Events script that opens the screenshot
// toolbar.
func DialogScript() string {
	return fmt.Sprintf(`tell application "System Events" to key code %d%s`,
		dispatch.DialogKeyCode, usingClause(dispatch.DialogModifiers))
}
