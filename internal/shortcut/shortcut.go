package shortcut

import "strings"

// Definition is a single named shortcut.
type Definition struct {
	// ID identifies the definition for the lifetime of one catalog.
	// It is assigned at load time and never persisted.
	ID string

	// Description is the human-readable name searched by users.
	Description string

	// Keys is the ordered list of symbolic tokens, e.g. ["COMMAND", "C"].
	Keys []string
}

// Combo renders the keys as "COMMAND+SHIFT+4".
func (d Definition) Combo() string {
	keys := make([]string, 0, len(d.Keys))
	for _, k := range d.Keys {
		keys = append(keys, NormalizeToken(k))
	}
	return strings.Join(keys, "+")
}

// Modifiers returns the modifier set of the definition.
func (d Definition) Modifiers() ModifierSet {
	mods, _ := SplitKeys(d.Keys)
	return mods
}

// Group is a named, ordered list of definitions loaded from one file.
type Group struct {
	// Name is the group name declared in the file.
	Name string

	// Source is the base name of the file the group came from.
	Source string

	// Shortcuts are the group's definitions in file order.
	Shortcuts []Definition
}

// Len returns the number of shortcuts in the group.
func (g Group) Len() int {
	return len(g.Shortcuts)
}

// symbolOrder is the conventional macOS display order of modifiers.
var symbolOrder = []struct {
	mod    ModifierSet
	symbol string
}{
	{ModControl, "⌃"},
	{ModOption, "⌥"},
	{ModShift, "⇧"},
	{ModCommand, "⌘"},
}

var keySymbols = map[string]string{
	"RETURN": "↩", "ENTER": "↩", "TAB": "⇥", "SPACE": "Space",
	"DELETE": "⌫", "FORWARD_DELETE": "⌦", "ESCAPE": "⎋",
	"LEFT": "←", "RIGHT": "→", "UP": "↑", "DOWN": "↓",
	"HOME": "↖", "END": "↘", "PAGE_UP": "⇞", "PAGE_DOWN": "⇟",
}

// Symbols renders the keys the way macOS menus do, e.g. "⇧⌘4 Space".
func (d Definition) Symbols() string {
	mods, rest := SplitKeys(d.Keys)

	var b strings.Builder
	for _, s := range symbolOrder {
		if mods.Has(s.mod) {
			b.WriteString(s.symbol)
		}
	}
	for i, k := range rest {
		if i > 0 {
			b.WriteByte(' ')
		}
		if sym, ok := keySymbols[k]; ok {
			k = sym
		}
		b.WriteString(k)
	}
	return b.String()
}
