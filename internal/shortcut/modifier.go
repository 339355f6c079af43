package shortcut

import "strings"

// Modifier token names as they appear in definition files.
const (
	TokenCommand = "COMMAND"
	TokenShift   = "SHIFT"
	TokenOption  = "OPTION"
	TokenControl = "CONTROL"
)

// ModifierSet is a set of modifier keys.
type ModifierSet uint8

const (
	// ModNone indicates no modifiers.
	ModNone ModifierSet = 0

	// ModCommand indicates the Command key.
	ModCommand ModifierSet = 1 << iota

	// ModShift indicates the Shift key.
	ModShift

	// ModOption indicates the Option key.
	ModOption

	// ModControl indicates the Control key.
	ModControl
)

// modifierOrder is the canonical display and scripting order.
var modifierOrder = []ModifierSet{ModCommand, ModShift, ModOption, ModControl}

var modifierTokens = map[string]ModifierSet{
	TokenCommand: ModCommand,
	TokenShift:   ModShift,
	TokenOption:  ModOption,
	TokenControl: ModControl,
}

// ModifierFromToken returns the modifier for a token (case-insensitive).
// The second return value is false for key tokens.
func ModifierFromToken(token string) (ModifierSet, bool) {
	m, ok := modifierTokens[NormalizeToken(token)]
	return m, ok
}

// Has returns true if m contains every modifier in mod.
func (m ModifierSet) Has(mod ModifierSet) bool {
	return m&mod == mod
}

// With returns a new set with mod added.
func (m ModifierSet) With(mod ModifierSet) ModifierSet {
	return m | mod
}

// IsEmpty returns true if no modifiers are set.
func (m ModifierSet) IsEmpty() bool {
	return m == ModNone
}

// Len returns the number of modifiers in the set.
func (m ModifierSet) Len() int {
	n := 0
	for _, mod := range modifierOrder {
		if m.Has(mod) {
			n++
		}
	}
	return n
}

// Tokens returns the modifier token names in canonical order.
func (m ModifierSet) Tokens() []string {
	var out []string
	for _, mod := range modifierOrder {
		if m.Has(mod) {
			out = append(out, mod.token())
		}
	}
	return out
}

// String returns a representation like "COMMAND+SHIFT".
func (m ModifierSet) String() string {
	return strings.Join(m.Tokens(), "+")
}

func (m ModifierSet) token() string {
	switch m {
	case ModCommand:
		return TokenCommand
	case ModShift:
		return TokenShift
	case ModOption:
		return TokenOption
	case ModControl:
		return TokenControl
	default:
		return ""
	}
}

// SplitKeys separates a token list into its modifier set and the ordered
// non-modifier tokens. Tokens are normalized; empty tokens are skipped.
func SplitKeys(keys []string) (ModifierSet, []string) {
	var mods ModifierSet
	var rest []string
	for _, k := range keys {
		k = NormalizeToken(k)
		if k == "" {
			continue
		}
		if m, ok := modifierTokens[k]; ok {
			mods = mods.With(m)
			continue
		}
		rest = append(rest, k)
	}
	return mods, rest
}

// NormalizeToken trims and upper-cases a token.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}
