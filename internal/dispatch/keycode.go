package dispatch

import "github.com/dshills/keystrike/internal/shortcut"

// KeyCode is a macOS virtual key code as accepted by CGEventCreateKeyboardEvent.
type KeyCode uint16

// Flags is a CGEventFlags mask describing held modifiers.
type Flags uint64

// Modifier flag masks (kCGEventFlagMask*).
const (
	FlagShift   Flags = 1 << 17
	FlagControl Flags = 1 << 18
	FlagOption  Flags = 1 << 19
	FlagCommand Flags = 1 << 20
)

// Modifier key codes.
const (
	KeyCodeCommand KeyCode = 0x37
	KeyCodeShift   KeyCode = 0x38
	KeyCodeOption  KeyCode = 0x3A
	KeyCodeControl KeyCode = 0x3B
)

// modifierCodes maps each modifier to its physical key code.
var modifierCodes = map[shortcut.ModifierSet]KeyCode{
	shortcut.ModCommand: KeyCodeCommand,
	shortcut.ModShift:   KeyCodeShift,
	shortcut.ModOption:  KeyCodeOption,
	shortcut.ModControl: KeyCodeControl,
}

// modifierFlags maps modifier key codes to their flag masks.
var modifierFlags = map[KeyCode]Flags{
	KeyCodeCommand: FlagCommand,
	KeyCodeShift:   FlagShift,
	KeyCodeOption:  FlagOption,
	KeyCodeControl: FlagControl,
}

// keyCodes maps key tokens to physical key codes (ANSI layout).
var keyCodes = map[string]KeyCode{
	"A": 0x00, "S": 0x01, "D": 0x02, "F": 0x03, "H": 0x04, "G": 0x05,
	"Z": 0x06, "X": 0x07, "C": 0x08, "V": 0x09, "B": 0x0B, "Q": 0x0C,
	"W": 0x0D, "E": 0x0E, "R": 0x0F, "Y": 0x10, "T": 0x11, "O": 0x1F,
	"U": 0x20, "I": 0x22, "P": 0x23, "L": 0x25, "J": 0x26, "K": 0x28,
	"N": 0x2D, "M": 0x2E,

	"1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15, "5": 0x17,
	"6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19, "0": 0x1D,

	"EQUAL": 0x18, "MINUS": 0x1B, "RIGHT_BRACKET": 0x1E, "LEFT_BRACKET": 0x21,
	"QUOTE": 0x27, "SEMICOLON": 0x29, "BACKSLASH": 0x2A, "COMMA": 0x2B,
	"SLASH": 0x2C, "PERIOD": 0x2F, "GRAVE": 0x32,

	"RETURN": 0x24, "ENTER": 0x24, "TAB": 0x30, "SPACE": 0x31,
	"DELETE": 0x33, "ESCAPE": 0x35, "FORWARD_DELETE": 0x75,
	"HOME": 0x73, "END": 0x77, "PAGE_UP": 0x74, "PAGE_DOWN": 0x79,
	"LEFT": 0x7B, "RIGHT": 0x7C, "DOWN": 0x7D, "UP": 0x7E,

	"F1": 0x7A, "F2": 0x78, "F3": 0x63, "F4": 0x76, "F5": 0x60, "F6": 0x61,
	"F7": 0x62, "F8": 0x64, "F9": 0x65, "F10": 0x6D, "F11": 0x67, "F12": 0x6F,
}

// punctuationNames maps literal punctuation to its token name.
var punctuationNames = map[string]string{
	"-": "MINUS", "=": "EQUAL", "[": "LEFT_BRACKET", "]": "RIGHT_BRACKET",
	";": "SEMICOLON", "'": "QUOTE", ",": "COMMA", ".": "PERIOD",
	"/": "SLASH", "\\": "BACKSLASH", "`": "GRAVE",
}

// textChars maps the tokens eligible for scripted keystrokes to the
// character that is typed. Letters and digits are added in init.
var textChars = map[string]rune{
	"MINUS": '-', "EQUAL": '=', "LEFT_BRACKET": '[', "RIGHT_BRACKET": ']',
	"SEMICOLON": ';', "QUOTE": '\'', "COMMA": ',', "PERIOD": '.',
	"SLASH": '/', "BACKSLASH": '\\', "GRAVE": '`',
}

func init() {
	for r := 'A'; r <= 'Z'; r++ {
		textChars[string(r)] = r - 'A' + 'a'
	}
	for r := '0'; r <= '9'; r++ {
		textChars[string(r)] = r
	}
}

// canonicalKey normalizes a key token, folding literal punctuation into
// its name so both spellings share table entries.
func canonicalKey(token string) string {
	token = shortcut.NormalizeToken(token)
	if name, ok := punctuationNames[token]; ok {
		return name
	}
	return token
}

// LookupKeyCode returns the physical code for a key or modifier token.
func LookupKeyCode(token string) (KeyCode, bool) {
	if mod, ok := shortcut.ModifierFromToken(token); ok {
		return modifierCodes[mod], true
	}
	code, ok := keyCodes[canonicalKey(token)]
	return code, ok
}

// IsKnownToken reports whether token is a modifier or a key in the code table.
func IsKnownToken(token string) bool {
	_, ok := LookupKeyCode(token)
	return ok
}

// FlagFor returns the flag mask for a modifier key code, or zero.
func FlagFor(code KeyCode) Flags {
	return modifierFlags[code]
}

// ModifierFlags returns the combined flag mask for the given modifier codes.
func ModifierFlags(codes []KeyCode) Flags {
	var f Flags
	for _, c := range codes {
		f |= modifierFlags[c]
	}
	return f
}
