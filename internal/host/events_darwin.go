//go:build darwin && cgo

package host

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static int keystrike_post_key(CGKeyCode code, bool down, CGEventFlags flags) {
	CGEventRef ev = CGEventCreateKeyboardEvent(NULL, code, down);
	if (ev == NULL) {
		return -1;
	}
	CGEventSetFlags(ev, flags);
	CGEventPost(kCGHIDEventTap, ev);
	CFRelease(ev);
	return 0;
}

static bool keystrike_is_trusted(bool prompt) {
	if (!prompt) {
		return AXIsProcessTrusted();
	}
	const void *keys[] = { kAXTrustedCheckOptionPrompt };
	const void *values[] = { kCFBooleanTrue };
	CFDictionaryRef opts = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	bool trusted = AXIsProcessTrustedWithOptions(opts);
	CFRelease(opts);
	return trusted;
}
*/
import "C"

import (
	"fmt"

	"github.com/dshills/keystrike/internal/dispatch"
)

// EventPoster posts keyboard events to the HID event tap.
type EventPoster struct{}

// NewEventPoster returns the CGEvent poster.
func NewEventPoster() *EventPoster {
	return &EventPoster{}
}

// Post injects one key event carrying flags.
func (EventPoster) Post(code dispatch.KeyCode, down bool, flags dispatch.Flags) error {
	if C.keystrike_post_key(C.CGKeyCode(code), C.bool(down), C.CGEventFlags(flags)) != 0 {
		return fmt.Errorf("host: create keyboard event 0x%02X failed", uint16(code))
	}
	return nil
}

// AccessibilityGate reports the process accessibility trust.
type AccessibilityGate struct{}

// NewAccessibilityGate returns the macOS accessibility gate.
func NewAccessibilityGate() *AccessibilityGate {
	return &AccessibilityGate{}
}

// IsGranted asks the OS on every call.
func (AccessibilityGate) IsGranted() bool {
	return bool(C.keystrike_is_trusted(C.bool(false)))
}

// RequestGrant shows the system prompt that leads to Privacy settings.
// It returns immediately; the grant arrives later, if at all.
func (AccessibilityGate) RequestGrant() error {
	C.keystrike_is_trusted(C.bool(true))
	return nil
}
