//go:build !darwin || !cgo

package host

import (
	"github.com/dshills/keystrike/internal/dispatch"
)

// EventPoster is unavailable without darwin and cgo.
type EventPoster struct{}

// NewEventPoster returns a poster that always fails.
func NewEventPoster() *EventPoster {
	return &EventPoster{}
}

// Post returns ErrUnsupported.
func (EventPoster) Post(code dispatch.KeyCode, down bool, flags dispatch.Flags) error {
	return ErrUnsupported
}

// AccessibilityGate is never granted without darwin and cgo.
type AccessibilityGate struct{}

// NewAccessibilityGate returns a gate that is never granted.
func NewAccessibilityGate() *AccessibilityGate {
	return &AccessibilityGate{}
}

// IsGranted returns false.
func (AccessibilityGate) IsGranted() bool { return false }

// RequestGrant returns ErrUnsupported.
func (AccessibilityGate) RequestGrant() error { return ErrUnsupported }
