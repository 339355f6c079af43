// Package permission models the accessibility grant that input synthesis
// requires. The OS owns the grant and the user may change it at any time,
// so callers query the Gate before every use and never cache the answer.
package permission

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by RequestGrant on platforms without a consent flow.
var ErrUnsupported = errors.New("permission request not supported on this platform")

// Gate reports and requests the input-synthesis grant.
type Gate interface {
	// IsGranted reports the current state. It must query the OS each time.
	IsGranted() bool

	// RequestGrant starts the OS consent flow. It returns before the user
	// answers; poll IsGranted to observe the outcome.
	RequestGrant() error
}

// Func adapts a predicate into a Gate. Request, if non-nil, handles
// RequestGrant.
type Func struct {
	Check   func() bool
	Request func() error
}

// IsGranted calls Check.
func (f Func) IsGranted() bool {
	if f.Check == nil {
		return false
	}
	return f.Check()
}

// RequestGrant calls Request.
func (f Func) RequestGrant() error {
	if f.Request == nil {
		return ErrUnsupported
	}
	return f.Request()
}

// Static is a Gate with a fixed answer.
type Static bool

// IsGranted returns the fixed value.
func (s Static) IsGranted() bool { return bool(s) }

// RequestGrant always returns ErrUnsupported.
func (Static) RequestGrant() error { return ErrUnsupported }

// WaitForGrant polls gate every interval until it is granted or ctx is done.
func WaitForGrant(ctx context.Context, gate Gate, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if gate.IsGranted() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if gate.IsGranted() {
				return nil
			}
		}
	}
}
