package synth

import "errors"

// ErrPermissionDenied is returned when the input-synthesis grant is missing.
// No input has been sent when it is returned.
var ErrPermissionDenied = errors.New("accessibility permission not granted")
