// Package host provides the macOS side effects the synthesizer drives:
// osascript for scripts and focus, a detached process launcher for the
// screenshot utility, CGEvent posting for raw key events, and the
// accessibility permission gate.
//
// Raw posting and the accessibility gate need darwin with cgo. Other builds
// get stand-ins that report ErrUnsupported and a gate that is never granted,
// so the rest of keystrike still builds and runs everywhere.
package host
