package host

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/keystrike/internal/synth"
)

func TestParseFrontmost(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    synth.App
		wantErr bool
	}{
		{
			name: "full",
			out:  "Safari|com.apple.Safari|412\n",
			want: synth.App{Name: "Safari", BundleID: "com.apple.Safari", PID: 412},
		},
		{
			name: "no bundle id",
			out:  "helper||77",
			want: synth.App{Name: "helper", PID: 77},
		},
		{name: "wrong shape", out: "Safari", wantErr: true},
		{name: "bad pid", out: "Safari|com.apple.Safari|x", wantErr: true},
		{name: "empty", out: "||", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrontmost(tt.out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFrontmost(%q) = %+v, want error", tt.out, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrontmost(%q): %v", tt.out, err)
			}
			if got != tt.want {
				t.Errorf("ParseFrontmost(%q) = %+v, want %+v", tt.out, got, tt.want)
			}
		})
	}
}

func TestActivateScript(t *testing.T) {
	tests := []struct {
		app  synth.App
		want string
	}{
		{synth.App{Name: "Safari", BundleID: "com.apple.Safari"}, `tell application id "com.apple.Safari" to activate`},
		{synth.App{Name: `Odd "Name"`}, `tell application "Odd \"Name\"" to activate`},
		{synth.App{PID: 9}, `tell application "System Events" to set frontmost of (first process whose unix id is 9) to true`},
	}
	for _, tt := range tests {
		got, err := ActivateScript(tt.app)
		if err != nil {
			t.Fatalf("ActivateScript(%+v): %v", tt.app, err)
		}
		if got != tt.want {
			t.Errorf("ActivateScript(%+v) = %s, want %s", tt.app, got, tt.want)
		}
	}

	if _, err := ActivateScript(synth.App{}); err == nil {
		t.Error("expected error for empty app")
	}
}

func TestNewOsascript_DefaultPath(t *testing.T) {
	if got := NewOsascript("").Path; got != DefaultOsascriptPath {
		t.Errorf("Path = %q, want %q", got, DefaultOsascriptPath)
	}
}

func TestScriptError(t *testing.T) {
	base := errors.New("exit status 1")
	err := &ScriptError{Script: "x", Output: "syntax error", Err: base}
	if !errors.Is(err, base) {
		t.Error("ScriptError should unwrap to its cause")
	}
	if got := err.Error(); got != "osascript: exit status 1: syntax error" {
		t.Errorf("Error() = %q", got)
	}
}

func TestOsascript_MissingTool(t *testing.T) {
	o := NewOsascript("/nonexistent/osascript")
	err := o.Run(context.Background(), `return 1`)
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("Run error = %v, want *ScriptError", err)
	}
}
