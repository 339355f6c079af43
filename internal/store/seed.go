package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// File and directory permissions for files the store creates.
const (
	DirPermissions  = 0o755
	FilePermissions = 0o644
)

// SeedFileName is the name of the default group written on first run.
const SeedFileName = "default.json"

// seedGroup is the bundled first-run content.
var seedGroup = document{
	Name: "General",
	Shortcuts: []entry{
		{Description: "Copy", Keys: []string{"COMMAND", "C"}},
		{Description: "Paste", Keys: []string{"COMMAND", "V"}},
		{Description: "Cut", Keys: []string{"COMMAND", "X"}},
		{Description: "Select All", Keys: []string{"COMMAND", "A"}},
		{Description: "Undo", Keys: []string{"COMMAND", "Z"}},
		{Description: "Redo", Keys: []string{"COMMAND", "SHIFT", "Z"}},
		{Description: "Screenshot Full Screen", Keys: []string{"COMMAND", "SHIFT", "3"}},
		{Description: "Screenshot Selected Area", Keys: []string{"COMMAND", "SHIFT", "4"}},
		{Description: "Screenshot Window", Keys: []string{"COMMAND", "SHIFT", "4", "SPACE"}},
		{Description: "Screenshot Options", Keys: []string{"COMMAND", "SHIFT", "5"}},
		{Description: "Screenshot Touch Bar", Keys: []string{"COMMAND", "SHIFT", "6"}},
	},
}

// SeedJSON renders the bundled default group as indented JSON.
func SeedJSON() ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "name", seedGroup.Name)
	if err != nil {
		return nil, err
	}
	out, err = sjson.SetRawBytes(out, "shortcuts", []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for _, e := range seedGroup.Shortcuts {
		item, err := sjson.SetBytes([]byte(`{}`), "description", e.Description)
		if err != nil {
			return nil, err
		}
		item, err = sjson.SetBytes(item, "keys", e.Keys)
		if err != nil {
			return nil, err
		}
		out, err = sjson.SetRawBytes(out, "shortcuts.-1", item)
		if err != nil {
			return nil, err
		}
	}
	return pretty.PrettyOptions(out, &pretty.Options{Width: 80, Indent: "  "}), nil
}

// EnsureSeedFile creates dir if needed and, when it holds no definition
// files matching patterns, writes the default group. It is idempotent.
// The returned bool reports whether a file was written.
func EnsureSeedFile(dir string, patterns []string) (bool, error) {
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return false, &IOError{Op: "create directory", Path: dir, Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, &IOError{Op: "read directory", Path: dir, Err: err}
	}
	for _, e := range entries {
		if isDefinitionFile(dir, e, patterns) {
			return false, nil
		}
	}

	data, err := SeedJSON()
	if err != nil {
		return false, fmt.Errorf("render seed: %w", err)
	}

	path := filepath.Join(dir, SeedFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FilePermissions)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, &IOError{Op: "write seed", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return false, &IOError{Op: "write seed", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return false, &IOError{Op: "write seed", Path: path, Err: err}
	}
	return true, nil
}

// isDefinitionFile reports whether a directory entry is a definition file.
// Symlinks are followed and must resolve to a regular file.
func isDefinitionFile(dir string, e fs.DirEntry, patterns []string) bool {
	if !matchesAny(e.Name(), patterns) {
		return false
	}
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && info.Mode().IsRegular()
}

// matchesAny reports whether a base name matches one of the glob patterns.
// Hidden files never match.
func matchesAny(name string, patterns []string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	for _, p := range patterns {
		if match.Match(name, p) {
			return true
		}
	}
	return false
}
