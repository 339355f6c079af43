package store

import (
	"errors"
	"fmt"
)

// ErrMissingField marks a definition file that lacks a required field.
var ErrMissingField = errors.New("missing required field")

// ParseError describes a definition file that could not be parsed.
// The file is skipped; sibling files still load.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// missing builds a ParseError for an absent required field.
func missing(path, field string) *ParseError {
	return &ParseError{
		Path:    path,
		Message: fmt.Sprintf("%s: %s", ErrMissingField, field),
		Err:     ErrMissingField,
	}
}

// IOError describes a failure to read or create the definitions directory
// or one of its files.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Problem is a non-fatal issue found while loading a file.
type Problem struct {
	// Source is the file base name.
	Source string
	// Err is a *ParseError, *IOError or *dispatch.UnknownKeyTokenError.
	Err error
	// Skipped is true when the whole file was left out of the catalog.
	Skipped bool
}

func (p Problem) String() string {
	if p.Skipped {
		return fmt.Sprintf("%s: skipped: %v", p.Source, p.Err)
	}
	return fmt.Sprintf("%s: %v", p.Source, p.Err)
}
