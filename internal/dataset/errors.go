package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSheet  = errors.New("sheet not found")
	ErrMissingColumn = errors.New("required column not found")
	ErrMissingHeader = errors.New("header row not found")
	ErrTimeFormat    = errors.New("time must be HH:MM:SS")
)

// LoadError is returned for any failure to produce the table. It is fatal
// to the caller; there is no partial load.
type LoadError struct {
	Op   string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError describes a single cell that could not be converted.
// Row is the 1-based worksheet row.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d column %q: invalid value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
