package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDocument marks a document that could not be read as a
	// settings tree: undecodable bytes, a non-object root or an empty root.
	ErrMalformedDocument = errors.New("settings: malformed document")
	// ErrDepthExceeded marks input nested deeper than the configured limit.
	ErrDepthExceeded = errors.New("settings: nesting depth exceeded")
	// ErrNotBound indicates a file operation on settings that have no path.
	ErrNotBound = errors.New("settings: not bound to a document")
)

// DecodeError captures the format and source alongside the decode failure.
type DecodeError struct {
	Format string
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source == "" {
		return fmt.Sprintf("settings: decode %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("settings: decode %s %q: %v", e.Format, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedDocument) match every decode failure.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedDocument
}
