package workspace

import "fmt"

// ParseError is returned when a workspace file cannot be read or decoded.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse workspace: %v", e.Err)
	}
	return fmt.Sprintf("parse workspace %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
