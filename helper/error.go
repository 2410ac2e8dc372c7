package helper

import "fmt"

// Error wraps an underlying error with the operation that failed
type Error struct {
	Op  string
	Err error
}

// NewError creates a new wrapped error for the given operation
func NewError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As
func (e *Error) Unwrap() error {
	return e.Err
}
