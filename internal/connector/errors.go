package connector

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by operations that require a logged-in
// session on a connector with real authentication.
var ErrNotAuthenticated = errors.New("not authenticated")

// NotFoundError reports a missing website, asset or other resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Resource)
}

// NewNotFound creates a NotFoundError for the given resource description.
func NewNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Resource: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidInputError reports malformed or unacceptable caller input.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// NewInvalidInput creates an InvalidInputError with the given reason.
func NewInvalidInput(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err is, or wraps, an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
