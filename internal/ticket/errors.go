package ticket

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is by callers that only care about the
// category of a failure.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	// ErrDispatch hides transport details of a failed delivery from callers.
	ErrDispatch = errors.New("ticket could not be sent, try again later")
)

// ValidationError reports bad input or an illegal state transition.  Field
// names the offending input when there is one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Kind string // ticket, event or user
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
