package services

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when an action requires an active
// session and none is present.
var ErrNotAuthenticated = errors.New("user not authenticated")

// ValidationError covers client-side checks that fail before any remote
// call is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
