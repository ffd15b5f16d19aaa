package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials means sign-in failed verification.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RemoteError wraps any failure surfaced by the data service; the
// provider message is passed through largely verbatim.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remoteErr(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}
