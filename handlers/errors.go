package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"

	"eventa/services"
	"eventa/store"
)

// apiError maps service failures onto HTTP error responses. Remote
// errors fall through with their message largely intact.
func apiError(err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return apis.NewUnauthorizedError("Not authenticated", err)
	case errors.Is(err, store.ErrInvalidCredentials):
		return apis.NewUnauthorizedError("Invalid email or password", err)
	case errors.Is(err, store.ErrNotFound):
		return apis.NewNotFoundError("Record not found", err)
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return apis.NewBadRequestError(validationErr.Message, err)
	}

	var remoteErr *store.RemoteError
	if errors.As(err, &remoteErr) {
		return apis.NewBadRequestError(remoteErr.Error(), err)
	}

	return apis.NewBadRequestError(fallback, err)
}
