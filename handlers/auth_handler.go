package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventa/services"
)

type AuthHandler struct {
	app  *pocketbase.PocketBase
	auth *services.AuthService
}

func NewAuthHandler(app *pocketbase.PocketBase, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{app: app, auth: auth}
}

// SignUp registers a user and returns an auth token response.
func (h *AuthHandler) SignUp(e *core.RequestEvent) error {
	var req services.SignUpRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	user, err := h.auth.SignUp(e.Request.Context(), req)
	if err != nil {
		return apiError(err, "Failed to sign up")
	}

	record, err := h.app.FindRecordById("users", user.ID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load user", err)
	}

	return apis.RecordAuthResponse(e, record, "password", nil)
}

// SignIn verifies credentials and returns an auth token response.
func (h *AuthHandler) SignIn(e *core.RequestEvent) error {
	var req services.SignInRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	user, err := h.auth.SignIn(e.Request.Context(), req)
	if err != nil {
		return apiError(err, "Failed to sign in")
	}

	record, err := h.app.FindRecordById("users", user.ID)
	if err != nil {
		return apis.NewBadRequestError("Failed to load user", err)
	}

	return apis.RecordAuthResponse(e, record, "password", nil)
}

// SignOut only logs; the token is discarded client-side.
func (h *AuthHandler) SignOut(e *core.RequestEvent) error {
	if e.Auth != nil {
		h.auth.SignOut(e.Request.Context(), e.Auth.Id)
	}
	return e.NoContent(http.StatusNoContent)
}

// UpdateProfile applies the mutable profile fields of the current user.
func (h *AuthHandler) UpdateProfile(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	var req struct {
		Name       string `json:"name"`
		ProfilePic string `json:"profile_pic"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	user, err := h.auth.UpdateProfile(e.Request.Context(), e.Auth.Id, req.Name, req.ProfilePic)
	if err != nil {
		return apiError(err, "Failed to update profile")
	}

	return e.JSON(http.StatusOK, user)
}
