package services

import (
	"context"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"eventa/models"
	"eventa/store"
)

// AuthService wraps the provider's session lifecycle and the user
// profile rows. All form checks run before any remote call.
type AuthService struct {
	store store.Store
	log   *slog.Logger
}

func NewAuthService(st store.Store, log *slog.Logger) *AuthService {
	return &AuthService{store: st, log: log}
}

type SignUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
}

func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
		validation.Field(&r.PasswordConfirm, validation.Required, validation.By(func(any) error {
			if r.PasswordConfirm != r.Password {
				return errors.New("must match password")
			}
			return nil
		})),
		validation.Field(&r.Role, validation.In("", models.RoleVoter, models.RoleOrganizer)),
	)
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignUp registers a user and creates the profile in one step.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (models.User, error) {
	if err := req.Validate(); err != nil {
		return models.User{}, &ValidationError{Message: err.Error()}
	}

	role := req.Role
	if role == "" {
		role = models.RoleVoter
	}

	row, err := s.store.Auth().SignUp(ctx, req.Email, req.Password, store.Row{
		"name":   req.Name,
		"role":   role,
		"status": "active",
	})
	if err != nil {
		return models.User{}, err
	}

	user := models.UserFromRow(row)
	s.log.Info("user signed up", "user", user.ID, "role", role)
	return user, nil
}

// SignIn verifies credentials and returns the user.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (models.User, error) {
	if err := req.Validate(); err != nil {
		return models.User{}, &ValidationError{Message: err.Error()}
	}

	row, err := s.store.Auth().SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return models.User{}, err
	}
	return models.UserFromRow(row), nil
}

// SignOut has no server-side session to destroy; token discard happens
// on the client. Kept as an explicit operation so cleanup failures stay
// observable.
func (s *AuthService) SignOut(_ context.Context, userID string) {
	s.log.Info("user signed out", "user", userID)
}

// UpdateProfile applies the mutable profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, profilePic string) (models.User, error) {
	if userID == "" {
		return models.User{}, ErrNotAuthenticated
	}

	fields := store.Row{}
	if name != "" {
		fields["name"] = name
	}
	if profilePic != "" {
		fields["profile_pic"] = profilePic
	}
	if len(fields) == 0 {
		return models.User{}, Validationf("nothing to update")
	}

	row, err := s.store.Update(ctx, "users", userID, fields)
	if err != nil {
		return models.User{}, err
	}
	return models.UserFromRow(row), nil
}
