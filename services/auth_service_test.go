package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventa/store"
)

func validSignUp() SignUpRequest {
	return SignUpRequest{
		Name:            "Noy",
		Email:           "noy@example.com",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	}
}

func TestSignUpValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignUpRequest)
	}{
		{"missing name", func(r *SignUpRequest) { r.Name = "" }},
		{"missing email", func(r *SignUpRequest) { r.Email = "" }},
		{"malformed email", func(r *SignUpRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *SignUpRequest) { r.Password = "12345"; r.PasswordConfirm = "12345" }},
		{"confirmation mismatch", func(r *SignUpRequest) { r.PasswordConfirm = "different" }},
		{"unknown role", func(r *SignUpRequest) { r.Role = "admin" }},
	}

	svc := NewAuthService(store.NewMockStore(), discardLogger())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignUp()
			tt.mutate(&req)

			_, err := svc.SignUp(context.Background(), req)

			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSignUpDefaultsRoleToVoter(t *testing.T) {
	mock := store.NewMockStore()
	var profile store.Row
	mock.SignUpFunc = func(email, password string, p store.Row) (store.Row, error) {
		profile = p
		return store.Row{"id": "u1", "email": email, "name": p["name"], "role": p["role"]}, nil
	}

	svc := NewAuthService(mock, discardLogger())

	user, err := svc.SignUp(context.Background(), validSignUp())
	require.NoError(t, err)

	assert.Equal(t, "voter", profile["role"])
	assert.Equal(t, "active", profile["status"])
	assert.Equal(t, "u1", user.ID)
}

func TestSignInInvalidCredentials(t *testing.T) {
	svc := NewAuthService(store.NewMockStore(), discardLogger())

	_, err := svc.SignIn(context.Background(), SignInRequest{
		Email:    "noy@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, store.ErrInvalidCredentials)
}

func TestSignInValidatesBeforeRemoteCall(t *testing.T) {
	called := false
	mock := store.NewMockStore()
	mock.SignInFunc = func(email, password string) (store.Row, error) {
		called = true
		return nil, nil
	}

	svc := NewAuthService(mock, discardLogger())

	_, err := svc.SignIn(context.Background(), SignInRequest{Email: "bad"})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.False(t, called)
}

func TestUpdateProfile(t *testing.T) {
	mock := store.NewMockStore()
	mock.UpdateFunc = func(table, id string, fields store.Row) (store.Row, error) {
		row := store.Row{"id": id}
		for k, v := range fields {
			row[k] = v
		}
		return row, nil
	}

	svc := NewAuthService(mock, discardLogger())

	user, err := svc.UpdateProfile(context.Background(), "u1", "New Name", "")
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.Name)

	require.Len(t, mock.UpdateCalls, 1)
	_, hasPic := mock.UpdateCalls[0].Fields["profile_pic"]
	assert.False(t, hasPic, "empty fields are not written")
}

func TestUpdateProfileRequiresAuth(t *testing.T) {
	svc := NewAuthService(store.NewMockStore(), discardLogger())

	_, err := svc.UpdateProfile(context.Background(), "", "name", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpdateProfileNothingToUpdate(t *testing.T) {
	svc := NewAuthService(store.NewMockStore(), discardLogger())

	_, err := svc.UpdateProfile(context.Background(), "u1", "", "")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
