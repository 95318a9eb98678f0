package controller

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
)

func TestAuthController_Register_Success(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Email:           "owner@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Test Owner",
		BusinessName:    "Pasta GmbH",
	}, "")

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "User registered successfully", response["message"])
	assert.NotNil(t, response["user"])
	assert.NotNil(t, response["tokens"])
	assert.NotContains(t, w.Body.String(), "password_hash")

	// the welcome mail is sent during registration
	assert.Equal(t, 1, env.mailer.count())
}

func TestAuthController_Register_Validation(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{
			name:  "invalid email",
			req:   RegisterRequest{Email: "invalid-email", Password: testPassword, ConfirmPassword: testPassword, FullName: "A"},
			field: "email",
		},
		{
			name:  "short password",
			req:   RegisterRequest{Email: "a@example.com", Password: "short", ConfirmPassword: "short", FullName: "A"},
			field: "password",
		},
		{
			name:  "multibyte password past the bcrypt limit",
			req:   RegisterRequest{Email: "a@example.com", Password: strings.Repeat("비", 30), ConfirmPassword: strings.Repeat("비", 30), FullName: "A"},
			field: "password",
		},
		{
			name:  "mismatched confirmation",
			req:   RegisterRequest{Email: "a@example.com", Password: testPassword, ConfirmPassword: "password124", FullName: "A"},
			field: "confirm_password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/auth/register", tt.req, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeError(t, w)
			assert.Equal(t, apperrors.ValidationInvalidInput, body["error"])
			fields, ok := body["fields"].(map[string]interface{})
			require.True(t, ok, w.Body.String())
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	env := newAPIEnv(t)
	env.registerOwner(t, "owner@example.com")

	w := env.do(http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Email:           "Owner@Example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Someone Else",
	}, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.AuthEmailAlreadyExists, decodeError(t, w)["error"])
}

func TestAuthController_Login(t *testing.T) {
	env := newAPIEnv(t)
	env.registerOwner(t, "owner@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{
			Email:    "owner@example.com",
			Password: testPassword,
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Login successful", response["message"])
		assert.NotNil(t, response["tokens"])
	})

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{
			Email:    "owner@example.com",
			Password: "wrongpassword",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.AuthInvalidCredentials, decodeError(t, w)["error"])
	})

	t.Run("unknown email", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: testPassword,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthController_GetMe(t *testing.T) {
	env := newAPIEnv(t)
	token := env.registerOwner(t, "owner@example.com")

	w := env.do(http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "owner@example.com")

	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_RefreshToken_Invalid(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: "garbage"}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenInvalid, decodeError(t, w)["error"])
}

func TestAuthController_ForgotPassword(t *testing.T) {
	env := newAPIEnv(t)
	env.registerOwner(t, "owner@example.com")
	sentAfterSignup := env.mailer.count()

	w := env.do(http.MethodPost, "/api/v1/auth/forgot-password", ForgotPasswordRequest{Email: "owner@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sentAfterSignup+1, env.mailer.count())

	// unknown addresses get the same answer and no mail
	w = env.do(http.MethodPost, "/api/v1/auth/forgot-password", ForgotPasswordRequest{Email: "nobody@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sentAfterSignup+1, env.mailer.count())
}

func TestAuthController_ResetToken_Invalid(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodGet, "/api/v1/auth/reset-password/validate?token=missing", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.AuthResetTokenInvalid, decodeError(t, w)["error"])

	w = env.do(http.MethodGet, "/api/v1/auth/reset-password/validate", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/reset-password", ResetPasswordRequest{
		Token:           "missing",
		NewPassword:     "newpassword123",
		ConfirmPassword: "newpassword123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.AuthResetTokenInvalid, decodeError(t, w)["error"])
}

func TestAuthController_Logout(t *testing.T) {
	env := newAPIEnv(t)
	env.registerOwner(t, "owner@example.com")

	login := func() (string, string) {
		w := env.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Email: "owner@example.com", Password: testPassword}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Tokens.AccessToken, resp.Tokens.RefreshToken
	}

	access, refresh := login()

	w := env.do(http.MethodPost, "/api/v1/auth/logout", LogoutRequest{RefreshToken: refresh}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenRevoked, decodeError(t, w)["error"])

	w = env.do(http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenInvalid, decodeError(t, w)["error"])

	// a body-less logout still ends the access token
	access, refresh = login()
	w = env.do(http.MethodPost, "/api/v1/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a refresh token from another account is refused
	other := env.registerOwner(t, "other@example.com")
	w = env.do(http.MethodPost, "/api/v1/auth/logout", LogoutRequest{RefreshToken: refresh}, other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, other)
	assert.Equal(t, http.StatusOK, w.Code)
}
