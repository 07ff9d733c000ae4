package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherplan/internal/delivery/http/helpers"
	"gatherplan/internal/domain"
)

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	signUpResult *domain.User
	signUpErr    error
	lastEmail    string

	loginToken string
	loginErr   error
}

func (f *fakeAuthService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	f.lastEmail = email
	return f.signUpResult, f.signUpErr
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	f.lastEmail = email
	return f.loginToken, f.loginErr
}

func TestAuthController_SignUp(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		serviceErr     error
		wantStatus     int
		wantErrCode    string
		wantBodySubstr string
	}{
		{
			name:       "success",
			body:       `{"email":"Alice@Example.com","password":"supersecret","name":"Alice"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "invalid email",
			body:           `{"email":"not-an-email","password":"supersecret","name":"Alice"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid email format",
		},
		{
			name:           "short password",
			body:           `{"email":"alice@example.com","password":"short","name":"Alice"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "password must be at least 8 characters",
		},
		{
			name:        "duplicate email",
			body:        `{"email":"alice@example.com","password":"supersecret","name":"Alice"}`,
			serviceErr:  domain.ErrDuplicateEmail,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeConflict,
		},
		{
			name:        "service error",
			body:        `{"email":"alice@example.com","password":"supersecret","name":"Alice"}`,
			serviceErr:  errors.New("db down"),
			wantStatus:  http.StatusInternalServerError,
			wantErrCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthService{
				signUpResult: &domain.User{ID: "user-1", Email: "alice@example.com", Name: "Alice"},
				signUpErr:    tt.serviceErr,
			}
			ctrl := NewAuthController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			ctrl.SignUp(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				var user domain.User
				decodeData(t, envelope, &user)
				assert.Equal(t, "user-1", user.ID)
				assert.Equal(t, "alice@example.com", fake.lastEmail, "email is lowercased before the service sees it")
				return
			}
			require.NotNil(t, envelope.Error)
			if tt.wantErrCode != "" {
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
			if tt.wantBodySubstr != "" {
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeAuthService{loginToken: "signed.jwt.token"}
		ctrl := NewAuthController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"Alice@Example.com","password":"supersecret"}`))
		rr := httptest.NewRecorder()
		ctrl.Login(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp LoginResponse
		decodeData(t, decodeEnvelope(t, rr), &resp)
		assert.Equal(t, "signed.jwt.token", resp.Token)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "alice@example.com", fake.lastEmail)
	})

	t.Run("bad credentials are a generic 401", func(t *testing.T) {
		fake := &fakeAuthService{loginErr: errors.New("invalid credentials")}
		ctrl := NewAuthController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"alice@example.com","password":"wrongpass"}`))
		rr := httptest.NewRecorder()
		ctrl.Login(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, "invalid credentials", envelope.Error.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		ctrl := NewAuthController(testLogger, &fakeAuthService{})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"alice@example.com"}`))
		rr := httptest.NewRecorder()
		ctrl.Login(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Contains(t, envelope.Error.Message, "password is required")
	})
}
