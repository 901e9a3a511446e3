package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sitside-api/internal/middleware"
	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

type fakeAuthSrv struct {
	res      *models.AuthResponse
	user     *models.User
	err      error
	register models.RegisterRequest
	login    models.LoginRequest
}

func (f *fakeAuthSrv) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.register = req
	return f.res, f.err
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.login = req
	return f.res, f.err
}

func (f *fakeAuthSrv) Me(_ context.Context, _ string) (*models.User, error) {
	return f.user, f.err
}

type fakeProfiles struct {
	userID string
	req    models.UpdateProfileRequest
}

func (f *fakeProfiles) UpdateProfile(_ context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	f.userID, f.req = userID, req
	return &models.User{ID: userID, FirstName: *req.FirstName}, nil
}

func TestAuthHandlerRegister(t *testing.T) {
	srv := &fakeAuthSrv{res: &models.AuthResponse{Token: "tok", ExpiresIn: 3600, User: &models.User{ID: "u1", Email: "sam@example.com"}}}
	h := NewAuthHandler(srv, &fakeProfiles{})

	c, rec := authedContext(http.MethodPost, "/auth/register", map[string]interface{}{
		"email": "sam@example.com", "password": "secret1", "firstName": "Sam", "lastName": "Lee",
		"phone": "555-0101", "userType": "student", "hourlyRate": 18.5,
	}, "")
	c.Request.Header.Set("User-Agent", "jest")
	h.Register(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, 3600.0, body["expiresIn"])
	assert.Equal(t, models.RoleStudent, srv.register.Role)
	require.NotNil(t, srv.register.HourlyRate)
	assert.Equal(t, 18.5, *srv.register.HourlyRate)
	assert.Equal(t, "jest", srv.register.UserAgent)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	srv := &fakeAuthSrv{err: appErrors.ErrInvalidCredentials}
	h := NewAuthHandler(srv, &fakeProfiles{})

	c, rec := authedContext(http.MethodPost, "/auth/login", map[string]string{"email": "x@example.com", "password": "nope"}, "")
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
	assert.Equal(t, "x@example.com", srv.login.Email)
}

func TestAuthHandlerMeUsesClaims(t *testing.T) {
	srv := &fakeAuthSrv{user: &models.User{ID: "u-parent", Email: "parent@example.com"}}
	h := NewAuthHandler(srv, &fakeProfiles{})

	c, rec := authedContext(http.MethodGet, "/auth/me", nil, models.RoleParent)
	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "parent@example.com", user["email"])
}

func TestAuthHandlerMeNotFound(t *testing.T) {
	srv := &fakeAuthSrv{err: appErrors.Clone(appErrors.ErrNotFound, "user not found")}
	h := NewAuthHandler(srv, &fakeProfiles{})

	c, rec := authedContext(http.MethodGet, "/auth/me", nil, models.RoleParent)
	h.Me(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthHandlerUpdateProfile(t *testing.T) {
	profiles := &fakeProfiles{}
	h := NewAuthHandler(&fakeAuthSrv{}, profiles)

	c, rec := authedContext(http.MethodPut, "/auth/profile", map[string]string{"firstName": "Samantha"}, models.RoleStudent)
	h.UpdateProfile(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-student", profiles.userID)
	assert.Equal(t, "Profile updated successfully", decodeBody(t, rec)["message"])
}

func TestAuthHandlerVerify(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{}, &fakeProfiles{})

	c, rec := authedContext(http.MethodGet, "/auth/verify", nil, models.RoleStudent)
	c.Set(middleware.ContextAccountKey, &models.User{ID: "u-student", FirstName: "Sam", LastName: "Lee"})
	h.Verify(c)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "student", user["userType"])
	assert.Equal(t, "Sam", user["firstName"])
}

func TestAuthHandlerUnexpectedErrorIsRecorded(t *testing.T) {
	srv := &fakeAuthSrv{err: errors.New("db down")}
	h := NewAuthHandler(srv, &fakeProfiles{})

	c, rec := authedContext(http.MethodPost, "/auth/login", map[string]string{"email": "x@example.com", "password": "secret1"}, "")
	h.Login(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, c.Errors, 1)
	assert.NotContains(t, rec.Body.String(), "db down")
}
