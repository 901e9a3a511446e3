package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

func testAuthConfig() AuthConfig {
	return AuthConfig{Secret: "secret", Expiry: time.Hour, Issuer: "sitside-test", Cost: bcrypt.MinCost}
}

func studentRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Email:     "Sam@Example.com ",
		Password:  "hunter22",
		FirstName: "Sam",
		LastName:  "Sitter",
		Phone:     "555-0101",
		Role:      models.RoleStudent,
		Grade:     ptr(11),
		School:    "Central High",
		IP:        "10.0.0.1",
	}
}

func TestAuthServiceRegisterStudentDefaults(t *testing.T) {
	repo := newMemUsers()
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Register(context.Background(), studentRegistration())
	require.NoError(t, err)
	require.NotNil(t, res.User)

	user := res.User
	assert.Equal(t, "sam@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.Active)
	assert.False(t, user.Verified)
	assert.Equal(t, models.BackgroundCheckPending, user.BackgroundCheckStatus)
	require.NotNil(t, user.HourlyRate)
	assert.Equal(t, models.DefaultHourlyRate, *user.HourlyRate)
	require.NotNil(t, user.Availability)
	assert.Zero(t, user.Rating)
	assert.Zero(t, user.ReviewCount)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionRegister, repo.audits[0].Action)
	assert.Equal(t, "10.0.0.1", repo.audits[0].IPAddress)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMemUsers()
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), studentRegistration())
	require.NoError(t, err)

	again := studentRegistration()
	again.Email = "sam@example.com"
	_, err = svc.Register(context.Background(), again)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Len(t, repo.items, 1)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc := NewAuthService(newMemUsers(), nil, nil, zap.NewNop(), testAuthConfig())

	missingSchool := studentRegistration()
	missingSchool.School = ""
	_, err := svc.Register(context.Background(), missingSchool)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	badGrade := studentRegistration()
	badGrade.Grade = ptr(8)
	_, err = svc.Register(context.Background(), badGrade)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	admin := studentRegistration()
	admin.Role = models.RoleAdmin
	_, err = svc.Register(context.Background(), admin)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceRegisterParent(t *testing.T) {
	svc := NewAuthService(newMemUsers(), nil, nil, zap.NewNop(), testAuthConfig())
	req := models.RegisterRequest{
		Email: "pat@example.com", Password: "secret1", FirstName: "Pat", LastName: "Parent",
		Phone: "555-0102", Role: models.RoleParent, EmergencyContact: "Neighbour 555-0199",
	}

	res, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res.User.EmergencyContact)
	assert.Equal(t, "Neighbour 555-0199", *res.User.EmergencyContact)
	assert.Nil(t, res.User.HourlyRate)
	assert.Equal(t, models.BackgroundCheckNotRequired, res.User.BackgroundCheckStatus)
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMemUsers()
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())
	_, err := svc.Register(context.Background(), studentRegistration())
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "hunter22"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "sitside-test", claims.Issuer)
	assert.Equal(t, models.AuditActionLogin, repo.lastAudit().Action)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := newMemUsers()
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())
	res, err := svc.Register(context.Background(), studentRegistration())
	require.NoError(t, err)
	require.NoError(t, repo.SetActive(context.Background(), res.User.ID, false))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "hunter22"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code, "inactive status stays hidden without the password")
}

func TestAuthServiceAuthenticate(t *testing.T) {
	repo := newMemUsers()
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())
	res, err := svc.Register(context.Background(), studentRegistration())
	require.NoError(t, err)

	claims, user, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	require.NoError(t, repo.SetActive(context.Background(), res.User.ID, false))
	_, _, err = svc.Authenticate(context.Background(), res.Token)
	assert.True(t, errors.Is(err, appErrors.ErrInactiveAccount))

	require.NoError(t, repo.Delete(context.Background(), res.User.ID))
	_, _, err = svc.Authenticate(context.Background(), res.Token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceValidateTokenFailures(t *testing.T) {
	svc := NewAuthService(newMemUsers(), nil, nil, zap.NewNop(), testAuthConfig())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
	assert.Equal(t, "token has expired", appErrors.FromError(err).Message)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: "u1"}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	require.Error(t, err)
	assert.Equal(t, "token is not valid", appErrors.FromError(err).Message)

	_, err = svc.ValidateToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	repo := newMemUsers()
	cfg := testAuthConfig()
	cfg.Admin = AdminBootstrap{Email: "Admin@Sitside.test", Password: "changeme"}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), cfg)

	require.NoError(t, svc.EnsureAdmin(context.Background()))
	require.NoError(t, svc.EnsureAdmin(context.Background()))
	require.Len(t, repo.items, 1)

	admin, err := repo.FindByEmail(context.Background(), "admin@sitside.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Admin", admin.FirstName)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@sitside.test", Password: "changeme"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
}

func TestAuthServiceEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	repo := newMemUsers()
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), testAuthConfig())
	require.NoError(t, svc.EnsureAdmin(context.Background()))
	assert.Empty(t, repo.items)
}

func TestAuthServiceEnsureAdminEmailTaken(t *testing.T) {
	repo := newMemUsers(parentUser("p1"))
	cfg := testAuthConfig()
	cfg.Admin = AdminBootstrap{Email: "p1@example.com", Password: "changeme"}
	svc := NewAuthService(repo, nil, nil, zap.NewNop(), cfg)
	assert.Error(t, svc.EnsureAdmin(context.Background()))
}
