package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/internal/repository"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

const passwordCost = 12

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
	Cost   int
	Admin  AdminBootstrap
}

// AdminBootstrap describes the administrator account ensured at startup.
type AdminBootstrap struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService provides registration, login and token verification.
type AuthService struct {
	repo      authUserRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = 7 * 24 * time.Hour
	}
	if config.Cost <= 0 {
		config.Cost = passwordCost
	}
	return &AuthService{repo: repo, cache: cache, validator: validate, logger: logger, config: config}
}

// Register creates a student or parent account and issues a token.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing or invalid registration fields")
	}

	user := &models.User{
		Email:                 req.Email,
		FirstName:             strings.TrimSpace(req.FirstName),
		LastName:              strings.TrimSpace(req.LastName),
		Phone:                 strings.TrimSpace(req.Phone),
		Role:                  req.Role,
		Active:                true,
		BackgroundCheckStatus: models.BackgroundCheckNotRequired,
	}

	switch req.Role {
	case models.RoleStudent:
		if req.Grade == nil || strings.TrimSpace(req.School) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "students must provide grade and school")
		}
		rate := models.DefaultHourlyRate
		if req.HourlyRate != nil {
			rate = *req.HourlyRate
		}
		availability := models.DefaultAvailability()
		if req.Availability != nil {
			availability = *req.Availability
		}
		user.Grade = req.Grade
		user.School = optionalString(req.School)
		user.Bio = optionalString(req.Bio)
		user.HourlyRate = &rate
		user.Experience = optionalString(req.Experience)
		user.Certifications = normalizeCertifications(req.Certifications)
		user.Location = optionalString(req.Location)
		user.Availability = &availability
		user.BackgroundCheckStatus = models.BackgroundCheckPending
	case models.RoleParent:
		user.EmergencyContact = optionalString(req.EmergencyContact)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.Cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.audit(ctx, user.ID, models.AuditActionRegister, models.RequestMeta{IP: req.IP, UserAgent: req.UserAgent})
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return s.issue(user)
}

// Login authenticates a user and returns an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	// account status is only disclosed to callers holding the password
	if !user.Active {
		return nil, appErrors.ErrInactiveAccount
	}

	s.audit(ctx, user.ID, models.AuditActionLogin, models.RequestMeta{IP: req.IP, UserAgent: req.UserAgent})
	return s.issue(user)
}

// Authenticate validates the token and confirms the account still exists and is active.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.JWTClaims, *models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is not valid - user not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, nil, appErrors.ErrInactiveAccount
	}
	// Stored role and email take precedence over the token claims.
	claims.Role = user.Role
	claims.Email = user.Email
	return claims, user, nil
}

// Me returns the caller's full profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "token has expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "token is not valid")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is not valid")
	}
	return claims, nil
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	admin := s.config.Admin
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		s.logger.Info("admin bootstrap skipped, no credentials configured")
		return nil
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return fmt.Errorf("bootstrap admin email %s belongs to a %s account", email, existing.Role)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), s.config.Cost)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	user := &models.User{
		Email:                 email,
		PasswordHash:          string(hash),
		FirstName:             firstNonEmpty(admin.FirstName, "Admin"),
		LastName:              firstNonEmpty(admin.LastName, "User"),
		Phone:                 "",
		Role:                  models.RoleAdmin,
		Verified:              true,
		Active:                true,
		BackgroundCheckStatus: models.BackgroundCheckNotRequired,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.AuthResponse{
		Token:     signed,
		ExpiresIn: int64(s.config.Expiry.Seconds()),
		IssuedAt:  issuedAt,
		User:      user,
	}, nil
}

func (s *AuthService) audit(ctx context.Context, userID, action string, meta models.RequestMeta) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &userID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
