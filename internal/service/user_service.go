package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

// SearchResultLimit caps the free-text search endpoint.
const SearchResultLimit = 20

const maxCertificationLength = 100

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvailability(ctx context.Context, id string, availability models.Availability) error
	UpdateCertifications(ctx context.Context, id string, certifications []string) error
	SearchStudents(ctx context.Context, filter models.StudentSearchFilter) ([]models.User, int, error)
}

// UserService manages sitter discovery and self-service profile changes.
type UserService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// BrowseStudents lists bookable students, best rated first.
func (s *UserService) BrowseStudents(ctx context.Context, filter models.StudentSearchFilter) ([]models.User, *models.Pagination, error) {
	students, total, err := s.repo.SearchStudents(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// SearchStudents runs a criteria search; at least one criterion is required.
func (s *UserService) SearchStudents(ctx context.Context, filter models.StudentSearchFilter) ([]models.User, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Location = strings.TrimSpace(filter.Location)
	if filter.Query == "" && filter.Location == "" && filter.MaxRate == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search query required")
	}
	filter.Page = 1
	filter.PageSize = SearchResultLimit
	students, _, err := s.repo.SearchStudents(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	return students, nil
}

// GetStudent returns an active student's public profile.
func (s *UserService) GetStudent(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent || !user.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

// UpdateProfile applies the allowed profile fields. Sitter attributes are student-only.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	sitterFields := req.Bio != nil || req.HourlyRate != nil || req.Experience != nil ||
		req.Certifications != nil || req.Location != nil || req.Availability != nil
	if sitterFields && user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bio, hourlyRate, experience, certifications, location and availability apply to students only")
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		user.Bio = optionalString(*req.Bio)
	}
	if req.HourlyRate != nil {
		rate := *req.HourlyRate
		user.HourlyRate = &rate
	}
	if req.Experience != nil {
		user.Experience = optionalString(*req.Experience)
	}
	if req.Certifications != nil {
		user.Certifications = normalizeCertifications(req.Certifications)
	}
	if req.Location != nil {
		user.Location = optionalString(*req.Location)
	}
	if req.Availability != nil {
		availability := *req.Availability
		user.Availability = &availability
	}
	if req.EmergencyContact != nil {
		user.EmergencyContact = optionalString(*req.EmergencyContact)
	}
	if req.ProfileImage != nil {
		user.ProfileImage = optionalString(*req.ProfileImage)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// UpdateAvailability replaces a student's weekly grid.
func (s *UserService) UpdateAvailability(ctx context.Context, actor models.UserInfo, availability *models.Availability) (*models.Availability, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can update availability")
	}
	if availability == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "availability data required")
	}
	if err := s.repo.UpdateAvailability(ctx, actor.ID, *availability); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	return availability, nil
}

// AddCertification appends a trimmed certification unless already present.
func (s *UserService) AddCertification(ctx context.Context, actor models.UserInfo, certification string) ([]string, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can add certifications")
	}
	certification = strings.TrimSpace(certification)
	if certification == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certification name required")
	}
	if len(certification) > maxCertificationLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certification name is too long")
	}
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	current := []string(user.Certifications)
	for _, existing := range current {
		if existing == certification {
			return current, nil
		}
	}
	updated := append(current, certification)
	if err := s.saveCertifications(ctx, actor.ID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveCertification drops an exact match from the student's certifications.
func (s *UserService) RemoveCertification(ctx context.Context, actor models.UserInfo, certification string) ([]string, error) {
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can remove certifications")
	}
	user, err := s.load(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	updated := make([]string, 0, len(user.Certifications))
	for _, existing := range user.Certifications {
		if existing != certification {
			updated = append(updated, existing)
		}
	}
	if len(updated) == len(user.Certifications) {
		return updated, nil
	}
	if err := s.saveCertifications(ctx, actor.ID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) saveCertifications(ctx context.Context, id string, certifications []string) error {
	if err := s.repo.UpdateCertifications(ctx, id, certifications); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update certifications")
	}
	return nil
}

// normalizeCertifications trims entries and drops blanks and duplicates, keeping order.
func normalizeCertifications(raw []string) pq.StringArray {
	seen := make(map[string]struct{}, len(raw))
	result := make(pq.StringArray, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		result = append(result, c)
	}
	return result
}
