package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

type adminUserRepository interface {
	summaryFinder
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetVerification(ctx context.Context, id string, verified bool, status models.BackgroundCheckStatus) error
	Delete(ctx context.Context, id string) error
	HasBookings(ctx context.Context, id string) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AdminService implements the back-office operations.
type AdminService struct {
	users     adminUserRepository
	bookings  bookingStore
	mutator   bookingMutator
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(users adminUserRepository, bookings bookingStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BookingConfig) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AdminService{
		users:     users,
		bookings:  bookings,
		mutator:   newBookingMutator(bookings, cfg.MaxWriteRetries, metrics, logger),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ListUsers returns accounts matching the filter, newest first.
func (s *AdminService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid role %q", *filter.Role))
	}
	filter.Search = strings.TrimSpace(filter.Search)
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListBookings returns every booking, optionally narrowed by status.
func (s *AdminService) ListBookings(ctx context.Context, status string, page, limit int) ([]models.BookingDetail, *models.Pagination, error) {
	filter := models.BookingFilter{Page: page, PageSize: limit}
	if status != "" {
		st := models.BookingStatus(status)
		if !st.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", status))
		}
		filter.Status = &st
	}
	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	details, err := attachParties(ctx, s.users, bookings)
	if err != nil {
		return nil, nil, err
	}
	return details, models.NewPagination(page, limit, total), nil
}

// ToggleUser flips the active flag of a non-admin account.
func (s *AdminService) ToggleUser(ctx context.Context, actor models.UserInfo, id string, meta models.RequestMeta) (*models.User, string, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if user.Role == models.RoleAdmin {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate admin users")
	}

	next := !user.Active
	if err := s.users.SetActive(ctx, id, next); err != nil {
		return nil, "", s.writeError(err, "failed to update user status")
	}
	previous := user.Active
	user.Active = next

	s.audit(ctx, actor, models.AuditActionUserToggle, "user", id,
		map[string]interface{}{"isActive": previous},
		map[string]interface{}{"isActive": next}, meta)
	s.cache.Invalidate(ctx, dashboardCacheKey)

	message := "User deactivated successfully"
	if next {
		message = "User activated successfully"
	}
	return user, message, nil
}

// DeleteUser removes an account. Accounts referenced by bookings are deactivated instead
// so booking history keeps both parties.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.UserInfo, id string, meta models.RequestMeta) (string, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if user.Role == models.RoleAdmin {
		return "", appErrors.Clone(appErrors.ErrForbidden, "cannot delete admin users")
	}

	hasBookings, err := s.users.HasBookings(ctx, id)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check user bookings")
	}

	if hasBookings {
		if err := s.users.SetActive(ctx, id, false); err != nil {
			return "", s.writeError(err, "failed to deactivate user")
		}
		s.audit(ctx, actor, models.AuditActionUserDeactivate, "user", id,
			map[string]interface{}{"isActive": user.Active},
			map[string]interface{}{"isActive": false}, meta)
		s.cache.Invalidate(ctx, dashboardCacheKey)
		return "User has bookings and was deactivated instead of deleted", nil
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return "", s.writeError(err, "failed to delete user")
	}
	s.audit(ctx, actor, models.AuditActionUserDelete, "user", id,
		map[string]interface{}{"email": user.Email, "role": user.Role}, nil, meta)
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return "User deleted successfully", nil
}

// VerifyStudent records the vetting outcome for a student.
func (s *AdminService) VerifyStudent(ctx context.Context, actor models.UserInfo, id string, req models.VerifyStudentRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can be verified")
	}

	verified := *req.Verified
	status := req.BackgroundCheckStatus
	if status == "" {
		status = models.BackgroundCheckRejected
		if verified {
			status = models.BackgroundCheckApproved
		}
	}
	if err := s.users.SetVerification(ctx, id, verified, status); err != nil {
		return nil, s.writeError(err, "failed to update verification")
	}

	s.audit(ctx, actor, models.AuditActionStudentVerify, "user", id,
		map[string]interface{}{"isVerified": user.Verified, "backgroundCheckStatus": user.BackgroundCheckStatus},
		map[string]interface{}{"isVerified": verified, "backgroundCheckStatus": status}, meta)

	user.Verified = verified
	user.BackgroundCheckStatus = status
	return user, nil
}

// ResolveDispute closes an open dispute. Refund outcomes mark the payment refunded.
func (s *AdminService) ResolveDispute(ctx context.Context, actor models.UserInfo, id string, req models.ResolveDisputeRequest, meta models.RequestMeta) (*models.BookingDetail, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can resolve disputes")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "resolution must be refund, partial_refund or no_action")
	}
	notes := strings.TrimSpace(req.AdminNotes)

	booking, err := s.mutator.mutate(ctx, id, func(b *models.Booking) error {
		if b.Status != models.BookingDisputed {
			return appErrors.Clone(appErrors.ErrConflict, "booking is not disputed")
		}
		if b.DisputeResolution != nil && *b.DisputeResolution != models.ResolutionPending {
			return appErrors.Clone(appErrors.ErrConflict, "dispute has already been resolved")
		}
		resolution := req.Resolution
		resolvedBy := actor.ID
		resolvedAt := time.Now().UTC()
		b.DisputeResolution = &resolution
		b.ResolvedBy = &resolvedBy
		b.ResolvedAt = &resolvedAt
		if notes != "" {
			b.AdminNotes = &notes
		}
		if resolution == models.ResolutionRefund || resolution == models.ResolutionPartialRefund {
			b.PaymentStatus = models.PaymentRefunded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionDisputeResolve, "booking", id, nil,
		map[string]interface{}{"resolution": req.Resolution, "paymentStatus": booking.PaymentStatus}, meta)
	s.cache.Invalidate(ctx, dashboardCacheKey)
	s.logger.Info("dispute resolved", zap.String("booking_id", id), zap.String("resolution", string(req.Resolution)))

	details, err := attachParties(ctx, s.users, []models.Booking{*booking})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *AdminService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *AdminService) writeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *AdminService) audit(ctx context.Context, actor models.UserInfo, action, resource, resourceID string, oldValues, newValues map[string]interface{}, meta models.RequestMeta) {
	entry := &models.AuditLog{
		UserID:     &actor.ID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}
