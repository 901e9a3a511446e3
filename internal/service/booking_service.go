package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type bookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
}

type summaryFinder interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
}

type bookingUserStore interface {
	summaryFinder
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// BookingConfig tunes booking writes.
type BookingConfig struct {
	MaxWriteRetries int
}

// bookingMutator applies read-modify-write changes guarded by the booking version.
type bookingMutator struct {
	repo       bookingStore
	maxRetries int
	metrics    *MetricsService
	logger     *zap.Logger
}

func newBookingMutator(repo bookingStore, maxRetries int, metrics *MetricsService, logger *zap.Logger) bookingMutator {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return bookingMutator{repo: repo, maxRetries: maxRetries, metrics: metrics, logger: logger}
}

// mutate loads the booking, runs apply and writes it back, reloading and re-applying
// whenever another writer bumped the version in between.
func (m bookingMutator) mutate(ctx context.Context, id string, apply func(*models.Booking) error) (*models.Booking, error) {
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		booking, err := m.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
		}
		if err := apply(booking); err != nil {
			return nil, err
		}
		err = m.repo.Update(ctx, booking)
		if err == nil {
			return booking, nil
		}
		if !errors.Is(err, appErrors.ErrVersionConflict) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
		}
		m.metrics.BookingVersionConflict()
		m.logger.Warn("booking version conflict", zap.String("booking_id", id), zap.Int("attempt", attempt))
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "booking was modified concurrently, please retry")
}

// BookingService implements the booking lifecycle.
type BookingService struct {
	bookings  bookingStore
	users     bookingUserStore
	mutator   bookingMutator
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(bookings bookingStore, users bookingUserStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BookingConfig) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookingService{
		bookings:  bookings,
		users:     users,
		mutator:   newBookingMutator(bookings, cfg.MaxWriteRetries, metrics, logger),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Create books a verified student on behalf of a parent.
func (s *BookingService) Create(ctx context.Context, actor models.UserInfo, req models.CreateBookingRequest) (*models.BookingDetail, error) {
	if actor.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents can create bookings")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	date, err := parseBookingDate(req.Date)
	if err != nil {
		return nil, err
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent || !student.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if !student.Verified {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not verified")
	}

	rate := models.DefaultHourlyRate
	if student.HourlyRate != nil {
		rate = *student.HourlyRate
	}
	total, err := ComputeTotalAmount(req.StartTime, req.EndTime, rate)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		StudentID:           student.ID,
		ParentID:            actor.ID,
		Date:                date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		NumberOfChildren:    req.NumberOfChildren,
		ChildrenAges:        req.ChildrenAges,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
		EmergencyContact:    strings.TrimSpace(req.EmergencyContact),
		HourlyRate:          rate,
		TotalAmount:         total,
		Status:              models.BookingPending,
		PaymentStatus:       models.PaymentPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.metrics.BookingCreated()
	s.cache.Invalidate(ctx, dashboardCacheKey)
	s.logger.Info("booking created", zap.String("booking_id", booking.ID), zap.String("student_id", student.ID), zap.String("parent_id", actor.ID))
	return s.detail(ctx, booking)
}

// Get returns a booking visible to its participants and admins.
func (s *BookingService) Get(ctx context.Context, actor models.UserInfo, id string) (*models.BookingDetail, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if actor.Role != models.RoleAdmin && !booking.IsParticipant(actor.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}
	return s.detail(ctx, booking)
}

// ListMine returns the caller's bookings, newest first.
func (s *BookingService) ListMine(ctx context.Context, actor models.UserInfo, status string, page, limit int) ([]models.BookingDetail, *models.Pagination, error) {
	filter := models.BookingFilter{Page: page, PageSize: limit}
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.ID
	case models.RoleParent:
		filter.ParentID = actor.ID
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only students and parents have bookings")
	}
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

// UpdateStatus applies a participant-driven transition.
func (s *BookingService) UpdateStatus(ctx context.Context, actor models.UserInfo, id string, req models.UpdateBookingStatusRequest) (*models.BookingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	target := models.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	reason := strings.TrimSpace(req.Reason)

	var from models.BookingStatus
	booking, err := s.mutator.mutate(ctx, id, func(b *models.Booking) error {
		if err := CheckTransition(b, actor.ID, target); err != nil {
			return err
		}
		from = b.Status
		b.Status = target
		if target == models.BookingCancelled && reason != "" {
			b.CancellationReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingTransitioned(from, target)
	s.cache.Invalidate(ctx, dashboardCacheKey)
	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID))
	return s.detail(ctx, booking)
}

// Complete marks a confirmed booking as completed; only the owning parent may do so.
func (s *BookingService) Complete(ctx context.Context, actor models.UserInfo, id string) (*models.BookingDetail, error) {
	return s.UpdateStatus(ctx, actor, id, models.UpdateBookingStatusRequest{Status: string(models.BookingCompleted)})
}

// RaiseDispute moves a confirmed or completed booking into dispute.
func (s *BookingService) RaiseDispute(ctx context.Context, actor models.UserInfo, id string, req models.DisputeRequest) (*models.BookingDetail, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "dispute reason is required")
	}

	var from models.BookingStatus
	booking, err := s.mutator.mutate(ctx, id, func(b *models.Booking) error {
		if err := CheckDispute(b, actor.ID); err != nil {
			return err
		}
		from = b.Status
		pending := models.ResolutionPending
		b.Status = models.BookingDisputed
		b.DisputeReason = &req.Reason
		b.DisputeResolution = &pending
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BookingTransitioned(from, models.BookingDisputed)
	s.cache.Invalidate(ctx, dashboardCacheKey)
	s.logger.Info("booking disputed", zap.String("booking_id", id), zap.String("actor_id", actor.ID))
	return s.detail(ctx, booking)
}

func (s *BookingService) detail(ctx context.Context, booking *models.Booking) (*models.BookingDetail, error) {
	details, err := attachParties(ctx, s.users, []models.Booking{*booking})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// attachParties joins bookings with their student and parent summaries.
func attachParties(ctx context.Context, users summaryFinder, bookings []models.Booking) ([]models.BookingDetail, error) {
	details := make([]models.BookingDetail, 0, len(bookings))
	if len(bookings) == 0 {
		return details, nil
	}
	seen := make(map[string]struct{}, len(bookings)*2)
	ids := make([]string, 0, len(bookings)*2)
	for _, b := range bookings {
		for _, id := range []string{b.StudentID, b.ParentID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	summaries, err := users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking participants")
	}
	for _, b := range bookings {
		detail := models.BookingDetail{Booking: b}
		if student, ok := summaries[b.StudentID]; ok {
			detail.Student = &student
		}
		if parent, ok := summaries[b.ParentID]; ok {
			detail.Parent = &parent
		}
		details = append(details, detail)
	}
	return details, nil
}

func parseBookingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(dateLayout, raw); err == nil {
		return d, nil
	}
	if d, err := time.Parse(time.RFC3339, raw); err == nil {
		return d.UTC(), nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
}
