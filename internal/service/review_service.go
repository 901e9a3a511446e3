package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

type reviewUserStore interface {
	bookingUserStore
	RecomputeRating(ctx context.Context, id string) (float64, int, error)
}

// ReviewService records post-completion reviews and keeps student ratings current.
type ReviewService struct {
	bookings  bookingStore
	users     reviewUserStore
	mutator   bookingMutator
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(bookings bookingStore, users reviewUserStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BookingConfig) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{
		bookings:  bookings,
		users:     users,
		mutator:   newBookingMutator(bookings, cfg.MaxWriteRetries, metrics, logger),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Submit stores the caller's review of a completed booking. Once both sides have
// reviewed, the student's aggregate rating is recomputed.
func (s *ReviewService) Submit(ctx context.Context, actor models.UserInfo, id string, req models.ReviewRequest) (*models.BookingDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5 and comment at most 500 characters")
	}

	var side bookingSide
	booking, err := s.mutator.mutate(ctx, id, func(b *models.Booking) error {
		side = sideOf(b, actor.ID)
		if side == sideNone {
			return appErrors.Clone(appErrors.ErrForbidden, "access denied")
		}
		if b.Status != models.BookingCompleted {
			return appErrors.Clone(appErrors.ErrConflict, "can only review completed bookings")
		}
		review := models.Review{Rating: req.Rating, Comment: strings.TrimSpace(req.Comment), CreatedAt: time.Now().UTC()}
		switch side {
		case sideStudent:
			if b.StudentReviewRating != nil {
				return appErrors.Clone(appErrors.ErrConflict, "student has already reviewed this booking")
			}
			b.SetStudentReview(review)
		case sideParent:
			if b.ParentReviewRating != nil {
				return appErrors.Clone(appErrors.ErrConflict, "parent has already reviewed this booking")
			}
			b.SetParentReview(review)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ReviewSubmitted(string(side))

	if booking.FullyReviewed() {
		if _, _, err := s.RecomputeStudentRating(ctx, booking.StudentID); err != nil {
			s.logger.Error("failed to recompute student rating", zap.String("student_id", booking.StudentID), zap.Error(err))
		}
	}

	details, err := attachParties(ctx, s.users, []models.Booking{*booking})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// RecomputeStudentRating rebuilds rating and reviewCount from every booking carrying
// both reviews. The aggregate is computed and stored by the database in one step, so
// repeated or concurrent runs converge on the same values.
func (s *ReviewService) RecomputeStudentRating(ctx context.Context, studentID string) (float64, int, error) {
	rating, count, err := s.users.RecomputeRating(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student rating")
	}
	s.metrics.RatingRecomputed()
	s.cache.Invalidate(ctx, dashboardCacheKey)
	return rating, count, nil
}
