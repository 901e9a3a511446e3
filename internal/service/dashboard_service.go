package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/dto"
	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/pkg/cache"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

const recentItemsLimit = 5

// dashboardCacheKey is dropped by every service that mutates users or bookings.
var dashboardCacheKey = cache.Key("dash", "admin")

type dashboardUserRepository interface {
	CountByRole(ctx context.Context) ([]models.StatusCount, error)
	Recent(ctx context.Context, limit int) ([]models.UserSummary, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
}

type dashboardBookingRepository interface {
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	Recent(ctx context.Context, limit int) ([]models.Booking, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin overview.
type DashboardService struct {
	users    dashboardUserRepository
	bookings dashboardBookingRepository
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(users dashboardUserRepository, bookings dashboardBookingRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{users: users, bookings: bookings, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Admin returns the dashboard summary and whether it was served from cache.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	var cached dto.AdminDashboardResponse
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	roleCounts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	statusCounts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}
	recentUsers, err := s.users.Recent(ctx, recentItemsLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent users")
	}
	recentBookings, err := s.bookings.Recent(ctx, recentItemsLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent bookings")
	}
	details, err := attachParties(ctx, s.users, recentBookings)
	if err != nil {
		return nil, err
	}

	byRole := countsToMap(roleCounts)
	byStatus := countsToMap(statusCounts)
	stats := dto.DashboardStats{
		TotalStudents:     byRole[string(models.RoleStudent)],
		TotalParents:      byRole[string(models.RoleParent)],
		TotalAdmins:       byRole[string(models.RoleAdmin)],
		PendingBookings:   byStatus[string(models.BookingPending)],
		ConfirmedBookings: byStatus[string(models.BookingConfirmed)],
		CompletedBookings: byStatus[string(models.BookingCompleted)],
		DisputedBookings:  byStatus[string(models.BookingDisputed)],
	}
	for _, n := range byRole {
		stats.TotalUsers += n
	}
	for _, n := range byStatus {
		stats.TotalBookings += n
	}

	rows := make([]dto.RecentBooking, 0, len(details))
	for _, d := range details {
		rows = append(rows, dto.RecentBooking{
			ID:          d.ID,
			Status:      d.Status,
			Date:        d.Date,
			TotalAmount: d.TotalAmount,
			CreatedAt:   d.CreatedAt,
			Student:     d.Student,
			Parent:      d.Parent,
		})
	}
	if recentUsers == nil {
		recentUsers = []models.UserSummary{}
	}

	return &dto.AdminDashboardResponse{
		Stats:            stats,
		UsersByRole:      byRole,
		BookingsByStatus: byStatus,
		RecentUsers:      recentUsers,
		RecentBookings:   rows,
		GeneratedAt:      s.now().UTC(),
	}, nil
}

func countsToMap(rows []models.StatusCount) map[string]int {
	result := make(map[string]int, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result
}
