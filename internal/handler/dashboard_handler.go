package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sitside-api/internal/dto"
	"github.com/noah-isme/sitside-api/internal/middleware"
	"github.com/noah-isme/sitside-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error)
}

// DashboardHandler exposes the admin overview.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Admin godoc
// @Summary Admin dashboard
// @Description Counts by role and booking status plus the most recent users and bookings
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AdminDashboardResponse
// @Failure 403 {object} map[string]string
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	summary, hit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, gin.H{
		"stats":            summary.Stats,
		"usersByRole":      summary.UsersByRole,
		"bookingsByStatus": summary.BookingsByStatus,
		"recentUsers":      summary.RecentUsers,
		"recentBookings":   summary.RecentBookings,
		"generatedAt":      summary.GeneratedAt,
	})
}
