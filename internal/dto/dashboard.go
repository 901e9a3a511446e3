package dto

import (
	"time"

	"github.com/noah-isme/sitside-api/internal/models"
)

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Stats            DashboardStats       `json:"stats"`
	UsersByRole      map[string]int       `json:"usersByRole"`
	BookingsByStatus map[string]int       `json:"bookingsByStatus"`
	RecentUsers      []models.UserSummary `json:"recentUsers"`
	RecentBookings   []RecentBooking      `json:"recentBookings"`
	GeneratedAt      time.Time            `json:"generatedAt"`
}

// DashboardStats holds the headline counters.
type DashboardStats struct {
	TotalUsers        int `json:"totalUsers"`
	TotalStudents     int `json:"totalStudents"`
	TotalParents      int `json:"totalParents"`
	TotalAdmins       int `json:"totalAdmins"`
	TotalBookings     int `json:"totalBookings"`
	PendingBookings   int `json:"pendingBookings"`
	ConfirmedBookings int `json:"confirmedBookings"`
	CompletedBookings int `json:"completedBookings"`
	DisputedBookings  int `json:"disputedBookings"`
}

// RecentBooking is the compact booking row shown on the dashboard.
type RecentBooking struct {
	ID          string               `json:"id"`
	Status      models.BookingStatus `json:"status"`
	Date        time.Time            `json:"date"`
	TotalAmount float64              `json:"totalAmount"`
	CreatedAt   time.Time            `json:"createdAt"`
	Student     *models.UserSummary  `json:"student,omitempty"`
	Parent      *models.UserSummary  `json:"parent,omitempty"`
}
