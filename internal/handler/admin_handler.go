package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/internal/service"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
	"github.com/noah-isme/sitside-api/pkg/response"
)

type adminService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	ListBookings(ctx context.Context, status string, page, limit int) ([]models.BookingDetail, *models.Pagination, error)
	ToggleUser(ctx context.Context, actor models.UserInfo, id string, meta models.RequestMeta) (*models.User, string, error)
	DeleteUser(ctx context.Context, actor models.UserInfo, id string, meta models.RequestMeta) (string, error)
	VerifyStudent(ctx context.Context, actor models.UserInfo, id string, req models.VerifyStudentRequest, meta models.RequestMeta) (*models.User, error)
	ResolveDispute(ctx context.Context, actor models.UserInfo, id string, req models.ResolveDisputeRequest, meta models.RequestMeta) (*models.BookingDetail, error)
}

type exportService interface {
	ExportBookings(ctx context.Context, actor models.UserInfo, format, status string, meta models.RequestMeta) (*service.ExportFile, error)
}

// AdminHandler serves the back-office endpoints.
type AdminHandler struct {
	admin   adminService
	exports exportService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(admin adminService, exports exportService) *AdminHandler {
	return &AdminHandler{admin: admin, exports: exports}
}

// Users godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "student, parent or admin (userType is accepted too)"
// @Param active query bool false "Active filter"
// @Param search query string false "Email or name substring"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	filter := models.UserFilter{Search: c.Query("search")}
	filter.Page, filter.PageSize = pageParams(c)
	role := c.Query("role")
	if role == "" {
		role = c.Query("userType")
	}
	if role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if active := c.Query("active"); active != "" {
		val, err := strconv.ParseBool(active)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be true or false"))
			return
		}
		filter.Active = &val
	}

	users, pagination, err := h.admin.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"users": users, "pagination": pagination})
}

// ToggleUser godoc
// @Summary Activate or deactivate a user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /admin/users/{id}/toggle [put]
func (h *AdminHandler) ToggleUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	user, message, err := h.admin.ToggleUser(c.Request.Context(), actor, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user, "message": message})
}

// VerifyStudent godoc
// @Summary Record a student's vetting outcome
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body models.VerifyStudentRequest true "Verification"
// @Success 200 {object} map[string]interface{}
// @Router /admin/users/{id}/verify [put]
func (h *AdminHandler) VerifyStudent(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req models.VerifyStudentRequest
	if !bindJSON(c, &req, "invalid verification payload") {
		return
	}
	user, err := h.admin.VerifyStudent(c.Request.Context(), actor, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "Student verified successfully"
	if !user.Verified {
		message = "Student verification revoked"
	}
	response.OK(c, gin.H{"user": user, "message": message})
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Users with bookings are deactivated instead
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	message, err := h.admin.DeleteUser(c.Request.Context(), actor, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": message})
}

// Bookings godoc
// @Summary List all bookings
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /admin/bookings [get]
func (h *AdminHandler) Bookings(c *gin.Context) {
	page, limit := pageParams(c)
	bookings, pagination, err := h.admin.ListBookings(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"bookings": bookings, "pagination": pagination})
}

// ResolveDispute godoc
// @Summary Resolve a disputed booking
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body models.ResolveDisputeRequest true "Resolution"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /admin/bookings/{id}/dispute [put]
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req models.ResolveDisputeRequest
	if !bindJSON(c, &req, "invalid resolution payload") {
		return
	}
	booking, err := h.admin.ResolveDispute(c.Request.Context(), actor, c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"booking": booking, "message": "Dispute resolved successfully"})
}

// Export godoc
// @Summary Export bookings
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param format query string false "csv (default), pdf or xlsx"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Router /admin/bookings/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	file, err := h.exports.ExportBookings(c.Request.Context(), actor, c.Query("format"), strings.TrimSpace(c.Query("status")), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
