package handler

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
	"github.com/noah-isme/sitside-api/pkg/response"
)

type sitterService interface {
	BrowseStudents(ctx context.Context, filter models.StudentSearchFilter) ([]models.User, *models.Pagination, error)
	SearchStudents(ctx context.Context, filter models.StudentSearchFilter) ([]models.User, error)
	GetStudent(ctx context.Context, id string) (*models.User, error)
	UpdateAvailability(ctx context.Context, actor models.UserInfo, availability *models.Availability) (*models.Availability, error)
	AddCertification(ctx context.Context, actor models.UserInfo, certification string) ([]string, error)
	RemoveCertification(ctx context.Context, actor models.UserInfo, certification string) ([]string, error)
}

// UserHandler serves sitter discovery and self-service profile endpoints.
type UserHandler struct {
	service sitterService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc sitterService) *UserHandler {
	return &UserHandler{service: svc}
}

// Students godoc
// @Summary Browse sitters
// @Description Active, verified students sorted by rating then review count
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param location query string false "Location substring"
// @Param maxRate query number false "Maximum hourly rate"
// @Param experience query int false "Minimum years of experience"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /users/students [get]
func (h *UserHandler) Students(c *gin.Context) {
	filter, ok := studentFilter(c)
	if !ok {
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	students, pagination, err := h.service.BrowseStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"students": students, "pagination": pagination})
}

// Search godoc
// @Summary Search sitters
// @Description At least one of q, location or maxRate is required; results are capped
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Free text over name, school, location and bio"
// @Param location query string false "Location substring"
// @Param maxRate query number false "Maximum hourly rate"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	filter, ok := studentFilter(c)
	if !ok {
		return
	}
	students, err := h.service.SearchStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"students": students})
}

// Student godoc
// @Summary Sitter profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /users/students/{id} [get]
func (h *UserHandler) Student(c *gin.Context) {
	student, err := h.service.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"student": student})
}

// UpdateAvailability godoc
// @Summary Replace weekly availability
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "{availability: {...}}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /users/availability [put]
func (h *UserHandler) UpdateAvailability(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var payload struct {
		Availability *models.Availability `json:"availability"`
	}
	if !bindJSON(c, &payload, "invalid availability payload") {
		return
	}
	availability, err := h.service.UpdateAvailability(c.Request.Context(), actor, payload.Availability)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"availability": availability, "message": "Availability updated successfully"})
}

// AddCertification godoc
// @Summary Add certification
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "{certification: string}"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /users/certifications [post]
func (h *UserHandler) AddCertification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var payload struct {
		Certification string `json:"certification"`
	}
	if !bindJSON(c, &payload, "invalid certification payload") {
		return
	}
	certifications, err := h.service.AddCertification(c.Request.Context(), actor, payload.Certification)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"certifications": certifications, "message": "Certification added successfully"})
}

// RemoveCertification godoc
// @Summary Remove certification
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param certification path string true "Certification name"
// @Success 200 {object} map[string]interface{}
// @Router /users/certifications/{certification} [delete]
func (h *UserHandler) RemoveCertification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	name, err := url.PathUnescape(c.Param("certification"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid certification name"))
		return
	}
	certifications, err := h.service.RemoveCertification(c.Request.Context(), actor, name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"certifications": certifications, "message": "Certification removed successfully"})
}

func studentFilter(c *gin.Context) (models.StudentSearchFilter, bool) {
	filter := models.StudentSearchFilter{
		Query:    strings.TrimSpace(c.Query("q")),
		Location: strings.TrimSpace(c.Query("location")),
	}
	if raw := c.Query("maxRate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "maxRate must be a positive number"))
			return filter, false
		}
		filter.MaxRate = &rate
	}
	if raw := c.Query("experience"); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil || years < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "experience must be a whole number of years"))
			return filter, false
		}
		filter.Experience = &years
	}
	return filter, true
}
