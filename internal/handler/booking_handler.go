package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, actor models.UserInfo, req models.CreateBookingRequest) (*models.BookingDetail, error)
	Get(ctx context.Context, actor models.UserInfo, id string) (*models.BookingDetail, error)
	ListMine(ctx context.Context, actor models.UserInfo, status string, page, limit int) ([]models.BookingDetail, *models.Pagination, error)
	UpdateStatus(ctx context.Context, actor models.UserInfo, id string, req models.UpdateBookingStatusRequest) (*models.BookingDetail, error)
	Complete(ctx context.Context, actor models.UserInfo, id string) (*models.BookingDetail, error)
	RaiseDispute(ctx context.Context, actor models.UserInfo, id string, req models.DisputeRequest) (*models.BookingDetail, error)
}

type reviewService interface {
	Submit(ctx context.Context, actor models.UserInfo, id string, req models.ReviewRequest) (*models.BookingDetail, error)
}

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	bookings bookingService
	reviews  reviewService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings bookingService, reviews reviewService) *BookingHandler {
	return &BookingHandler{bookings: bookings, reviews: reviews}
}

// Create godoc
// @Summary Request a booking
// @Description Parents book a verified student; the rate is copied from the student and the total derived
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"booking": booking, "message": "Booking request created successfully"})
}

// Mine godoc
// @Summary List own bookings
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /bookings/my-bookings [get]
func (h *BookingHandler) Mine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)
	bookings, pagination, err := h.bookings.ListMine(c.Request.Context(), actor, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"bookings": bookings, "pagination": pagination})
}

// Get godoc
// @Summary Booking detail
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"booking": booking})
}

// UpdateStatus godoc
// @Summary Change booking status
// @Description Students confirm or reject pending bookings; parents cancel or complete
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body models.UpdateBookingStatusRequest true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/status [put]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req models.UpdateBookingStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	booking, err := h.bookings.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"booking": booking, "message": fmt.Sprintf("Booking %s successfully", booking.Status)})
}

// Complete godoc
// @Summary Mark booking completed
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/complete [put]
func (h *BookingHandler) Complete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	booking, err := h.bookings.Complete(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"booking": booking, "message": "Booking marked as completed"})
}

// Review godoc
// @Summary Review a completed booking
// @Description Each party may review once
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body models.ReviewRequest true "Review"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/review [post]
func (h *BookingHandler) Review(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req models.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	booking, err := h.reviews.Submit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"booking": booking, "message": "Review added successfully"})
}

// Dispute godoc
// @Summary Dispute a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body models.DisputeRequest true "Dispute"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/dispute [post]
func (h *BookingHandler) Dispute(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req models.DisputeRequest
	if !bindJSON(c, &req, "invalid dispute payload") {
		return
	}
	booking, err := h.bookings.RaiseDispute(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"booking": booking, "message": "Dispute submitted successfully"})
}
