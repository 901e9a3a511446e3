package service

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

const clockLayout = "15:04"

type bookingSide string

const (
	sideStudent bookingSide = "student"
	sideParent  bookingSide = "parent"
	sideNone    bookingSide = ""
)

type transitionKey struct {
	side bookingSide
	from models.BookingStatus
	to   models.BookingStatus
}

// allowedTransitions is the complete set of participant-driven status changes.
var allowedTransitions = map[transitionKey]struct{}{
	{sideStudent, models.BookingPending, models.BookingConfirmed}:  {},
	{sideStudent, models.BookingPending, models.BookingRejected}:   {},
	{sideParent, models.BookingPending, models.BookingCancelled}:   {},
	{sideParent, models.BookingConfirmed, models.BookingCancelled}: {},
	{sideParent, models.BookingConfirmed, models.BookingCompleted}: {},
}

// IsTerminal reports whether no participant status update may leave status.
// Besides completed and cancelled this covers rejected, which has no outgoing
// transition, and disputed, which only an admin resolution can close.
func IsTerminal(status models.BookingStatus) bool {
	switch status {
	case models.BookingCompleted, models.BookingCancelled, models.BookingRejected, models.BookingDisputed:
		return true
	}
	return false
}

func sideOf(booking *models.Booking, userID string) bookingSide {
	switch {
	case userID == "":
		return sideNone
	case userID == booking.StudentID:
		return sideStudent
	case userID == booking.ParentID:
		return sideParent
	}
	return sideNone
}

// CheckTransition decides whether actorID may move booking to target.
func CheckTransition(booking *models.Booking, actorID string, target models.BookingStatus) error {
	if !target.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", target))
	}
	side := sideOf(booking, actorID)
	if side == sideNone {
		return appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}
	if IsTerminal(booking.Status) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot update a %s booking", booking.Status))
	}
	if _, ok := allowedTransitions[transitionKey{side, booking.Status, target}]; !ok {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s cannot move booking from %s to %s", side, booking.Status, target))
	}
	return nil
}

// CheckDispute decides whether actorID may dispute booking.
func CheckDispute(booking *models.Booking, actorID string) error {
	if sideOf(booking, actorID) == sideNone {
		return appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}
	if booking.Status != models.BookingConfirmed && booking.Status != models.BookingCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "only confirmed or completed bookings can be disputed")
	}
	return nil
}

// ComputeTotalAmount prices a session from "HH:MM" bounds, rounded to cents.
func ComputeTotalAmount(start, end string, hourlyRate float64) (float64, error) {
	startAt, err := time.Parse(clockLayout, start)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "startTime must use HH:MM format")
	}
	endAt, err := time.Parse(clockLayout, end)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "endTime must use HH:MM format")
	}
	hours := endAt.Sub(startAt).Hours()
	if hours <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return math.Round(hours*hourlyRate*100) / 100, nil
}
