package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRejected  BookingStatus = "rejected"
	BookingDisputed  BookingStatus = "disputed"
)

// BookingStatuses lists every status in lifecycle order.
var BookingStatuses = []BookingStatus{
	BookingPending,
	BookingConfirmed,
	BookingCompleted,
	BookingCancelled,
	BookingRejected,
	BookingDisputed,
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	for _, known := range BookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the (stubbed) payment state.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// DisputeResolution is the admin outcome of a dispute.
type DisputeResolution string

const (
	ResolutionRefund        DisputeResolution = "refund"
	ResolutionPartialRefund DisputeResolution = "partial_refund"
	ResolutionNoAction      DisputeResolution = "no_action"
	ResolutionPending       DisputeResolution = "pending"
)

const (
	MaxReviewCommentLength       = 500
	MaxSpecialInstructionsLength = 1000
)

// Review is a rating left by one booking party.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Booking represents a childcare engagement between a parent and a student sitter.
// Reviews are stored as flat nullable columns and exposed as nested objects in JSON.
type Booking struct {
	ID                  string        `db:"id" json:"id"`
	StudentID           string        `db:"student_id" json:"studentId"`
	ParentID            string        `db:"parent_id" json:"parentId"`
	Date                time.Time     `db:"date" json:"date"`
	StartTime           string        `db:"start_time" json:"startTime"`
	EndTime             string        `db:"end_time" json:"endTime"`
	NumberOfChildren    int           `db:"number_of_children" json:"numberOfChildren"`
	ChildrenAges        pq.Int64Array `db:"children_ages" json:"childrenAges"`
	SpecialInstructions string        `db:"special_instructions" json:"specialInstructions"`
	EmergencyContact    string        `db:"emergency_contact" json:"emergencyContact"`
	HourlyRate          float64       `db:"hourly_rate" json:"hourlyRate"`
	TotalAmount         float64       `db:"total_amount" json:"totalAmount"`
	Status              BookingStatus `db:"status" json:"status"`
	PaymentStatus       PaymentStatus `db:"payment_status" json:"paymentStatus"`
	CancellationReason  *string       `db:"cancellation_reason" json:"cancellationReason,omitempty"`

	StudentReviewRating    *int       `db:"student_review_rating" json:"-"`
	StudentReviewComment   *string    `db:"student_review_comment" json:"-"`
	StudentReviewCreatedAt *time.Time `db:"student_review_created_at" json:"-"`
	ParentReviewRating     *int       `db:"parent_review_rating" json:"-"`
	ParentReviewComment    *string    `db:"parent_review_comment" json:"-"`
	ParentReviewCreatedAt  *time.Time `db:"parent_review_created_at" json:"-"`

	DisputeReason     *string            `db:"dispute_reason" json:"disputeReason,omitempty"`
	DisputeResolution *DisputeResolution `db:"dispute_resolution" json:"disputeResolution,omitempty"`
	AdminNotes        *string            `db:"admin_notes" json:"adminNotes,omitempty"`
	ResolvedBy        *string            `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt        *time.Time         `db:"resolved_at" json:"resolvedAt,omitempty"`

	Version   int       `db:"version" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// StudentReview returns the review written by the student, if any.
func (b *Booking) StudentReview() *Review {
	return buildReview(b.StudentReviewRating, b.StudentReviewComment, b.StudentReviewCreatedAt)
}

// ParentReview returns the review written by the parent, if any.
func (b *Booking) ParentReview() *Review {
	return buildReview(b.ParentReviewRating, b.ParentReviewComment, b.ParentReviewCreatedAt)
}

// SetStudentReview stores the student's review.
func (b *Booking) SetStudentReview(r Review) {
	b.StudentReviewRating, b.StudentReviewComment, b.StudentReviewCreatedAt = &r.Rating, &r.Comment, &r.CreatedAt
}

// SetParentReview stores the parent's review.
func (b *Booking) SetParentReview(r Review) {
	b.ParentReviewRating, b.ParentReviewComment, b.ParentReviewCreatedAt = &r.Rating, &r.Comment, &r.CreatedAt
}

// FullyReviewed reports whether both parties have reviewed.
func (b *Booking) FullyReviewed() bool {
	return b.StudentReviewRating != nil && b.ParentReviewRating != nil
}

// IsParticipant reports whether userID is the booking's student or parent.
func (b *Booking) IsParticipant(userID string) bool {
	return userID != "" && (userID == b.StudentID || userID == b.ParentID)
}

// MarshalJSON nests the review columns.
func (b Booking) MarshalJSON() ([]byte, error) {
	type plain Booking
	return json.Marshal(struct {
		plain
		StudentReview *Review `json:"studentReview,omitempty"`
		ParentReview  *Review `json:"parentReview,omitempty"`
	}{
		plain:         plain(b),
		StudentReview: b.StudentReview(),
		ParentReview:  b.ParentReview(),
	})
}

func buildReview(rating *int, comment *string, createdAt *time.Time) *Review {
	if rating == nil {
		return nil
	}
	review := &Review{Rating: *rating}
	if comment != nil {
		review.Comment = *comment
	}
	if createdAt != nil {
		review.CreatedAt = *createdAt
	}
	return review
}

// BookingDetail is a booking joined with both parties' summaries.
type BookingDetail struct {
	Booking
	Student *UserSummary `json:"student,omitempty"`
	Parent  *UserSummary `json:"parent,omitempty"`
}

// MarshalJSON keeps the nested review layout of Booking and appends the parties.
func (d BookingDetail) MarshalJSON() ([]byte, error) {
	base, err := d.Booking.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, party := range map[string]*UserSummary{"student": d.Student, "parent": d.Parent} {
		if party == nil {
			continue
		}
		raw, err := json.Marshal(party)
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}

// BookingFilter captures booking listing criteria.
type BookingFilter struct {
	StudentID string
	ParentID  string
	Status    *BookingStatus
	Page      int
	PageSize  int
}

// StatusCount is a grouped count row.
type StatusCount struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// BookingExportRow is the flattened shape written to admin exports.
type BookingExportRow struct {
	ID            string        `db:"id"`
	Date          time.Time     `db:"date"`
	StartTime     string        `db:"start_time"`
	EndTime       string        `db:"end_time"`
	StudentName   string        `db:"student_name"`
	ParentName    string        `db:"parent_name"`
	Children      int           `db:"number_of_children"`
	HourlyRate    float64       `db:"hourly_rate"`
	TotalAmount   float64       `db:"total_amount"`
	Status        BookingStatus `db:"status"`
	PaymentStatus PaymentStatus `db:"payment_status"`
	CreatedAt     time.Time     `db:"created_at"`
}

// CreateBookingRequest is the parent's booking request payload.
type CreateBookingRequest struct {
	StudentID           string  `json:"studentId" validate:"required"`
	Date                string  `json:"date" validate:"required"`
	StartTime           string  `json:"startTime" validate:"required"`
	EndTime             string  `json:"endTime" validate:"required"`
	NumberOfChildren    int     `json:"numberOfChildren" validate:"required,min=1,max=10"`
	ChildrenAges        []int64 `json:"childrenAges" validate:"max=10,dive,min=0,max=18"`
	SpecialInstructions string  `json:"specialInstructions" validate:"max=1000"`
	EmergencyContact    string  `json:"emergencyContact" validate:"required,max=200"`
}

// UpdateBookingStatusRequest asks for a lifecycle transition.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// ReviewRequest carries a post-completion review.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

// DisputeRequest opens a dispute.
type DisputeRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// ResolveDisputeRequest closes a dispute.
type ResolveDisputeRequest struct {
	Resolution DisputeResolution `json:"resolution" validate:"required,oneof=refund partial_refund no_action"`
	AdminNotes string            `json:"adminNotes" validate:"max=1000"`
}
