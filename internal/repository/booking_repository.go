package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

const bookingColumns = `id, student_id, parent_id, date, start_time, end_time, number_of_children, children_ages,
special_instructions, emergency_contact, hourly_rate, total_amount, status, payment_status, cancellation_reason,
student_review_rating, student_review_comment, student_review_created_at,
parent_review_rating, parent_review_comment, parent_review_created_at,
dispute_reason, dispute_resolution, admin_notes, resolved_by, resolved_at, version, created_at, updated_at`

// BookingRepository persists bookings. Updates are guarded by the version column.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking at version 1.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	if booking.ChildrenAges == nil {
		booking.ChildrenAges = pq.Int64Array{}
	}

	const query = `INSERT INTO bookings (id, student_id, parent_id, date, start_time, end_time, number_of_children,
children_ages, special_instructions, emergency_contact, hourly_rate, total_amount, status, payment_status,
version, created_at, updated_at)
VALUES (:id, :student_id, :parent_id, :date, :start_time, :end_time, :number_of_children,
:children_ages, :special_instructions, :emergency_contact, :hourly_rate, :total_amount, :status, :payment_status,
:version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID loads a booking.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &booking, nil
}

// Update writes every mutable column when the stored version still matches booking.Version.
// On success the in-memory version is advanced; a stale version yields ErrVersionConflict.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET status = :status, payment_status = :payment_status,
cancellation_reason = :cancellation_reason,
student_review_rating = :student_review_rating, student_review_comment = :student_review_comment,
student_review_created_at = :student_review_created_at,
parent_review_rating = :parent_review_rating, parent_review_comment = :parent_review_comment,
parent_review_created_at = :parent_review_created_at,
dispute_reason = :dispute_reason, dispute_resolution = :dispute_resolution, admin_notes = :admin_notes,
resolved_by = :resolved_by, resolved_at = :resolved_at,
version = version + 1, updated_at = :updated_at
WHERE id = :id AND version = :version`
	result, err := r.db.NamedExecContext(ctx, query, booking)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking rows affected: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrVersionConflict
	}
	booking.Version++
	return nil
}

// List returns bookings matching the filter, newest first, with the total count.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	baseQuery, args := bookingWhere(filter)

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", bookingColumns, baseQuery, pageSize, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

// CountByStatus groups booking counts by status.
func (r *BookingRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status AS key, COUNT(*) AS count FROM bookings GROUP BY status`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count bookings by status: %w", err)
	}
	return rows, nil
}

// Recent returns the newest bookings.
func (r *BookingRepository) Recent(ctx context.Context, limit int) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT $1`
	var rows []models.Booking
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("recent bookings: %w", err)
	}
	return rows, nil
}

// ListForExport returns flattened rows with participant names, oldest first.
func (r *BookingRepository) ListForExport(ctx context.Context, status *models.BookingStatus) ([]models.BookingExportRow, error) {
	query := `SELECT b.id, b.date, b.start_time, b.end_time,
s.first_name || ' ' || s.last_name AS student_name,
p.first_name || ' ' || p.last_name AS parent_name,
b.number_of_children, b.hourly_rate, b.total_amount, b.status, b.payment_status, b.created_at
FROM bookings b
JOIN users s ON s.id = b.student_id
JOIN users p ON p.id = b.parent_id`
	var args []interface{}
	if status != nil {
		query += ` WHERE b.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY b.date ASC, b.start_time ASC`

	var rows []models.BookingExportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings for export: %w", err)
	}
	return rows, nil
}

func bookingWhere(filter models.BookingFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	query := "FROM bookings WHERE 1=1"
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	return query, args
}
