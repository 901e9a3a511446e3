package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

func bookingRow(id string, status models.BookingStatus, version int) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "student-1", "parent-1", now, "14:00", "18:00", 2, "{4,7}",
		"", "555-0199", 15.0, 60.0, string(status), string(models.PaymentPending), nil,
		nil, nil, nil,
		5, "great", now,
		nil, nil, nil, nil, nil, version, now, now,
	}
}

func TestCreateBookingStartsAtVersionOne(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{StudentID: "student-1", ParentID: "parent-1", Status: models.BookingPending}
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, 1, booking.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBookingScansReviews(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(columnsOf(bookingColumns)).AddRow(bookingRow("b1", models.BookingCompleted, 3)...))

	booking, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, booking.Status)
	assert.Equal(t, []int64{4, 7}, []int64(booking.ChildrenAges))
	assert.Nil(t, booking.StudentReview())
	require.NotNil(t, booking.ParentReview())
	assert.Equal(t, 5, booking.ParentReview().Rating)
	assert.Equal(t, 3, booking.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingAdvancesVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings SET status = .* WHERE id = .* AND version = ").
		WillReturnResult(sqlmock.NewResult(0, 1))

	booking := &models.Booking{ID: "b1", Status: models.BookingConfirmed, Version: 2}
	require.NoError(t, repo.Update(context.Background(), booking))
	assert.Equal(t, 3, booking.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStaleVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	booking := &models.Booking{ID: "b1", Status: models.BookingConfirmed, Version: 2}
	err := repo.Update(context.Background(), booking)
	assert.ErrorIs(t, err, appErrors.ErrVersionConflict)
	assert.Equal(t, 2, booking.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookingsForParticipant(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	status := models.BookingPending
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE 1=1 AND parent_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 5 OFFSET 5")).
		WithArgs("parent-1", status).
		WillReturnRows(sqlmock.NewRows(columnsOf(bookingColumns)).AddRow(bookingRow("b2", status, 1)...))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE 1=1 AND parent_id = $1 AND status = $2")).
		WithArgs("parent-1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{ParentID: "parent-1", Status: &status, Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 6, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountBookingsByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status AS key, COUNT(*) AS count FROM bookings GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("pending", 3).AddRow("completed", 1))

	rows, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.StatusCount{Key: "pending", Count: 3}, rows[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForExportFiltersStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	status := models.BookingCompleted
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.status = $1 ORDER BY b.date ASC")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "start_time", "end_time", "student_name", "parent_name", "number_of_children", "hourly_rate", "total_amount", "status", "payment_status", "created_at"}).
			AddRow("b1", now, "14:00", "18:00", "Sam Lee", "Pat Kim", 2, 15.0, 60.0, "completed", "paid", now))

	rows, err := repo.ListForExport(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sam Lee", rows[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
