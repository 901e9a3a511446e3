package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sitside-api/internal/models"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

func newBookingFixture(t *testing.T, bookings ...models.Booking) (*BookingService, *memBookings, *memUsers) {
	t.Helper()
	store := newMemBookings(bookings...)
	users := newMemUsers(verifiedStudent("s1", 15), parentUser("p1"), parentUser("p2"))
	svc := NewBookingService(store, users, nil, nil, nil, zap.NewNop(), BookingConfig{})
	return svc, store, users
}

func validBookingRequest() models.CreateBookingRequest {
	return models.CreateBookingRequest{
		StudentID:        "s1",
		Date:             "2026-11-02",
		StartTime:        "14:00",
		EndTime:          "18:00",
		NumberOfChildren: 2,
		ChildrenAges:     []int64{4, 7},
		EmergencyContact: "Grandma 555-0100",
	}
}

func TestBookingServiceCreate(t *testing.T) {
	svc, store, users := newBookingFixture(t)

	detail, err := svc.Create(context.Background(), actorOf(users.items["p1"]), validBookingRequest())
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, detail.Status)
	assert.Equal(t, models.PaymentPending, detail.PaymentStatus)
	assert.Equal(t, 15.0, detail.HourlyRate)
	assert.Equal(t, 60.0, detail.TotalAmount)
	assert.Equal(t, "p1", detail.ParentID)
	require.NotNil(t, detail.Student)
	assert.Equal(t, "Sam", detail.Student.FirstName)
	require.NotNil(t, detail.Parent)
	assert.Equal(t, "2026-11-02", detail.Date.Format(dateLayout))
	assert.Len(t, store.items, 1)
}

func TestBookingServiceCreateCopiesStudentRate(t *testing.T) {
	svc, _, users := newBookingFixture(t)
	student := users.items["s1"]
	student.HourlyRate = ptr(22.5)
	users.items["s1"] = student

	req := validBookingRequest()
	req.StartTime, req.EndTime = "18:00", "20:30"
	detail, err := svc.Create(context.Background(), actorOf(users.items["p1"]), req)
	require.NoError(t, err)
	assert.Equal(t, 22.5, detail.HourlyRate)
	assert.Equal(t, 56.25, detail.TotalAmount)
}

func TestBookingServiceCreateRejects(t *testing.T) {
	svc, store, users := newBookingFixture(t)
	users.items["s2"] = models.User{ID: "s2", Role: models.RoleStudent, Active: true}
	users.items["s3"] = models.User{ID: "s3", Role: models.RoleStudent, Active: false, Verified: true}

	tests := []struct {
		name   string
		actor  models.UserInfo
		mutate func(*models.CreateBookingRequest)
		want   *appErrors.Error
	}{
		{"student cannot book", actorOf(users.items["s1"]), func(*models.CreateBookingRequest) {}, appErrors.ErrForbidden},
		{"unverified student", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.StudentID = "s2" }, appErrors.ErrValidation},
		{"inactive student", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.StudentID = "s3" }, appErrors.ErrNotFound},
		{"unknown student", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.StudentID = "nobody" }, appErrors.ErrNotFound},
		{"booking a parent", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.StudentID = "p2" }, appErrors.ErrNotFound},
		{"end before start", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.EndTime = "13:00" }, appErrors.ErrValidation},
		{"bad date", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.Date = "02/11/2026" }, appErrors.ErrValidation},
		{"too many children", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.NumberOfChildren = 11 }, appErrors.ErrValidation},
		{"child age out of range", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.ChildrenAges = []int64{19} }, appErrors.ErrValidation},
		{"missing emergency contact", actorOf(users.items["p1"]), func(r *models.CreateBookingRequest) { r.EmergencyContact = "" }, appErrors.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validBookingRequest()
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), tc.actor, req)
			require.Error(t, err)
			assert.Equal(t, tc.want.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, store.items)
}

func TestBookingServiceGetAccess(t *testing.T) {
	svc, _, users := newBookingFixture(t, models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingPending})

	_, err := svc.Get(context.Background(), actorOf(users.items["p1"]), "b1")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), models.UserInfo{ID: "admin", Role: models.RoleAdmin}, "b1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), actorOf(users.items["p2"]), "b1")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Get(context.Background(), actorOf(users.items["p1"]), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestBookingServiceListMine(t *testing.T) {
	svc, store, users := newBookingFixture(t,
		models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingPending},
		models.Booking{ID: "b2", StudentID: "s1", ParentID: "p2", Status: models.BookingConfirmed},
		models.Booking{ID: "b3", StudentID: "s1", ParentID: "p1", Status: models.BookingConfirmed},
	)

	items, pagination, err := svc.ListMine(context.Background(), actorOf(users.items["p1"]), "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, "p1", store.lastFilter.ParentID)

	items, _, err = svc.ListMine(context.Background(), actorOf(users.items["s1"]), "confirmed", 1, 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "s1", store.lastFilter.StudentID)

	_, _, err = svc.ListMine(context.Background(), actorOf(users.items["p1"]), "bogus", 1, 10)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.ListMine(context.Background(), models.UserInfo{ID: "a", Role: models.RoleAdmin}, "", 1, 10)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestBookingServiceLifecycle(t *testing.T) {
	svc, store, users := newBookingFixture(t, models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingPending})
	ctx := context.Background()
	student, parent := actorOf(users.items["s1"]), actorOf(users.items["p1"])

	_, err := svc.UpdateStatus(ctx, student, "b1", models.UpdateBookingStatusRequest{Status: "completed"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	detail, err := svc.UpdateStatus(ctx, student, "b1", models.UpdateBookingStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, detail.Status)

	_, err = svc.Complete(ctx, student, "b1")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	detail, err = svc.Complete(ctx, parent, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, detail.Status)

	_, err = svc.UpdateStatus(ctx, parent, "b1", models.UpdateBookingStatusRequest{Status: "cancelled"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, models.BookingCompleted, store.get("b1").Status)
	assert.Equal(t, 3, store.get("b1").Version)
}

func TestBookingServiceCancelStoresReason(t *testing.T) {
	svc, store, users := newBookingFixture(t, models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingConfirmed})

	_, err := svc.UpdateStatus(context.Background(), actorOf(users.items["p1"]), "b1", models.UpdateBookingStatusRequest{Status: " Cancelled ", Reason: "kids are sick"})
	require.NoError(t, err)
	stored := store.get("b1")
	assert.Equal(t, models.BookingCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReason)
	assert.Equal(t, "kids are sick", *stored.CancellationReason)
}

func TestBookingServiceNonParticipantTransition(t *testing.T) {
	svc, _, users := newBookingFixture(t, models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingPending})

	_, err := svc.UpdateStatus(context.Background(), actorOf(users.items["p2"]), "b1", models.UpdateBookingStatusRequest{Status: "cancelled"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestBookingServiceRetriesVersionConflicts(t *testing.T) {
	svc, store, users := newBookingFixture(t, models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingPending})
	store.conflicts = 2

	detail, err := svc.UpdateStatus(context.Background(), actorOf(users.items["s1"]), "b1", models.UpdateBookingStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, detail.Status)
	assert.Equal(t, 3, store.updates)
}

func TestBookingServiceRetryExhaustion(t *testing.T) {
	svc, store, users := newBookingFixture(t, models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingPending})
	store.conflicts = 10

	_, err := svc.UpdateStatus(context.Background(), actorOf(users.items["s1"]), "b1", models.UpdateBookingStatusRequest{Status: "confirmed"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 3, store.updates)
	assert.Equal(t, models.BookingPending, store.get("b1").Status)
}

func TestBookingServiceRaiseDispute(t *testing.T) {
	svc, store, users := newBookingFixture(t,
		models.Booking{ID: "b1", StudentID: "s1", ParentID: "p1", Status: models.BookingCompleted},
		models.Booking{ID: "b2", StudentID: "s1", ParentID: "p1", Status: models.BookingPending},
	)
	ctx := context.Background()

	_, err := svc.RaiseDispute(ctx, actorOf(users.items["p1"]), "b1", models.DisputeRequest{Reason: "  "})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	detail, err := svc.RaiseDispute(ctx, actorOf(users.items["s1"]), "b1", models.DisputeRequest{Reason: "left early"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingDisputed, detail.Status)
	stored := store.get("b1")
	require.NotNil(t, stored.DisputeResolution)
	assert.Equal(t, models.ResolutionPending, *stored.DisputeResolution)
	assert.Equal(t, "left early", *stored.DisputeReason)

	_, err = svc.RaiseDispute(ctx, actorOf(users.items["p1"]), "b2", models.DisputeRequest{Reason: "no show"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.RaiseDispute(ctx, actorOf(users.items["p2"]), "b1", models.DisputeRequest{Reason: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}
