package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sitside-api/internal/dto"
	"github.com/noah-isme/sitside-api/internal/middleware"
	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/internal/service"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

type fakeAdminSrv struct {
	user       *models.User
	message    string
	err        error
	lastFilter models.UserFilter
	lastVerify models.VerifyStudentRequest
}

func (f *fakeAdminSrv) ListUsers(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.User{*f.user}, models.NewPagination(filter.Page, filter.PageSize, 1), nil
}

func (f *fakeAdminSrv) ListBookings(_ context.Context, _ string, page, limit int) ([]models.BookingDetail, *models.Pagination, error) {
	return nil, models.NewPagination(page, limit, 0), f.err
}

func (f *fakeAdminSrv) ToggleUser(_ context.Context, _ models.UserInfo, _ string, _ models.RequestMeta) (*models.User, string, error) {
	return f.user, f.message, f.err
}

func (f *fakeAdminSrv) DeleteUser(_ context.Context, _ models.UserInfo, _ string, _ models.RequestMeta) (string, error) {
	return f.message, f.err
}

func (f *fakeAdminSrv) VerifyStudent(_ context.Context, _ models.UserInfo, _ string, req models.VerifyStudentRequest, _ models.RequestMeta) (*models.User, error) {
	f.lastVerify = req
	return f.user, f.err
}

func (f *fakeAdminSrv) ResolveDispute(_ context.Context, _ models.UserInfo, _ string, _ models.ResolveDisputeRequest, _ models.RequestMeta) (*models.BookingDetail, error) {
	return sampleDetail(models.BookingDisputed), f.err
}

type fakeExportSrv struct {
	file       *service.ExportFile
	err        error
	lastFormat string
	lastStatus string
}

func (f *fakeExportSrv) ExportBookings(_ context.Context, _ models.UserInfo, format, status string, _ models.RequestMeta) (*service.ExportFile, error) {
	f.lastFormat, f.lastStatus = format, status
	return f.file, f.err
}

func TestAdminHandlerUsersFilter(t *testing.T) {
	srv := &fakeAdminSrv{user: &models.User{ID: "u1", Role: models.RoleStudent}}
	h := NewAdminHandler(srv, &fakeExportSrv{})

	c, rec := authedContext(http.MethodGet, "/admin/users?userType=student&active=false&search=ann&limit=20", nil, models.RoleAdmin)
	h.Users(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastFilter.Role)
	assert.Equal(t, models.RoleStudent, *srv.lastFilter.Role)
	require.NotNil(t, srv.lastFilter.Active)
	assert.False(t, *srv.lastFilter.Active)
	assert.Equal(t, "ann", srv.lastFilter.Search)
	assert.Equal(t, 20, srv.lastFilter.PageSize)
}

func TestAdminHandlerUsersRejectsBadActive(t *testing.T) {
	h := NewAdminHandler(&fakeAdminSrv{}, &fakeExportSrv{})
	c, rec := authedContext(http.MethodGet, "/admin/users?active=maybe", nil, models.RoleAdmin)
	h.Users(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandlerToggleForbidden(t *testing.T) {
	srv := &fakeAdminSrv{err: appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate admin users")}
	h := NewAdminHandler(srv, &fakeExportSrv{})

	c, rec := authedContext(http.MethodPut, "/admin/users/a1/toggle", nil, models.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	h.ToggleUser(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "cannot deactivate admin users", decodeBody(t, rec)["error"])
}

func TestAdminHandlerVerifyMessages(t *testing.T) {
	srv := &fakeAdminSrv{user: &models.User{ID: "s1", Role: models.RoleStudent, Verified: false}}
	h := NewAdminHandler(srv, &fakeExportSrv{})

	c, rec := authedContext(http.MethodPut, "/admin/users/s1/verify", map[string]interface{}{"verified": false}, models.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	h.VerifyStudent(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Student verification revoked", decodeBody(t, rec)["message"])
	require.NotNil(t, srv.lastVerify.Verified)
	assert.False(t, *srv.lastVerify.Verified)
}

func TestAdminHandlerDeleteMessage(t *testing.T) {
	srv := &fakeAdminSrv{message: "User has bookings and was deactivated instead of deleted"}
	h := NewAdminHandler(srv, &fakeExportSrv{})

	c, rec := authedContext(http.MethodDelete, "/admin/users/p1", nil, models.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	h.DeleteUser(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, srv.message, decodeBody(t, rec)["message"])
}

func TestAdminHandlerExportStreamsFile(t *testing.T) {
	exports := &fakeExportSrv{file: &service.ExportFile{
		Filename:    "bookings-20261016-090000.csv",
		ContentType: models.ExportCSV.ContentType(),
		Content:     []byte("ID,Date\nb1,2026-10-16\n"),
		Rows:        1,
	}}
	h := NewAdminHandler(&fakeAdminSrv{}, exports)

	c, rec := authedContext(http.MethodGet, "/admin/bookings/export?format=csv&status=completed", nil, models.RoleAdmin)
	h.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exports.lastFormat)
	assert.Equal(t, "completed", exports.lastStatus)
	assert.Equal(t, `attachment; filename="bookings-20261016-090000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "ID,Date\nb1,2026-10-16\n", rec.Body.String())
}

func TestAdminHandlerExportInvalidFormat(t *testing.T) {
	exports := &fakeExportSrv{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	h := NewAdminHandler(&fakeAdminSrv{}, exports)

	c, rec := authedContext(http.MethodGet, "/admin/bookings/export?format=doc", nil, models.RoleAdmin)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeDashboardSrv struct {
	hit bool
}

func (f *fakeDashboardSrv) Admin(context.Context) (*dto.AdminDashboardResponse, bool, error) {
	return &dto.AdminDashboardResponse{
		Stats:            dto.DashboardStats{TotalUsers: 3, TotalStudents: 2, TotalParents: 1},
		UsersByRole:      map[string]int{"student": 2, "parent": 1},
		BookingsByStatus: map[string]int{"pending": 1},
	}, f.hit, nil
}

func TestDashboardHandlerCacheHeader(t *testing.T) {
	for _, hit := range []bool{false, true} {
		h := NewDashboardHandler(&fakeDashboardSrv{hit: hit})
		c, rec := authedContext(http.MethodGet, "/admin/dashboard", nil, models.RoleAdmin)
		h.Admin(c)

		require.Equal(t, http.StatusOK, rec.Code)
		expected := "MISS"
		if hit {
			expected = "HIT"
		}
		assert.Equal(t, expected, rec.Header().Get("X-Cache"))
		recorded, ok := middleware.CacheHit(c)
		assert.True(t, ok)
		assert.Equal(t, hit, recorded)

		stats := decodeBody(t, rec)["stats"].(map[string]interface{})
		assert.Equal(t, 3.0, stats["totalUsers"])
	}
}
