package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/sitside-api/internal/models"
	"github.com/noah-isme/sitside-api/internal/repository"
	appErrors "github.com/noah-isme/sitside-api/pkg/errors"
)

// memBookings is an in-memory booking store honouring the version guard.
type memBookings struct {
	mu         sync.Mutex
	items      map[string]models.Booking
	seq        int
	conflicts  int
	updates    int
	exportRows []models.BookingExportRow
	lastExport *models.BookingStatus
	lastFilter models.BookingFilter
}

func newMemBookings(seed ...models.Booking) *memBookings {
	m := &memBookings{items: make(map[string]models.Booking)}
	for _, b := range seed {
		if b.Version == 0 {
			b.Version = 1
		}
		m.items[b.ID] = b
	}
	return m
}

func (m *memBookings) Create(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	booking.ID = fmt.Sprintf("booking-%d", m.seq)
	booking.Version = 1
	m.items[booking.ID] = *booking
	return nil
}

func (m *memBookings) FindByID(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (m *memBookings) Update(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.conflicts > 0 {
		m.conflicts--
		return appErrors.ErrVersionConflict
	}
	stored, ok := m.items[booking.ID]
	if !ok || stored.Version != booking.Version {
		return appErrors.ErrVersionConflict
	}
	booking.Version++
	m.items[booking.ID] = *booking
	return nil
}

func (m *memBookings) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	var result []models.Booking
	for _, b := range m.items {
		if filter.StudentID != "" && b.StudentID != filter.StudentID {
			continue
		}
		if filter.ParentID != "" && b.ParentID != filter.ParentID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

// parentRatings mirrors the SQL aggregate: every fully reviewed booking counts.
func (m *memBookings) parentRatings(studentID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ratings []int
	for _, b := range m.items {
		if b.StudentID == studentID && b.FullyReviewed() {
			ratings = append(ratings, *b.ParentReviewRating)
		}
	}
	return ratings
}

func (m *memBookings) ListForExport(_ context.Context, status *models.BookingStatus) ([]models.BookingExportRow, error) {
	m.lastExport = status
	return m.exportRows, nil
}

func (m *memBookings) get(id string) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

// memUsers is an in-memory user store covering every user-facing repository interface.
type memUsers struct {
	items         map[string]models.User
	seq           int
	withBookings  map[string]bool
	audits        []*models.AuditLog
	ratingUpdates int
	bookings      *memBookings
	lastSearch    models.StudentSearchFilter
	lastList      models.UserFilter
	findErr       error
}

func newMemUsers(seed ...models.User) *memUsers {
	m := &memUsers{items: make(map[string]models.User), withBookings: make(map[string]bool)}
	for _, u := range seed {
		m.items[u.ID] = u
	}
	return m
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *memUsers) FindSummaries(_ context.Context, ids []string) (map[string]models.UserSummary, error) {
	result := make(map[string]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := m.items[id]; ok {
			result[id] = models.UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: u.Role, Rating: u.Rating}
		}
	}
	return result, nil
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	for _, u := range m.items {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	m.items[user.ID] = *user
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, user *models.User) error {
	if _, ok := m.items[user.ID]; !ok {
		return sql.ErrNoRows
	}
	m.items[user.ID] = *user
	return nil
}

func (m *memUsers) UpdateAvailability(_ context.Context, id string, availability models.Availability) error {
	u, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Availability = &availability
	m.items[id] = u
	return nil
}

func (m *memUsers) UpdateCertifications(_ context.Context, id string, certifications []string) error {
	u, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Certifications = certifications
	m.items[id] = u
	return nil
}

func (m *memUsers) SetActive(_ context.Context, id string, active bool) error {
	u, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = active
	m.items[id] = u
	return nil
}

func (m *memUsers) SetVerification(_ context.Context, id string, verified bool, status models.BackgroundCheckStatus) error {
	u, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Verified = verified
	u.BackgroundCheckStatus = status
	m.items[id] = u
	return nil
}

func (m *memUsers) RecomputeRating(_ context.Context, id string) (float64, int, error) {
	u, ok := m.items[id]
	if !ok {
		return 0, 0, sql.ErrNoRows
	}
	var ratings []int
	if m.bookings != nil {
		ratings = m.bookings.parentRatings(id)
	}
	m.ratingUpdates++
	u.Rating, u.ReviewCount = AggregateRating(ratings)
	m.items[id] = u
	return u.Rating, u.ReviewCount, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memUsers) HasBookings(_ context.Context, id string) (bool, error) {
	return m.withBookings[id], nil
}

func (m *memUsers) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastList = filter
	var result []models.User
	for _, u := range m.items {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		result = append(result, u)
	}
	return result, len(result), nil
}

func (m *memUsers) SearchStudents(_ context.Context, filter models.StudentSearchFilter) ([]models.User, int, error) {
	m.lastSearch = filter
	var result []models.User
	for _, u := range m.items {
		if u.Bookable() {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	return result, len(result), nil
}

func (m *memUsers) CountByRole(_ context.Context) ([]models.StatusCount, error) {
	counts := map[string]int{}
	for _, u := range m.items {
		counts[string(u.Role)]++
	}
	rows := make([]models.StatusCount, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, models.StatusCount{Key: k, Count: v})
	}
	return rows, nil
}

func (m *memUsers) Recent(_ context.Context, limit int) ([]models.UserSummary, error) {
	var rows []models.UserSummary
	for _, u := range m.items {
		if len(rows) == limit {
			break
		}
		rows = append(rows, models.UserSummary{ID: u.ID, FirstName: u.FirstName, Role: u.Role})
	}
	return rows, nil
}

func (m *memUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, log)
	return nil
}

func (m *memUsers) lastAudit() *models.AuditLog {
	if len(m.audits) == 0 {
		return nil
	}
	return m.audits[len(m.audits)-1]
}

func ptr[T any](v T) *T {
	return &v
}

func verifiedStudent(id string, rate float64) models.User {
	return models.User{
		ID:         id,
		Email:      id + "@example.com",
		FirstName:  "Sam",
		LastName:   "Sitter",
		Role:       models.RoleStudent,
		HourlyRate: ptr(rate),
		Verified:   true,
		Active:     true,
	}
}

func parentUser(id string) models.User {
	return models.User{ID: id, Email: id + "@example.com", FirstName: "Pat", LastName: "Parent", Role: models.RoleParent, Active: true}
}

func actorOf(u models.User) models.UserInfo {
	return models.UserInfo{ID: u.ID, Email: u.Email, Role: u.Role}
}
