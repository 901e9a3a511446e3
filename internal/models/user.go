package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// UserRole represents the marketplace side an account belongs to.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleParent  UserRole = "parent"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// BackgroundCheckStatus tracks the sitter vetting state.
type BackgroundCheckStatus string

const (
	BackgroundCheckPending     BackgroundCheckStatus = "pending"
	BackgroundCheckApproved    BackgroundCheckStatus = "approved"
	BackgroundCheckRejected    BackgroundCheckStatus = "rejected"
	BackgroundCheckNotRequired BackgroundCheckStatus = "not_required"
)

const (
	DefaultHourlyRate = 15.0
	MinHourlyRate     = 5.0
	MaxHourlyRate     = 50.0
	MinGrade          = 9
	MaxGrade          = 12
)

// DayAvailability marks the parts of a day a sitter can work.
type DayAvailability struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
}

// Availability is the weekly availability grid stored as JSONB.
type Availability struct {
	Monday    DayAvailability `json:"monday"`
	Tuesday   DayAvailability `json:"tuesday"`
	Wednesday DayAvailability `json:"wednesday"`
	Thursday  DayAvailability `json:"thursday"`
	Friday    DayAvailability `json:"friday"`
	Saturday  DayAvailability `json:"saturday"`
	Sunday    DayAvailability `json:"sunday"`
}

// DefaultAvailability is assigned to students who register without a grid:
// weekday afternoons and evenings, Saturday all day, Sunday until evening.
func DefaultAvailability() Availability {
	weekday := DayAvailability{Afternoon: true, Evening: true}
	return Availability{
		Monday:    weekday,
		Tuesday:   weekday,
		Wednesday: weekday,
		Thursday:  weekday,
		Friday:    weekday,
		Saturday:  DayAvailability{Morning: true, Afternoon: true, Evening: true},
		Sunday:    DayAvailability{Morning: true, Afternoon: true},
	}
}

// Value implements driver.Valuer. The grid is sent as text so Postgres parses it as JSONB.
func (a Availability) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *Availability) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Availability{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan availability: unsupported type %T", src)
	}
	if len(raw) == 0 {
		return errors.New("scan availability: empty value")
	}
	return json.Unmarshal(raw, a)
}

// User represents an account stored in the users table.
type User struct {
	ID                    string                `db:"id" json:"id"`
	Email                 string                `db:"email" json:"email"`
	PasswordHash          string                `db:"password_hash" json:"-"`
	FirstName             string                `db:"first_name" json:"firstName"`
	LastName              string                `db:"last_name" json:"lastName"`
	Phone                 string                `db:"phone" json:"phone"`
	Role                  UserRole              `db:"role" json:"userType"`
	Grade                 *int                  `db:"grade" json:"grade,omitempty"`
	School                *string               `db:"school" json:"school,omitempty"`
	Bio                   *string               `db:"bio" json:"bio,omitempty"`
	HourlyRate            *float64              `db:"hourly_rate" json:"hourlyRate,omitempty"`
	Experience            *string               `db:"experience" json:"experience,omitempty"`
	Certifications        pq.StringArray        `db:"certifications" json:"certifications"`
	Location              *string               `db:"location" json:"location,omitempty"`
	Availability          *Availability         `db:"availability" json:"availability,omitempty"`
	EmergencyContact      *string               `db:"emergency_contact" json:"emergencyContact,omitempty"`
	ProfileImage          *string               `db:"profile_image" json:"profileImage,omitempty"`
	Rating                float64               `db:"rating" json:"rating"`
	ReviewCount           int                   `db:"review_count" json:"reviewCount"`
	Verified              bool                  `db:"is_verified" json:"isVerified"`
	Active                bool                  `db:"is_active" json:"isActive"`
	BackgroundCheckStatus BackgroundCheckStatus `db:"background_check_status" json:"backgroundCheckStatus"`
	CreatedAt             time.Time             `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time             `db:"updated_at" json:"updatedAt"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Bookable reports whether parents may book this account as a sitter.
func (u *User) Bookable() bool {
	return u.Role == RoleStudent && u.Active && u.Verified
}

// UserSummary is the public projection embedded in booking and dashboard payloads.
type UserSummary struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Role         UserRole  `db:"role" json:"userType"`
	Rating       float64   `db:"rating" json:"rating"`
	ProfileImage *string   `db:"profile_image" json:"profileImage,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// UserFilter captures filtering criteria for the admin user listing.
type UserFilter struct {
	Role     *UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// StudentSearchFilter captures the sitter browse/search criteria. Only active, verified
// students are ever returned.
type StudentSearchFilter struct {
	Query      string
	Location   string
	MaxRate    *float64
	Experience *int
	Page       int
	PageSize   int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination normalises page/limit and derives the page count.
func NewPagination(page, limit, total int) *Pagination {
	page, limit = NormalizePage(page, limit)
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// NormalizePage clamps paging input to sane values (page >= 1, 1 <= limit <= 100, default 10).
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
