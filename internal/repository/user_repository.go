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
)

// ErrDuplicateEmail is returned when the unique email index rejects an insert.
var ErrDuplicateEmail = errors.New("email already registered")

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, grade, school, bio, hourly_rate,
experience, certifications, location, availability, emergency_contact, profile_image, rating, review_count,
is_verified, is_active, background_check_status, created_at, updated_at`

const summaryColumns = `id, first_name, last_name, email, phone, role, rating, profile_image, created_at`

// UserRepository provides database access for accounts and the audit trail.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindSummaries loads the public projection for the given ids.
func (r *UserRepository) FindSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	result := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `SELECT ` + summaryColumns + ` FROM users WHERE id = ANY($1)`
	var rows []models.UserSummary
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find user summaries: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

// Create inserts a new user. A clash on the email index yields ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Certifications == nil {
		user.Certifications = pq.StringArray{}
	}

	const query = `INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, grade, school, bio,
hourly_rate, experience, certifications, location, availability, emergency_contact, profile_image, rating, review_count,
is_verified, is_active, background_check_status, created_at, updated_at)
VALUES (:id, :email, :password_hash, :first_name, :last_name, :phone, :role, :grade, :school, :bio,
:hourly_rate, :experience, :certifications, :location, :availability, :emergency_contact, :profile_image, :rating, :review_count,
:is_verified, :is_active, :background_check_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile persists the self-service profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET first_name = :first_name, last_name = :last_name, phone = :phone, bio = :bio,
hourly_rate = :hourly_rate, experience = :experience, certifications = :certifications, location = :location,
availability = :availability, emergency_contact = :emergency_contact, profile_image = :profile_image,
updated_at = :updated_at WHERE id = :id`
	return r.namedUpdate(ctx, "update user profile", query, user)
}

// UpdateAvailability replaces the weekly availability grid.
func (r *UserRepository) UpdateAvailability(ctx context.Context, id string, availability models.Availability) error {
	const query = `UPDATE users SET availability = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, "update availability", query, id, availability, time.Now().UTC())
}

// UpdateCertifications replaces the certification list.
func (r *UserRepository) UpdateCertifications(ctx context.Context, id string, certifications []string) error {
	const query = `UPDATE users SET certifications = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, "update certifications", query, id, pq.StringArray(certifications), time.Now().UTC())
}

// SetActive toggles the account status.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, "set user active", query, id, active, time.Now().UTC())
}

// SetVerification records the vetting outcome for a student.
func (r *UserRepository) SetVerification(ctx context.Context, id string, verified bool, status models.BackgroundCheckStatus) error {
	const query = `UPDATE users SET is_verified = $2, background_check_status = $3, updated_at = $4 WHERE id = $1`
	return r.exec(ctx, "set user verification", query, id, verified, status, time.Now().UTC())
}

// recomputeRatingQuery counts any booking reviewed by both sides, whatever its later status.
const recomputeRatingQuery = `UPDATE users SET rating = agg.rating, review_count = agg.review_count, updated_at = $2
FROM (
	SELECT COALESCE(ROUND(AVG(parent_review_rating)::numeric, 1), 0)::float8 AS rating, COUNT(*) AS review_count
	FROM bookings
	WHERE student_id = $1 AND student_review_rating IS NOT NULL AND parent_review_rating IS NOT NULL
) AS agg
WHERE users.id = $1
RETURNING users.rating, users.review_count`

// RecomputeRating rebuilds rating and review_count from every booking of the student
// carrying both reviews. The student row is locked first so concurrent recomputes
// serialize and the last one aggregates over every committed review.
func (r *UserRepository) RecomputeRating(ctx context.Context, id string) (rating float64, reviewCount int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin rating transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("lock user for rating: %w", err)
	}

	var result struct {
		Rating      float64 `db:"rating"`
		ReviewCount int     `db:"review_count"`
	}
	if err = tx.GetContext(ctx, &result, recomputeRatingQuery, id, time.Now().UTC()); err != nil {
		return 0, 0, fmt.Errorf("update user rating: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit user rating: %w", err)
	}
	return result.Rating, result.ReviewCount, nil
}

// Delete removes the account row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	return r.exec(ctx, "delete user", query, id)
}

// HasBookings reports whether the user participates in any booking.
func (r *UserRepository) HasBookings(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bookings WHERE student_id = $1 OR parent_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check user bookings: %w", err)
	}
	return exists, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", userColumns, baseQuery, pageSize, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// SearchStudents lists bookable students ordered by rating then review count.
func (r *UserRepository) SearchStudents(ctx context.Context, filter models.StudentSearchFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE role = 'student' AND is_active = TRUE AND is_verified = TRUE`
	var args []interface{}

	if filter.Location != "" {
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
		baseQuery += fmt.Sprintf(" AND LOWER(COALESCE(location, '')) LIKE $%d", len(args))
	}
	if filter.MaxRate != nil {
		args = append(args, *filter.MaxRate)
		baseQuery += fmt.Sprintf(" AND hourly_rate <= $%d", len(args))
	}
	if filter.Experience != nil {
		args = append(args, fmt.Sprintf(`\y%d\+?`, *filter.Experience))
		baseQuery += fmt.Sprintf(" AND COALESCE(experience, '') ~* $%d", len(args))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		idx := len(args)
		baseQuery += fmt.Sprintf(" AND (LOWER(first_name) LIKE $%[1]d OR LOWER(last_name) LIKE $%[1]d OR LOWER(COALESCE(school, '')) LIKE $%[1]d OR LOWER(COALESCE(location, '')) LIKE $%[1]d OR LOWER(COALESCE(bio, '')) LIKE $%[1]d)", idx)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY rating DESC, review_count DESC, created_at DESC LIMIT %d OFFSET %d", userColumns, baseQuery, pageSize, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("search students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return users, total, nil
}

// CountByRole groups account counts by role.
func (r *UserRepository) CountByRole(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT role AS key, COUNT(*) AS count FROM users GROUP BY role`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	return rows, nil
}

// Recent returns the newest accounts.
func (r *UserRepository) Recent(ctx context.Context, limit int) ([]models.UserSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`
	var rows []models.UserSummary
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}
	return rows, nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(result, op)
}

func (r *UserRepository) namedUpdate(ctx context.Context, op, query string, arg interface{}) error {
	result, err := r.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireAffected(result, op)
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
