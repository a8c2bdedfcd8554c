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

	"github.com/noah-isme/fh-academy-api/internal/models"
)

const userColumns = `id, email, password_hash, display_name, role, created_at`

// UserRepository provides database access for accounts and the audit trail.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
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
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user. A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO users (id, email, password_hash, display_name, role, created_at) VALUES (:id, :email, :password_hash, :display_name, :role, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// ListLearners returns users of the filtered role (students by default)
// together with their progress aggregates.
func (r *UserRepository) ListLearners(ctx context.Context, filter models.UserFilter) ([]models.LearnerSummary, int, error) {
	role := models.RoleStudent
	if filter.Role != nil {
		role = *filter.Role
	}
	where := `WHERE u.role = $1`
	args := []interface{}{role}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (LOWER(u.email) LIKE $%d OR LOWER(u.display_name) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"email":             "u.email",
		"display_name":      "u.display_name",
		"created_at":        "u.created_at",
		"courses_completed": "courses_completed",
		"last_active":       "last_active",
	}
	sortBy, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortBy = "u.created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT u.id, u.email, u.password_hash, u.display_name, u.role, u.created_at,
COUNT(p.id) FILTER (WHERE p.is_course_completed) AS courses_completed,
COUNT(p.id) FILTER (WHERE NOT p.is_course_completed) AS courses_in_progress,
(SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id) AS badges_earned,
MAX(p.last_updated) AS last_active
FROM users u LEFT JOIN user_progress p ON p.user_id = u.id
%s GROUP BY u.id ORDER BY %s %s LIMIT %d OFFSET %d`, where, sortBy, sortOrder, pageSize, offset)

	var learners []models.LearnerSummary
	if err := r.db.SelectContext(ctx, &learners, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list learners: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM users u ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count learners: %w", err)
	}

	return learners, total, nil
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

// DashboardStats returns the headline counts shown to staff.
func (r *UserRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM users WHERE role = 'student') AS learners,
(SELECT COUNT(*) FROM courses) AS courses,
(SELECT COUNT(*) FROM courses WHERE status = 'published') AS published_courses,
(SELECT COUNT(*) FROM badges) AS badges,
(SELECT COUNT(*) FROM user_badges) AS badges_awarded`
	var stats models.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
