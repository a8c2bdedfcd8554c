package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/fh-academy-api/internal/models"
)

const badgeColumns = `b.id, b.key, b.name, b.description, b.icon, b.color, b.status, b.created_by, b.created_at,
(SELECT COUNT(*) FROM user_badges ub WHERE ub.badge_id = b.id) AS students_earned`

// BadgeRepository persists badges, their courses and awards.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository creates a BadgeRepository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// List returns badges with their ordered course ids.
func (r *BadgeRepository) List(ctx context.Context, status *models.PublishStatus) ([]models.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges b`
	var args []interface{}
	if status != nil {
		query += ` WHERE b.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY b.created_at ASC`

	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, query, args...); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	if err := r.attachCourses(ctx, badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// FindByID returns one badge with its course ids.
func (r *BadgeRepository) FindByID(ctx context.Context, id string) (*models.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges b WHERE b.id = $1 LIMIT 1`
	var badge models.Badge
	if err := r.db.GetContext(ctx, &badge, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find badge: %w", err)
	}
	badges := []models.Badge{badge}
	if err := r.attachCourses(ctx, badges); err != nil {
		return nil, err
	}
	return &badges[0], nil
}

func (r *BadgeRepository) attachCourses(ctx context.Context, badges []models.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	ids := make([]string, len(badges))
	index := make(map[string]int, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
		index[b.ID] = i
		badges[i].CourseIDs = []string{}
	}

	const query = `SELECT badge_id, course_id, position FROM badge_courses WHERE badge_id = ANY($1) ORDER BY badge_id, position`
	var links []models.BadgeCourse
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list badge courses: %w", err)
	}
	for _, link := range links {
		if i, ok := index[link.BadgeID]; ok {
			badges[i].CourseIDs = append(badges[i].CourseIDs, link.CourseID)
		}
	}
	return nil
}

// CreateWithCourses inserts a badge and its course links in one transaction.
// A taken key yields ErrDuplicate.
func (r *BadgeRepository) CreateWithCourses(ctx context.Context, badge *models.Badge) (err error) {
	if badge.ID == "" {
		badge.ID = uuid.NewString()
	}
	badge.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin badge tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertBadge = `INSERT INTO badges (id, key, name, description, icon, color, status, created_by, created_at) VALUES (:id, :key, :name, :description, :icon, :color, :status, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertBadge, badge); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert badge: %w", err)
	}

	const insertLink = `INSERT INTO badge_courses (badge_id, course_id, position) VALUES ($1, $2, $3)`
	for i, courseID := range badge.CourseIDs {
		if _, err = tx.ExecContext(ctx, insertLink, badge.ID, courseID, i+1); err != nil {
			return fmt.Errorf("insert badge course %s: %w", courseID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit badge tx: %w", err)
	}
	return nil
}

// UpdateStatus changes the publication status. A missing badge yields sql.ErrNoRows.
func (r *BadgeRepository) UpdateStatus(ctx context.Context, id string, status models.PublishStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE badges SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update badge status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListAwards returns the badges a learner earned.
func (r *BadgeRepository) ListAwards(ctx context.Context, userID string) ([]models.UserBadge, error) {
	const query = `SELECT id, user_id, badge_id, awarded_at FROM user_badges WHERE user_id = $1 ORDER BY awarded_at ASC`
	var awards []models.UserBadge
	if err := r.db.SelectContext(ctx, &awards, query, userID); err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	return awards, nil
}

// Award grants a badge once. It reports false when the learner already held it.
func (r *BadgeRepository) Award(ctx context.Context, userID, badgeID string) (bool, error) {
	const query = `INSERT INTO user_badges (id, user_id, badge_id, awarded_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, badge_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, badgeID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award badge rows: %w", err)
	}
	return n == 1, nil
}
