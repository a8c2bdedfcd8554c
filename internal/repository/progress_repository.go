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

const progressColumns = `id, user_id, course_id, completed_lesson_ids, is_course_completed, last_updated`

// ProgressRepository stores per-course learner progress.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Find returns the progress row of a learner in a course.
func (r *ProgressRepository) Find(ctx context.Context, userID, courseID string) (*models.UserProgress, error) {
	const query = `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var progress models.UserProgress
	if err := r.db.GetContext(ctx, &progress, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return &progress, nil
}

// ListByUser returns every progress row of a learner.
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.UserProgress, error) {
	const query = `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 ORDER BY last_updated DESC`
	var rows []models.UserProgress
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

// Upsert writes progress keyed by (user_id, course_id).
func (r *ProgressRepository) Upsert(ctx context.Context, progress *models.UserProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.LastUpdated = time.Now().UTC()

	const query = `INSERT INTO user_progress (id, user_id, course_id, completed_lesson_ids, is_course_completed, last_updated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, course_id) DO UPDATE SET completed_lesson_ids = EXCLUDED.completed_lesson_ids, is_course_completed = EXCLUDED.is_course_completed, last_updated = EXCLUDED.last_updated
RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		progress.ID, progress.UserID, progress.CourseID, progress.CompletedLessonIDs, progress.IsCourseCompleted, progress.LastUpdated,
	).Scan(&progress.ID)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// CompletedCourseIDs lists the courses a learner finished.
func (r *ProgressRepository) CompletedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT course_id FROM user_progress WHERE user_id = $1 AND is_course_completed`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list completed courses: %w", err)
	}
	return ids, nil
}

// UsersCompletedAll lists the learners who finished every one of courseIDs.
func (r *ProgressRepository) UsersCompletedAll(ctx context.Context, courseIDs []string) ([]string, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT user_id FROM user_progress
		WHERE is_course_completed AND course_id = ANY($1)
		GROUP BY user_id HAVING COUNT(DISTINCT course_id) = $2
		ORDER BY user_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(courseIDs), len(courseIDs)); err != nil {
		return nil, fmt.Errorf("list learners completing courses: %w", err)
	}
	return ids, nil
}
