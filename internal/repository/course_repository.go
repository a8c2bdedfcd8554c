package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fh-academy-api/internal/models"
)

const courseColumns = `c.id, c.slug, c.title, c.summary, c.sort_order, c.status, c.estimated_minutes, c.template_id, c.created_by, c.created_at, c.updated_at,
(SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count`

const lessonColumns = `id, course_id, sort_order, kind, title, content, video_url, questions, required`

// CourseRepository persists courses and their lessons.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses in catalog order.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c`
	var args []interface{}
	if filter.Status != nil {
		query += ` WHERE c.status = $1`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY c.sort_order ASC, c.created_at ASC`

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course without lessons.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	return r.findOne(ctx, `c.id = $1`, id)
}

// FindBySlug returns a course without lessons.
func (r *CourseRepository) FindBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return r.findOne(ctx, `c.slug = $1`, slug)
}

func (r *CourseRepository) findOne(ctx context.Context, cond string, arg interface{}) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE ` + cond + ` LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ListLessons returns the lessons of a course in order.
func (r *CourseRepository) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	const query = `SELECT ` + lessonColumns + ` FROM lessons WHERE course_id = $1 ORDER BY sort_order ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// CreateWithLessons inserts a course at the end of the catalog together with
// its lessons in a single transaction. A taken slug yields ErrDuplicate.
func (r *CourseRepository) CreateWithLessons(ctx context.Context, course *models.Course, lessons []models.Lesson) (err error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt, course.UpdatedAt = now, now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &course.SortOrder, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM courses`); err != nil {
		return fmt.Errorf("next course order: %w", err)
	}

	const insertCourse = `INSERT INTO courses (id, slug, title, summary, sort_order, status, estimated_minutes, template_id, created_by, created_at, updated_at) VALUES (:id, :slug, :title, :summary, :sort_order, :status, :estimated_minutes, :template_id, :created_by, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertCourse, course); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert course: %w", err)
	}

	const insertLesson = `INSERT INTO lessons (id, course_id, sort_order, kind, title, content, video_url, questions, required) VALUES (:id, :course_id, :sort_order, :kind, :title, :content, :video_url, :questions, :required)`
	for i := range lessons {
		lesson := &lessons[i]
		if lesson.ID == "" {
			lesson.ID = uuid.NewString()
		}
		lesson.CourseID = course.ID
		lesson.SortOrder = i + 1
		if _, err = tx.NamedExecContext(ctx, insertLesson, lesson); err != nil {
			return fmt.Errorf("insert lesson %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit course tx: %w", err)
	}
	course.Lessons = lessons
	course.LessonCount = len(lessons)
	return nil
}

// UpdateStatus changes the publication status. A missing course yields sql.ErrNoRows.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status models.PublishStatus) error {
	const query = `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
