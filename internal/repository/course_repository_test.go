package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fh-academy-api/internal/models"
)

var courseRowColumns = []string{"id", "slug", "title", "summary", "sort_order", "status", "estimated_minutes", "template_id", "created_by", "created_at", "updated_at", "lesson_count"}

func TestListPublishedCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(courseRowColumns).
		AddRow("c1", "getting-started", "Getting Started", "Basics", 1, "published", 30, nil, nil, now, now, 3)
	mock.ExpectQuery(`(?s)FROM courses c WHERE c\.status = \$1 ORDER BY c\.sort_order ASC`).
		WithArgs(models.StatusPublished).
		WillReturnRows(rows)

	status := models.StatusPublished
	courses, err := repo.List(context.Background(), models.CourseFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "getting-started", courses[0].Slug)
	assert.Equal(t, 3, courses[0].LessonCount)
	assert.Nil(t, courses[0].TemplateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLessonsDecodesQuestions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "sort_order", "kind", "title", "content", "video_url", "questions", "required"}).
		AddRow("l1", "c1", 1, "video", "Intro", "", "https://example.com/v", nil, true).
		AddRow("l2", "c1", 2, "quiz", "Check", "", nil, []byte(`[{"question":"Q","options":["a","b"],"correct_answer":1}]`), false)
	mock.ExpectQuery(`FROM lessons WHERE course_id = \$1 ORDER BY sort_order ASC`).WithArgs("c1").WillReturnRows(rows)

	lessons, err := repo.ListLessons(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.NotNil(t, lessons[0].VideoURL)
	assert.Nil(t, lessons[0].Questions)
	assert.Equal(t, models.QuizQuestions{{Question: "Q", Options: []string{"a", "b"}, CorrectAnswer: 1}}, lessons[1].Questions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithLessons(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(sort_order\), 0\) \+ 1 FROM courses`).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))
	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO lessons").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	course := &models.Course{Slug: "memories", Title: "Memories", Status: models.StatusDraft}
	lessons := []models.Lesson{{Kind: models.LessonVideo, Title: "Intro"}, {Kind: models.LessonReading, Title: "Read"}}
	require.NoError(t, repo.CreateWithLessons(context.Background(), course, lessons))

	assert.Equal(t, 4, course.SortOrder)
	assert.Equal(t, 2, course.LessonCount)
	assert.Equal(t, course.ID, course.Lessons[1].CourseID)
	assert.Equal(t, 2, course.Lessons[1].SortOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithLessonsSlugConflictRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectExec("INSERT INTO courses").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateWithLessons(context.Background(), &models.Course{Slug: "taken"}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCourseStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(`UPDATE courses SET status = \$2`).
		WithArgs("missing", models.StatusPublished, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.StatusPublished)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
