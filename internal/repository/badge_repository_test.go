package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fh-academy-api/internal/models"
)

var badgeRowColumns = []string{"id", "key", "name", "description", "icon", "color", "status", "created_by", "created_at", "students_earned"}

func TestListBadgesAttachesCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	now := time.Now()
	mock.ExpectQuery(`(?s)FROM badges b ORDER BY b\.created_at ASC`).
		WillReturnRows(sqlmock.NewRows(badgeRowColumns).
			AddRow("b1", "explorer", "Explorer", "d", "🏆", "blue", "published", nil, now, 4).
			AddRow("b2", "empty", "Empty", "d", "🏆", "red", "draft", nil, now, 0))
	mock.ExpectQuery(`FROM badge_courses WHERE badge_id = ANY\(\$1\) ORDER BY badge_id, position`).
		WillReturnRows(sqlmock.NewRows([]string{"badge_id", "course_id", "position"}).
			AddRow("b1", "c2", 1).
			AddRow("b1", "c1", 2))

	badges, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, []string{"c2", "c1"}, badges[0].CourseIDs)
	assert.Equal(t, 4, badges[0].StudentsEarned)
	assert.Equal(t, []string{}, badges[1].CourseIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBadgeWithCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO badges").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO badge_courses").WithArgs(sqlmock.AnyArg(), "c1", 1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO badge_courses").WithArgs(sqlmock.AnyArg(), "c3", 2).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	badge := &models.Badge{Key: "explorer", Name: "Explorer", Status: models.StatusPublished, CourseIDs: []string{"c1", "c3"}}
	require.NoError(t, repo.CreateWithCourses(context.Background(), badge))
	assert.NotEmpty(t, badge.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	mock.ExpectExec(`INSERT INTO user_badges .* ON CONFLICT \(user_id, badge_id\) DO NOTHING`).
		WithArgs(sqlmock.AnyArg(), "u1", "b1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO user_badges`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Award(context.Background(), "u1", "b1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Award(context.Background(), "u1", "b1")
	require.NoError(t, err)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
