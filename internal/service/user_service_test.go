package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/repository"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	learners   []models.LearnerSummary
	listErr    error
	lastFilter models.UserFilter
	stats      models.DashboardStats
	statsErr   error
	auditLogs  []*models.AuditLog
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) ListLearners(ctx context.Context, filter models.UserFilter) ([]models.LearnerSummary, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := append([]models.LearnerSummary(nil), m.learners...)
	return out, len(out), nil
}

func (m *mockUserRepo) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	stats := m.stats
	return &stats, nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

var (
	studentActor    = authoring.Actor{UserID: "s1", Name: "Learner", Role: models.RoleStudent}
	adminActor      = authoring.Actor{UserID: "a1", Name: "Admin", Role: models.RoleAdmin}
	superAdminActor = authoring.Actor{UserID: "sa1", Name: "Owner", Role: models.RoleSuperAdmin}
)

func TestUserServiceListLearnersComputesProgress(t *testing.T) {
	repo := &mockUserRepo{
		learners: []models.LearnerSummary{
			{User: models.User{ID: "u1"}, CoursesCompleted: 1},
			{User: models.User{ID: "u2"}, CoursesCompleted: 3},
			{User: models.User{ID: "u3"}},
		},
		stats: models.DashboardStats{PublishedCourses: 3},
	}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	learners, pagination, err := svc.ListLearners(context.Background(), adminActor, models.UserFilter{Search: "ada"})
	require.NoError(t, err)
	require.Len(t, learners, 3)
	assert.Equal(t, 33, learners[0].TotalProgress)
	assert.Equal(t, 100, learners[1].TotalProgress)
	assert.Equal(t, 0, learners[2].TotalProgress)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 3, pagination.TotalCount)
	assert.Equal(t, "ada", repo.lastFilter.Search)
}

func TestUserServiceListLearnersWithoutPublishedCourses(t *testing.T) {
	repo := &mockUserRepo{learners: []models.LearnerSummary{{User: models.User{ID: "u1"}, CoursesCompleted: 2}}}
	svc := NewUserService(repo, nil, nil)

	learners, _, err := svc.ListLearners(context.Background(), superAdminActor, models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, learners[0].TotalProgress)
}

func TestUserServiceListLearnersDeniesStudents(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	_, _, err := svc.ListLearners(context.Background(), studentActor, models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.lastFilter.Search)
}

func TestUserServiceListLearnersRepoError(t *testing.T) {
	svc := NewUserService(&mockUserRepo{listErr: errors.New("db down")}, nil, nil)

	_, _, err := svc.ListLearners(context.Background(), adminActor, models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGet(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "a@b.c"}}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Get(context.Background(), adminActor, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)

	_, err = svc.Get(context.Background(), adminActor, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), studentActor, "u1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateAdmin(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	req := models.CreateAdminRequest{Email: "Staff@Example.com", Password: "password1", DisplayName: "Staff", Role: models.RoleAdmin}

	user, err := svc.CreateAdmin(context.Background(), superAdminActor, req, models.LoginRequest{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionAdminCreate, repo.auditLogs[0].Action)
	assert.Equal(t, "sa1", *repo.auditLogs[0].UserID)

	_, err = svc.CreateAdmin(context.Background(), superAdminActor, req, models.LoginRequest{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateAdminRequiresSuperAdmin(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)
	req := models.CreateAdminRequest{Email: "staff@example.com", Password: "password1", DisplayName: "Staff", Role: models.RoleAdmin}

	for _, actor := range []authoring.Actor{adminActor, studentActor} {
		_, err := svc.CreateAdmin(context.Background(), actor, req, models.LoginRequest{})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.users)
}

func TestUserServiceCreateAdminRejectsStudentRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)
	req := models.CreateAdminRequest{Email: "staff@example.com", Password: "password1", DisplayName: "Staff", Role: models.RoleStudent}

	_, err := svc.CreateAdmin(context.Background(), superAdminActor, req, models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
