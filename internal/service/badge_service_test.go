package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/repository"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/jobs"
	"github.com/noah-isme/fh-academy-api/pkg/mailer"
)

type mockBadgeRepo struct {
	badges    []models.Badge
	awards    map[string][]models.UserBadge
	createErr error
	created   *models.Badge
}

func (m *mockBadgeRepo) List(ctx context.Context, status *models.PublishStatus) ([]models.Badge, error) {
	var out []models.Badge
	for _, b := range m.badges {
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBadgeRepo) FindByID(ctx context.Context, id string) (*models.Badge, error) {
	for _, b := range m.badges {
		if b.ID == id {
			copy := b
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockBadgeRepo) CreateWithCourses(ctx context.Context, badge *models.Badge) error {
	if m.createErr != nil {
		return m.createErr
	}
	badge.ID = "new-badge"
	m.created = badge
	m.badges = append(m.badges, *badge)
	return nil
}

func (m *mockBadgeRepo) UpdateStatus(ctx context.Context, id string, status models.PublishStatus) error {
	for i := range m.badges {
		if m.badges[i].ID == id {
			m.badges[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockBadgeRepo) ListAwards(ctx context.Context, userID string) ([]models.UserBadge, error) {
	return m.awards[userID], nil
}

func (m *mockBadgeRepo) Award(ctx context.Context, userID, badgeID string) (bool, error) {
	if m.awards == nil {
		m.awards = map[string][]models.UserBadge{}
	}
	for _, a := range m.awards[userID] {
		if a.BadgeID == badgeID {
			return false, nil
		}
	}
	m.awards[userID] = append(m.awards[userID], models.UserBadge{UserID: userID, BadgeID: badgeID, AwardedAt: time.Now()})
	return true, nil
}

type stubCompletions map[string][]string

func (s stubCompletions) CompletedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	return s[userID], nil
}

func (s stubCompletions) UsersCompletedAll(ctx context.Context, courseIDs []string) ([]string, error) {
	var out []string
	for userID, done := range s {
		finished := make(map[string]bool, len(done))
		for _, id := range done {
			finished[id] = true
		}
		all := true
		for _, id := range courseIDs {
			all = all && finished[id]
		}
		if all {
			out = append(out, userID)
		}
	}
	sort.Strings(out)
	return out, nil
}

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func badgeFixtures() *mockBadgeRepo {
	return &mockBadgeRepo{badges: []models.Badge{
		{ID: "b1", Key: "starter", Name: "Starter", Icon: "🌱", Status: models.StatusPublished, CourseIDs: []string{"c1"}},
		{ID: "b2", Key: "storyteller", Name: "Storyteller", Status: models.StatusPublished, CourseIDs: []string{"c1", "c3"}},
		{ID: "b3", Key: "hidden", Name: "Hidden", Status: models.StatusDraft, CourseIDs: []string{"c1"}},
		{ID: "b4", Key: "empty", Name: "Empty", Status: models.StatusPublished},
	}}
}

func newTestBadgeService(repo *mockBadgeRepo, completions stubCompletions) (*BadgeService, *mockUserRepo, *recordingMailer) {
	users := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "ada@example.com", DisplayName: "Ada"}}}
	mail := &recordingMailer{}
	return NewBadgeService(repo, completions, users, mail, NewMetricsService(), zap.NewNop()), users, mail
}

func TestBadgeEvaluateAwardsOncePerBadge(t *testing.T) {
	repo := badgeFixtures()
	svc, users, mail := newTestBadgeService(repo, stubCompletions{"u1": {"c1"}})

	awarded, err := svc.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "b1", awarded[0].ID)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ada@example.com", mail.sent[0].To.Address)
	assert.Contains(t, mail.sent[0].Subject, "Starter")
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionBadgeAward, users.auditLogs[0].Action)

	awarded, err = svc.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, awarded)
	assert.Len(t, mail.sent, 1)
	assert.Len(t, repo.awards["u1"], 1)
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().BadgesAwarded)
}

func TestBadgeEvaluateRequiresEveryCourse(t *testing.T) {
	repo := badgeFixtures()
	svc, _, _ := newTestBadgeService(repo, stubCompletions{"u1": {"c1", "c3"}})

	awarded, err := svc.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	ids := []string{}
	for _, b := range awarded {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"b1", "b2"}, ids)
}

func TestBadgeEvaluateMailFailureStillAwards(t *testing.T) {
	repo := badgeFixtures()
	svc, _, mail := newTestBadgeService(repo, stubCompletions{"u1": {"c1"}})
	mail.err = errors.New("smtp down")

	awarded, err := svc.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, awarded, 1)
}

func TestBadgeHandleJob(t *testing.T) {
	repo := badgeFixtures()
	svc, _, _ := newTestBadgeService(repo, stubCompletions{"u1": {"c1"}})

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j1", Payload: "u1"}))
	assert.Len(t, repo.awards["u1"], 1)
	assert.Error(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j2", Payload: 42}))
}

func TestBadgeListForLearner(t *testing.T) {
	repo := badgeFixtures()
	repo.awards = map[string][]models.UserBadge{"u1": {{BadgeID: "b2", AwardedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}}
	svc, _, _ := newTestBadgeService(repo, nil)

	badges, err := svc.ListForLearner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, badges, 3)
	assert.False(t, badges[0].Earned)
	assert.True(t, badges[1].Earned)
	require.NotNil(t, badges[1].AwardedAt)
	assert.Equal(t, 2024, badges[1].AwardedAt.Year())
}

func TestBadgeSaveDraft(t *testing.T) {
	repo := badgeFixtures()
	svc, users, _ := newTestBadgeService(repo, nil)

	catalog := []authoring.CourseSummary{{ID: "c1", Status: authoring.CoursePublishedStatus}}
	draft := authoring.NewBadgeDraft("d1", "a1", catalog)
	require.NoError(t, draft.SetTitle("Family Archivist"))
	require.NoError(t, draft.SetDescription("Finish the basics"))
	require.NoError(t, draft.SetColor("green"))
	require.NoError(t, draft.AddCourse("c1"))
	snap, err := draft.Finalize(false)
	require.NoError(t, err)

	badge, err := svc.SaveDraft(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "family-archivist", badge.Key)
	assert.Equal(t, models.StatusDraft, badge.Status)
	assert.Equal(t, "green", badge.Color)
	assert.Equal(t, []string{"c1"}, repo.created.CourseIDs)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionBadgeCreate, users.auditLogs[0].Action)

	repo.createErr = repository.ErrDuplicate
	_, err = svc.SaveDraft(context.Background(), snap)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBadgePublishAndListAll(t *testing.T) {
	repo := badgeFixtures()
	svc, _, _ := newTestBadgeService(repo, nil)

	badge, err := svc.Publish(context.Background(), adminActor, "b3")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, badge.Status)

	_, err = svc.Publish(context.Background(), adminActor, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.ListAll(context.Background(), studentActor)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	all, err := svc.ListAll(context.Background(), superAdminActor)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestBadgePublishQueuesLearnersWhoAlreadyQualify(t *testing.T) {
	repo := badgeFixtures()
	completions := stubCompletions{"u1": {"c1"}, "u2": {"c2"}, "u3": {"c1", "c3"}}
	svc, _, _ := newTestBadgeService(repo, completions)
	queue := &recordingQueue{}
	svc.UseQueue(queue)

	_, err := svc.Publish(context.Background(), adminActor, "b3")
	require.NoError(t, err)
	require.Len(t, queue.jobs, 2)
	assert.Equal(t, "u1", queue.jobs[0].Key)
	assert.Equal(t, "u3", queue.jobs[1].Key)
	assert.Equal(t, BadgeEvaluationJob, queue.jobs[0].Type)

	require.NoError(t, svc.HandleJob(context.Background(), queue.jobs[0]))
	assert.Len(t, repo.awards["u1"], 2)

	queue.jobs = nil
	_, err = svc.Publish(context.Background(), adminActor, "b4")
	require.NoError(t, err)
	assert.Empty(t, queue.jobs)
}
