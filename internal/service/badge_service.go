package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/repository"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/jobs"
	"github.com/noah-isme/fh-academy-api/pkg/mailer"
)

type badgeRepository interface {
	List(ctx context.Context, status *models.PublishStatus) ([]models.Badge, error)
	FindByID(ctx context.Context, id string) (*models.Badge, error)
	CreateWithCourses(ctx context.Context, badge *models.Badge) error
	UpdateStatus(ctx context.Context, id string, status models.PublishStatus) error
	ListAwards(ctx context.Context, userID string) ([]models.UserBadge, error)
	Award(ctx context.Context, userID, badgeID string) (bool, error)
}

type completionReader interface {
	CompletedCourseIDs(ctx context.Context, userID string) ([]string, error)
	UsersCompletedAll(ctx context.Context, courseIDs []string) ([]string, error)
}

type badgeUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// BadgeService manages badges and awards them to learners.
type BadgeService struct {
	repo     badgeRepository
	progress completionReader
	users    badgeUserStore
	mail     mailer.Mailer
	queue    JobEnqueuer
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewBadgeService constructs a BadgeService. mail and metrics may be nil.
func NewBadgeService(repo badgeRepository, progress completionReader, users badgeUserStore, mail mailer.Mailer, metrics *MetricsService, logger *zap.Logger) *BadgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{repo: repo, progress: progress, users: users, mail: mail, metrics: metrics, logger: logger}
}

// UseQueue sets the queue that evaluations triggered by Publish go through.
func (s *BadgeService) UseQueue(queue JobEnqueuer) {
	s.queue = queue
}

// ListForLearner returns published badges flagged with whether userID earned them.
func (s *BadgeService) ListForLearner(ctx context.Context, userID string) ([]models.LearnerBadge, error) {
	status := models.StatusPublished
	badges, err := s.repo.List(ctx, &status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list badges")
	}
	awards, err := s.repo.ListAwards(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list awards")
	}
	awardedAt := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		awardedAt[a.BadgeID] = a.AwardedAt
	}

	out := make([]models.LearnerBadge, 0, len(badges))
	for _, b := range badges {
		lb := models.LearnerBadge{Badge: b}
		if at, ok := awardedAt[b.ID]; ok {
			at := at
			lb.Earned = true
			lb.AwardedAt = &at
		}
		out = append(out, lb)
	}
	return out, nil
}

// ListAll returns every badge with its earned count.
func (s *BadgeService) ListAll(ctx context.Context, actor authoring.Actor) ([]models.Badge, error) {
	if _, err := authorize(actor, authoring.TabBadges); err != nil {
		return nil, err
	}
	badges, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list badges")
	}
	return badges, nil
}

// SaveDraft persists a finalized badge draft.
func (s *BadgeService) SaveDraft(ctx context.Context, snap authoring.BadgeSnapshot) (*models.Badge, error) {
	key := Slugify(snap.Title)
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title must contain letters or digits")
	}
	status := models.StatusDraft
	if snap.Publish {
		status = models.StatusPublished
	}
	badge := &models.Badge{
		Key:         key,
		Name:        snap.Title,
		Description: snap.Description,
		Icon:        snap.Icon,
		Color:       snap.Color,
		Status:      status,
		CreatedBy:   optional(snap.OwnerID),
		CourseIDs:   snap.CourseIDs,
	}
	if err := s.repo.CreateWithCourses(ctx, badge); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a badge with this title already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save badge")
	}
	s.record(ctx, snap.OwnerID, models.AuditActionBadgeCreate, badge.ID, map[string]interface{}{
		"key": badge.Key, "status": badge.Status, "courses": badge.CourseIDs, "draft_id": snap.DraftID,
	})
	return badge, nil
}

// Publish makes a badge visible and awardable.
func (s *BadgeService) Publish(ctx context.Context, actor authoring.Actor, badgeID string) (*models.Badge, error) {
	if _, err := authorize(actor, authoring.TabBadges); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, badgeID, models.StatusPublished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "badge not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish badge")
	}
	s.record(ctx, actor.UserID, models.AuditActionBadgePublish, badgeID, map[string]interface{}{"status": models.StatusPublished})

	badge, err := s.repo.FindByID(ctx, badgeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badge")
	}
	s.evaluateQualified(ctx, badge)
	return badge, nil
}

// evaluateQualified queues an evaluation for every learner who already
// finished all of badge's courses.
func (s *BadgeService) evaluateQualified(ctx context.Context, badge *models.Badge) {
	if s.queue == nil || len(badge.CourseIDs) == 0 {
		return
	}
	userIDs, err := s.progress.UsersCompletedAll(ctx, badge.CourseIDs)
	if err != nil {
		s.logger.Warn("failed to find learners for published badge", zap.String("badge_id", badge.ID), zap.Error(err))
		return
	}
	for _, userID := range userIDs {
		enqueueBadgeEvaluation(s.queue, s.logger, userID)
	}
}

// Evaluate awards every published badge whose courses the learner has all
// completed. It returns only the badges awarded by this call.
func (s *BadgeService) Evaluate(ctx context.Context, userID string) ([]models.Badge, error) {
	completedIDs, err := s.progress.CompletedCourseIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load completed courses: %w", err)
	}
	completed := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = struct{}{}
	}

	status := models.StatusPublished
	badges, err := s.repo.List(ctx, &status)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}

	var awarded []models.Badge
	for _, badge := range badges {
		if !earned(badge, completed) {
			continue
		}
		isNew, err := s.repo.Award(ctx, userID, badge.ID)
		if err != nil {
			return awarded, fmt.Errorf("award badge %s: %w", badge.ID, err)
		}
		if !isNew {
			continue
		}
		awarded = append(awarded, badge)
		s.metrics.RecordBadgeAward()
		s.record(ctx, userID, models.AuditActionBadgeAward, badge.ID, map[string]interface{}{"user_id": userID, "key": badge.Key})
		s.congratulate(ctx, userID, badge)
	}
	if len(awarded) > 0 {
		s.logger.Info("badges awarded", zap.String("user_id", userID), zap.Int("count", len(awarded)))
	}
	return awarded, nil
}

// HandleJob processes a queued badge evaluation.
func (s *BadgeService) HandleJob(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(string)
	if !ok || userID == "" {
		return fmt.Errorf("badge evaluation job %s: missing user id", job.ID)
	}
	_, err := s.Evaluate(ctx, userID)
	return err
}

func earned(badge models.Badge, completed map[string]struct{}) bool {
	if len(badge.CourseIDs) == 0 {
		return false
	}
	for _, id := range badge.CourseIDs {
		if _, ok := completed[id]; !ok {
			return false
		}
	}
	return true
}

func (s *BadgeService) congratulate(ctx context.Context, userID string, badge models.Badge) {
	if s.mail == nil || s.users == nil {
		return
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load user for badge mail", zap.String("user_id", userID), zap.Error(err))
		return
	}
	msg := mailer.Message{
		To:      mail.Address{Name: user.DisplayName, Address: user.Email},
		Subject: fmt.Sprintf("You earned the %s badge", badge.Name),
		Text:    fmt.Sprintf("%s Congratulations %s! You completed every course of the %s badge.", badge.Icon, user.DisplayName, badge.Name),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send badge mail", zap.String("user_id", userID), zap.String("badge_id", badge.ID), zap.Error(err))
	}
}

func (s *BadgeService) record(ctx context.Context, actorID, action, badgeID string, values map[string]interface{}) {
	if s.users == nil {
		return
	}
	payload, _ := json.Marshal(values)
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     optional(actorID),
		Action:     action,
		Resource:   models.AuditResourceBadge,
		ResourceID: &badgeID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record badge audit log", zap.String("action", action), zap.Error(err))
	}
}
