package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/repository"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
)

const (
	catalogCachePrefix  = "catalog:"
	catalogPublishedKey = catalogCachePrefix + "published"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindBySlug(ctx context.Context, slug string) (*models.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
	CreateWithLessons(ctx context.Context, course *models.Course, lessons []models.Lesson) error
	UpdateStatus(ctx context.Context, id string, status models.PublishStatus) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CatalogService serves the course catalog and persists finished course drafts.
type CatalogService struct {
	repo   courseRepository
	audit  auditRecorder
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService wires the catalog. cache may be nil.
func NewCatalogService(repo courseRepository, audit auditRecorder, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, audit: audit, cache: cache, ttl: ttl, logger: logger}
}

// ListPublished returns the published courses in catalog order.
func (s *CatalogService) ListPublished(ctx context.Context) ([]models.Course, error) {
	courses, _, err := remember(ctx, s.cache, catalogPublishedKey, s.ttl, func(ctx context.Context) ([]models.Course, error) {
		status := models.StatusPublished
		courses, err := s.repo.List(ctx, models.CourseFilter{Status: &status})
		if courses == nil {
			courses = []models.Course{}
		}
		return courses, err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListAll returns every course including drafts.
func (s *CatalogService) ListAll(ctx context.Context, actor authoring.Actor) ([]models.Course, error) {
	if _, err := authorize(actor, authoring.TabCourses); err != nil {
		return nil, err
	}
	courses, err := s.repo.List(ctx, models.CourseFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// GetBySlug returns a course with its lessons. Unpublished courses are hidden
// unless includeDrafts is set.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Course, error) {
	course, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.StatusPublished && !includeDrafts {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	lessons, err := s.repo.ListLessons(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	course.Lessons = lessons
	course.LessonCount = len(lessons)
	return course, nil
}

// Publish makes a course visible to learners.
func (s *CatalogService) Publish(ctx context.Context, actor authoring.Actor, courseID string) (*models.Course, error) {
	if _, err := authorize(actor, authoring.TabCourses); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, courseID, models.StatusPublished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish course")
	}
	s.invalidate(ctx)
	s.record(ctx, actor.UserID, models.AuditActionCoursePublish, courseID, map[string]interface{}{"status": models.StatusPublished})

	course, err := s.repo.FindByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// SaveDraft persists a finalized course draft with its lessons.
func (s *CatalogService) SaveDraft(ctx context.Context, snap authoring.CourseSnapshot) (*models.Course, error) {
	slug := Slugify(snap.Title)
	if slug == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title must contain letters or digits")
	}

	status := models.StatusDraft
	if snap.Publish {
		status = models.StatusPublished
	}
	course := &models.Course{
		Slug:             slug,
		Title:            snap.Title,
		Summary:          snap.Description,
		Status:           status,
		EstimatedMinutes: snap.DurationMinutes,
		CreatedBy:        optional(snap.OwnerID),
		TemplateID:       optional(snap.TemplateID),
	}

	lessons, err := lessonsFromItems(snap.Items)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to convert content")
	}
	if err := s.repo.CreateWithLessons(ctx, course, lessons); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a course with this title already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course")
	}

	if snap.Publish {
		s.invalidate(ctx)
	}
	s.record(ctx, snap.OwnerID, models.AuditActionCourseCreate, course.ID, map[string]interface{}{
		"slug": course.Slug, "status": course.Status, "lessons": len(lessons), "draft_id": snap.DraftID,
	})
	return course, nil
}

// Summaries returns the whole catalog in the form badge drafts select from.
func (s *CatalogService) Summaries(ctx context.Context) ([]authoring.CourseSummary, error) {
	courses, err := s.repo.List(ctx, models.CourseFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	out := make([]authoring.CourseSummary, len(courses))
	for i, c := range courses {
		out[i] = authoring.CourseSummary{
			ID:               c.ID,
			Title:            c.Title,
			Status:           authoring.CourseStatus(c.Status),
			EstimatedMinutes: c.EstimatedMinutes,
		}
	}
	return out, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}

func (s *CatalogService) record(ctx context.Context, actorID, action, courseID string, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(values)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     optional(actorID),
		Action:     action,
		Resource:   models.AuditResourceCourse,
		ResourceID: &courseID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record course audit log", zap.String("action", action), zap.Error(err))
	}
}

func lessonsFromItems(items []authoring.ContentItem) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, 0, len(items))
	for _, item := range items {
		view := authoring.ViewOf(item)
		lesson := models.Lesson{
			Kind:     models.LessonKind(view.Kind),
			Title:    view.Title,
			Content:  view.Body,
			Required: view.Required,
		}
		switch item.Kind() {
		case authoring.KindVideo:
			lesson.VideoURL = optional(*view.VideoURL)
		case authoring.KindQuiz:
			questions := make(models.QuizQuestions, len(*view.Questions))
			for i, q := range *view.Questions {
				questions[i] = models.QuizQuestion{Question: q.Text, Options: q.Options, CorrectAnswer: q.CorrectAnswer}
			}
			lesson.Questions = questions
		case authoring.KindReading:
		default:
			return nil, errors.New("unsupported content kind " + string(item.Kind()))
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases title, strips accents and joins ASCII alphanumeric runs with hyphens.
func Slugify(title string) string {
	folded, _, err := transform.String(slugFold, title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
