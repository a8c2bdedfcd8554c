package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/models"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/jobs"
)

// BadgeEvaluationJob is the job type that re-checks a learner's badges.
const BadgeEvaluationJob = "badge.evaluate"

type progressRepository interface {
	Find(ctx context.Context, userID, courseID string) (*models.UserProgress, error)
	ListByUser(ctx context.Context, userID string) ([]models.UserProgress, error)
	Upsert(ctx context.Context, progress *models.UserProgress) error
}

type progressCourseReader interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
}

type awardLister interface {
	ListAwards(ctx context.Context, userID string) ([]models.UserBadge, error)
}

// JobEnqueuer accepts background jobs.
type JobEnqueuer interface {
	Enqueue(job jobs.Job) (bool, error)
}

// ProgressService records lesson completion and reports learner progress.
type ProgressService struct {
	progress progressRepository
	courses  progressCourseReader
	awards   awardLister
	queue    JobEnqueuer
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewProgressService constructs a ProgressService. queue may be nil.
func NewProgressService(progress progressRepository, courses progressCourseReader, awards awardLister, queue JobEnqueuer, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{progress: progress, courses: courses, awards: awards, queue: queue, logger: logger}
}

// CompleteLesson marks a lesson done. Completing it again changes nothing.
// The course is complete once every required lesson is done.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*models.LessonCompletion, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.StatusPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	lessons, err := s.courses.ListLessons(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if !hasLesson(lessons, lessonID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.progress.Find(ctx, userID, courseID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		progress = &models.UserProgress{UserID: userID, CourseID: courseID, CompletedLessonIDs: models.StringList{}}
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}

	if progress.CompletedLessonIDs.Contains(lessonID) {
		return &models.LessonCompletion{Progress: *progress, CourseCompleted: progress.IsCourseCompleted, AlreadyDone: true}, nil
	}

	progress.CompletedLessonIDs = append(progress.CompletedLessonIDs, lessonID)
	wasComplete := progress.IsCourseCompleted
	progress.IsCourseCompleted = wasComplete || requiredDone(lessons, progress.CompletedLessonIDs)

	if err := s.progress.Upsert(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save progress")
	}

	if progress.IsCourseCompleted && !wasComplete {
		s.enqueueEvaluation(userID)
	}
	return &models.LessonCompletion{Progress: *progress, CourseCompleted: progress.IsCourseCompleted}, nil
}

// Summary reports the learner's standing in every published course.
func (s *ProgressService) Summary(ctx context.Context, userID string) (*models.ProgressSummary, error) {
	status := models.StatusPublished
	courses, err := s.courses.List(ctx, models.CourseFilter{Status: &status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	byCourse := make(map[string]models.UserProgress, len(rows))
	for _, row := range rows {
		byCourse[row.CourseID] = row
	}

	summary := &models.ProgressSummary{Courses: make([]models.CourseProgress, 0, len(courses))}
	for _, course := range courses {
		entry := models.CourseProgress{CourseID: course.ID, Slug: course.Slug, Title: course.Title, TotalLessons: course.LessonCount}
		if row, ok := byCourse[course.ID]; ok {
			entry.CompletedLessons = len(row.CompletedLessonIDs)
			if entry.CompletedLessons > entry.TotalLessons {
				entry.CompletedLessons = entry.TotalLessons
			}
			entry.Completed = row.IsCourseCompleted
		}
		entry.Percent = percent(entry.CompletedLessons, entry.TotalLessons)
		if entry.Completed {
			entry.Percent = 100
			summary.CoursesCompleted++
		}
		summary.Courses = append(summary.Courses, entry)
	}
	summary.TotalProgress = percent(summary.CoursesCompleted, len(courses))

	if s.awards != nil {
		awards, err := s.awards.ListAwards(ctx, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badges")
		}
		summary.BadgesEarned = len(awards)
	}
	return summary, nil
}

func (s *ProgressService) enqueueEvaluation(userID string) {
	enqueueBadgeEvaluation(s.queue, s.logger, userID)
}

func enqueueBadgeEvaluation(queue JobEnqueuer, logger *zap.Logger, userID string) {
	if queue == nil {
		return
	}
	queued, err := queue.Enqueue(jobs.Job{Type: BadgeEvaluationJob, Key: userID, Payload: userID})
	if err != nil {
		logger.Warn("failed to enqueue badge evaluation", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !queued {
		logger.Debug("badge evaluation already pending", zap.String("user_id", userID))
	}
}

func hasLesson(lessons []models.Lesson, id string) bool {
	for _, l := range lessons {
		if l.ID == id {
			return true
		}
	}
	return false
}

// requiredDone reports whether every required lesson is in done. A course
// without required lessons needs all of them.
func requiredDone(lessons []models.Lesson, done models.StringList) bool {
	if len(lessons) == 0 {
		return false
	}
	anyRequired := false
	for _, l := range lessons {
		if l.Required {
			anyRequired = true
			if !done.Contains(l.ID) {
				return false
			}
		}
	}
	if anyRequired {
		return true
	}
	for _, l := range lessons {
		if !done.Contains(l.ID) {
			return false
		}
	}
	return true
}
