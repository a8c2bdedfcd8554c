package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/dto"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/repository"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
)

// DraftStore persists serialised drafts between requests.
type DraftStore interface {
	Load(ctx context.Context, kind repository.DraftKind, id string) ([]byte, error)
	Save(ctx context.Context, kind repository.DraftKind, id string, payload []byte, ttl time.Duration) error
	PurgeExpired(ctx context.Context) (int, error)
}

type courseDraftSaver interface {
	SaveDraft(ctx context.Context, snap authoring.CourseSnapshot) (*models.Course, error)
	Summaries(ctx context.Context) ([]authoring.CourseSummary, error)
}

type badgeDraftSaver interface {
	SaveDraft(ctx context.Context, snap authoring.BadgeSnapshot) (*models.Badge, error)
}

// DraftService runs course and badge authoring sessions. Every mutation is
// load, apply, store under one lock so operations apply in issue order.
type DraftService struct {
	store     DraftStore
	courses   courseDraftSaver
	badges    badgeDraftSaver
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	ttl       time.Duration
	newID     func() string
	mu        sync.Mutex

	// records persisted while the closed draft could not be stored; a retried
	// save returns them instead of writing a second row
	persistedCourses map[string]*models.Course
	persistedBadges  map[string]*models.Badge
}

// NewDraftService constructs a DraftService.
func NewDraftService(store DraftStore, courses courseDraftSaver, badges badgeDraftSaver, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftService{
		store:     store,
		courses:   courses,
		badges:    badges,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		ttl:       ttl,
		newID:     uuid.NewString,

		persistedCourses: map[string]*models.Course{},
		persistedBadges:  map[string]*models.Badge{},
	}
}

// Templates lists the built-in course templates.
func (s *DraftService) Templates(actor authoring.Actor) ([]authoring.Template, error) {
	if _, err := authorize(actor, authoring.TabCourses); err != nil {
		return nil, err
	}
	return authoring.Templates(), nil
}

// PurgeExpired drops abandoned drafts from stores without native expiry.
func (s *DraftService) PurgeExpired(ctx context.Context) error {
	n, err := s.store.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("expired drafts purged", zap.Int("count", n))
	}
	return nil
}

// CreateCourseDraft opens an empty course draft owned by actor.
func (s *DraftService) CreateCourseDraft(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
	if _, err := authorize(actor, authoring.TabCourses); err != nil {
		return nil, err
	}
	draft := authoring.NewCourseDraft(s.newID(), actor.UserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storeCourse(ctx, draft); err != nil {
		return nil, err
	}
	s.metrics.RecordDraftOperation(string(repository.DraftKindCourse), "create", "ok")
	view := draft.View()
	return &view, nil
}

// GetCourseDraft returns the current view of a course draft.
func (s *DraftService) GetCourseDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraftView, error) {
	if _, err := authorize(actor, authoring.TabCourses); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, err := s.loadCourse(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := draft.View()
	return &view, nil
}

// UpdateCourseDraft edits title, description and duration.
func (s *DraftService) UpdateCourseDraft(ctx context.Context, actor authoring.Actor, id string, req dto.CourseDraftUpdate) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "update", func(d *authoring.CourseDraft) error {
		if req.Title != nil {
			if err := d.SetTitle(*req.Title); err != nil {
				return err
			}
		}
		if req.Description != nil {
			if err := d.SetDescription(*req.Description); err != nil {
				return err
			}
		}
		if req.DurationMinutes != nil {
			return d.SetDuration(*req.DurationMinutes)
		}
		return nil
	})
}

// ApplyTemplate fills an empty draft from a template.
func (s *DraftService) ApplyTemplate(ctx context.Context, actor authoring.Actor, id string, req dto.ApplyTemplateRequest) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "apply_template", func(d *authoring.CourseDraft) error {
		return d.ApplyTemplate(req.TemplateID)
	})
}

// Select toggles the template picker or opens the content type picker.
func (s *DraftService) Select(ctx context.Context, actor authoring.Actor, id string, req dto.SelectorRequest) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "selector", func(d *authoring.CourseDraft) error {
		if req.Selector == dto.SelectorToggleTemplate {
			return d.ToggleTemplateSelector()
		}
		return d.OpenContentTypeSelector()
	})
}

// ResetCourseDraft clears the draft back to empty.
func (s *DraftService) ResetCourseDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraftView, error) {
	return s.mutateCourse(ctx, actor, id, "reset", func(d *authoring.CourseDraft) error {
		return d.Reset()
	})
}

// DiscardCourseDraft abandons the draft.
func (s *DraftService) DiscardCourseDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraftView, error) {
	return s.mutateCourse(ctx, actor, id, "discard", func(d *authoring.CourseDraft) error {
		return d.Discard()
	})
}

// AddItem appends an empty item of the requested type.
func (s *DraftService) AddItem(ctx context.Context, actor authoring.Actor, id string, req dto.AddItemRequest) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "add_item", func(d *authoring.CourseDraft) error {
		_, err := d.AddItem(authoring.Kind(req.Type))
		return err
	})
}

// UpdateItem merges the update into an item. Unknown item ids are ignored.
func (s *DraftService) UpdateItem(ctx context.Context, actor authoring.Actor, id, itemID string, req dto.ItemUpdate) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "update_item", func(d *authoring.CourseDraft) error {
		return d.UpdateItem(itemID, req.Patch())
	})
}

// RemoveItem deletes an item. Unknown item ids are ignored.
func (s *DraftService) RemoveItem(ctx context.Context, actor authoring.Actor, id, itemID string) (*authoring.CourseDraftView, error) {
	return s.mutateCourse(ctx, actor, id, "remove_item", func(d *authoring.CourseDraft) error {
		return d.RemoveItem(itemID)
	})
}

// DuplicateItem inserts a copy right after the item.
func (s *DraftService) DuplicateItem(ctx context.Context, actor authoring.Actor, id, itemID string) (*authoring.CourseDraftView, error) {
	return s.mutateCourse(ctx, actor, id, "duplicate_item", func(d *authoring.CourseDraft) error {
		_, err := d.DuplicateItem(itemID)
		return err
	})
}

// MoveItem reorders the content list.
func (s *DraftService) MoveItem(ctx context.Context, actor authoring.Actor, id string, req dto.MoveRequest) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "move_item", func(d *authoring.CourseDraft) error {
		return d.MoveItem(*req.From, *req.To)
	})
}

// AddQuestion appends an empty question to a quiz item.
func (s *DraftService) AddQuestion(ctx context.Context, actor authoring.Actor, id, itemID string) (*authoring.CourseDraftView, error) {
	return s.mutateCourse(ctx, actor, id, "add_question", func(d *authoring.CourseDraft) error {
		return d.AddQuestion(itemID)
	})
}

// UpdateQuestion edits the text, one option or the correct answer of a question.
func (s *DraftService) UpdateQuestion(ctx context.Context, actor authoring.Actor, id, itemID string, index int, req dto.QuestionUpdate) (*authoring.CourseDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateCourse(ctx, actor, id, "update_question", func(d *authoring.CourseDraft) error {
		if req.Question != nil {
			if err := d.UpdateQuestionText(itemID, index, *req.Question); err != nil {
				return err
			}
		}
		if req.OptionIndex != nil {
			if err := d.UpdateQuestionOption(itemID, index, *req.OptionIndex, *req.OptionText); err != nil {
				return err
			}
		}
		if req.CorrectAnswer != nil {
			return d.SetCorrectAnswer(itemID, index, *req.CorrectAnswer)
		}
		return nil
	})
}

// RemoveQuestion deletes a question from a quiz item.
func (s *DraftService) RemoveQuestion(ctx context.Context, actor authoring.Actor, id, itemID string, index int) (*authoring.CourseDraftView, error) {
	return s.mutateCourse(ctx, actor, id, "remove_question", func(d *authoring.CourseDraft) error {
		return d.RemoveQuestion(itemID, index)
	})
}

// SaveCourseDraft persists a ready draft as a course and closes the draft.
func (s *DraftService) SaveCourseDraft(ctx context.Context, actor authoring.Actor, id string, req dto.SaveDraftRequest) (*authoring.CourseDraftView, *models.Course, error) {
	var course *models.Course
	view, err := s.mutateCourse(ctx, actor, id, "save", func(d *authoring.CourseDraft) error {
		if prior, ok := s.persistedCourses[d.ID()]; ok {
			course = prior
			return d.MarkSaved(prior.ID)
		}
		snap, err := d.Finalize(req.Publish)
		if err != nil {
			return err
		}
		course, err = s.courses.SaveDraft(ctx, snap)
		if err != nil {
			return err
		}
		s.persistedCourses[d.ID()] = course
		return d.MarkSaved(course.ID)
	})
	if err != nil {
		if course != nil {
			s.logger.Error("course persisted but draft left open",
				zap.String("draft_id", id), zap.String("course_id", course.ID), zap.Error(err))
		}
		return nil, nil, err
	}
	s.mu.Lock()
	delete(s.persistedCourses, id)
	s.mu.Unlock()
	return view, course, nil
}

// CreateBadgeDraft opens a badge draft against the current course catalog.
func (s *DraftService) CreateBadgeDraft(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
	if _, err := authorize(actor, authoring.TabBadges); err != nil {
		return nil, err
	}
	catalog, err := s.courses.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	draft := authoring.NewBadgeDraft(s.newID(), actor.UserID, catalog)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storeBadge(ctx, draft); err != nil {
		return nil, err
	}
	s.metrics.RecordDraftOperation(string(repository.DraftKindBadge), "create", "ok")
	view := draft.View()
	return &view, nil
}

// GetBadgeDraft returns the current view of a badge draft.
func (s *DraftService) GetBadgeDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.BadgeDraftView, error) {
	if _, err := authorize(actor, authoring.TabBadges); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, err := s.loadBadge(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := draft.View()
	return &view, nil
}

// UpdateBadgeDraft edits title, description, icon and color.
func (s *DraftService) UpdateBadgeDraft(ctx context.Context, actor authoring.Actor, id string, req dto.BadgeDraftUpdate) (*authoring.BadgeDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateBadge(ctx, actor, id, "update", func(d *authoring.BadgeDraft) error {
		if req.Title != nil {
			if err := d.SetTitle(*req.Title); err != nil {
				return err
			}
		}
		if req.Description != nil {
			if err := d.SetDescription(*req.Description); err != nil {
				return err
			}
		}
		if req.Icon != nil {
			if err := d.SetIcon(*req.Icon); err != nil {
				return err
			}
		}
		if req.Color != nil {
			return d.SetColor(*req.Color)
		}
		return nil
	})
}

// AddBadgeCourse adds a published course to the badge.
func (s *DraftService) AddBadgeCourse(ctx context.Context, actor authoring.Actor, id string, req dto.AddCourseRequest) (*authoring.BadgeDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateBadge(ctx, actor, id, "add_course", func(d *authoring.BadgeDraft) error {
		return d.AddCourse(req.CourseID)
	})
}

// RemoveBadgeCourse drops a course from the badge.
func (s *DraftService) RemoveBadgeCourse(ctx context.Context, actor authoring.Actor, id, courseID string) (*authoring.BadgeDraftView, error) {
	return s.mutateBadge(ctx, actor, id, "remove_course", func(d *authoring.BadgeDraft) error {
		return d.RemoveCourse(courseID)
	})
}

// MoveBadgeCourse reorders the selected courses.
func (s *DraftService) MoveBadgeCourse(ctx context.Context, actor authoring.Actor, id string, req dto.MoveRequest) (*authoring.BadgeDraftView, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.mutateBadge(ctx, actor, id, "move_course", func(d *authoring.BadgeDraft) error {
		return d.MoveCourse(*req.From, *req.To)
	})
}

// DiscardBadgeDraft abandons the badge draft.
func (s *DraftService) DiscardBadgeDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.BadgeDraftView, error) {
	return s.mutateBadge(ctx, actor, id, "discard", func(d *authoring.BadgeDraft) error {
		return d.Discard()
	})
}

// SaveBadgeDraft persists a complete badge draft and closes it.
func (s *DraftService) SaveBadgeDraft(ctx context.Context, actor authoring.Actor, id string, req dto.SaveDraftRequest) (*authoring.BadgeDraftView, *models.Badge, error) {
	var badge *models.Badge
	view, err := s.mutateBadge(ctx, actor, id, "save", func(d *authoring.BadgeDraft) error {
		if prior, ok := s.persistedBadges[d.ID()]; ok {
			badge = prior
			return d.MarkSaved(prior.ID)
		}
		snap, err := d.Finalize(req.Publish)
		if err != nil {
			return err
		}
		badge, err = s.badges.SaveDraft(ctx, snap)
		if err != nil {
			return err
		}
		s.persistedBadges[d.ID()] = badge
		return d.MarkSaved(badge.ID)
	})
	if err != nil {
		if badge != nil {
			s.logger.Error("badge persisted but draft left open",
				zap.String("draft_id", id), zap.String("badge_id", badge.ID), zap.Error(err))
		}
		return nil, nil, err
	}
	s.mu.Lock()
	delete(s.persistedBadges, id)
	s.mu.Unlock()
	return view, badge, nil
}

func (s *DraftService) mutateCourse(ctx context.Context, actor authoring.Actor, id, op string, fn func(*authoring.CourseDraft) error) (*authoring.CourseDraftView, error) {
	if _, err := authorize(actor, authoring.TabCourses); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.loadCourse(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return nil, s.fail(repository.DraftKindCourse, op, err)
	}
	if err := s.storeCourse(ctx, draft); err != nil {
		return nil, err
	}
	s.metrics.RecordDraftOperation(string(repository.DraftKindCourse), op, "ok")
	view := draft.View()
	return &view, nil
}

func (s *DraftService) mutateBadge(ctx context.Context, actor authoring.Actor, id, op string, fn func(*authoring.BadgeDraft) error) (*authoring.BadgeDraftView, error) {
	if _, err := authorize(actor, authoring.TabBadges); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.loadBadge(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return nil, s.fail(repository.DraftKindBadge, op, err)
	}
	if err := s.storeBadge(ctx, draft); err != nil {
		return nil, err
	}
	s.metrics.RecordDraftOperation(string(repository.DraftKindBadge), op, "ok")
	view := draft.View()
	return &view, nil
}

func (s *DraftService) fail(kind repository.DraftKind, op string, err error) error {
	mapped := mapAuthoringError(err)
	s.metrics.RecordDraftOperation(string(kind), op, appErrors.FromError(mapped).Code)
	return mapped
}

func (s *DraftService) loadCourse(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraft, error) {
	var draft authoring.CourseDraft
	if err := s.load(ctx, repository.DraftKindCourse, id, &draft); err != nil {
		return nil, err
	}
	if draft.OwnerID() != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "draft not found")
	}
	return &draft, nil
}

func (s *DraftService) loadBadge(ctx context.Context, actor authoring.Actor, id string) (*authoring.BadgeDraft, error) {
	var draft authoring.BadgeDraft
	if err := s.load(ctx, repository.DraftKindBadge, id, &draft); err != nil {
		return nil, err
	}
	if draft.OwnerID() != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "draft not found")
	}
	return &draft, nil
}

func (s *DraftService) load(ctx context.Context, kind repository.DraftKind, id string, dest json.Unmarshaler) error {
	payload, err := s.store.Load(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "draft not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft")
	}
	if err := dest.UnmarshalJSON(payload); err != nil {
		s.logger.Error("stored draft is unreadable", zap.String("kind", string(kind)), zap.String("draft_id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode draft")
	}
	return nil
}

func (s *DraftService) storeCourse(ctx context.Context, draft *authoring.CourseDraft) error {
	return s.save(ctx, repository.DraftKindCourse, draft.ID(), draft)
}

func (s *DraftService) storeBadge(ctx context.Context, draft *authoring.BadgeDraft) error {
	return s.save(ctx, repository.DraftKindBadge, draft.ID(), draft)
}

func (s *DraftService) save(ctx context.Context, kind repository.DraftKind, id string, draft json.Marshaler) error {
	payload, err := draft.MarshalJSON()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode draft")
	}
	if err := s.store.Save(ctx, kind, id, payload, s.ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store draft")
	}
	return nil
}

func (s *DraftService) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid draft payload")
	}
	return nil
}
