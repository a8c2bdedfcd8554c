package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/dto"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

type badgeDraftService interface {
	CreateBadgeDraft(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error)
	GetBadgeDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.BadgeDraftView, error)
	UpdateBadgeDraft(ctx context.Context, actor authoring.Actor, id string, req dto.BadgeDraftUpdate) (*authoring.BadgeDraftView, error)
	AddBadgeCourse(ctx context.Context, actor authoring.Actor, id string, req dto.AddCourseRequest) (*authoring.BadgeDraftView, error)
	RemoveBadgeCourse(ctx context.Context, actor authoring.Actor, id, courseID string) (*authoring.BadgeDraftView, error)
	MoveBadgeCourse(ctx context.Context, actor authoring.Actor, id string, req dto.MoveRequest) (*authoring.BadgeDraftView, error)
	DiscardBadgeDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.BadgeDraftView, error)
	SaveBadgeDraft(ctx context.Context, actor authoring.Actor, id string, req dto.SaveDraftRequest) (*authoring.BadgeDraftView, *models.Badge, error)
}

// BadgeDraftHandler exposes the badge authoring workflow.
type BadgeDraftHandler struct {
	service badgeDraftService
}

// NewBadgeDraftHandler constructs the handler.
func NewBadgeDraftHandler(svc badgeDraftService) *BadgeDraftHandler {
	return &BadgeDraftHandler{service: svc}
}

// SavedBadge is returned when a badge draft is saved.
type SavedBadge struct {
	Draft *authoring.BadgeDraftView `json:"draft"`
	Badge *models.Badge             `json:"badge"`
}

// Create godoc
// @Summary Open a badge draft
// @Description The draft lists the published courses that can be required
// @Tags Badge Drafts
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/badge-drafts [post]
func (h *BadgeDraftHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.CreateBadgeDraft(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get a badge draft
// @Tags Badge Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/badge-drafts/{id} [get]
func (h *BadgeDraftHandler) Get(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
		return h.service.GetBadgeDraft(ctx, actor, c.Param("id"))
	})
}

// Update godoc
// @Summary Edit badge name, description or color
// @Tags Badge Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.BadgeDraftUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/badge-drafts/{id} [patch]
func (h *BadgeDraftHandler) Update(c *gin.Context) {
	var req dto.BadgeDraftUpdate
	if !bindJSON(c, &req, "invalid badge draft payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
		return h.service.UpdateBadgeDraft(ctx, actor, c.Param("id"), req)
	})
}

// Discard godoc
// @Summary Discard a badge draft
// @Tags Badge Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /admin/badge-drafts/{id} [delete]
func (h *BadgeDraftHandler) Discard(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
		return h.service.DiscardBadgeDraft(ctx, actor, c.Param("id"))
	})
}

// AddCourse godoc
// @Summary Require a published course
// @Tags Badge Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.AddCourseRequest true "Course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/badge-drafts/{id}/courses [post]
func (h *BadgeDraftHandler) AddCourse(c *gin.Context) {
	var req dto.AddCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
		return h.service.AddBadgeCourse(ctx, actor, c.Param("id"), req)
	})
}

// MoveCourse godoc
// @Summary Reorder required courses
// @Tags Badge Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.MoveRequest true "From and to positions"
// @Success 200 {object} response.Envelope
// @Router /admin/badge-drafts/{id}/courses/move [post]
func (h *BadgeDraftHandler) MoveCourse(c *gin.Context) {
	var req dto.MoveRequest
	if !bindJSON(c, &req, "invalid move payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
		return h.service.MoveBadgeCourse(ctx, actor, c.Param("id"), req)
	})
}

// RemoveCourse godoc
// @Summary Drop a required course
// @Tags Badge Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /admin/badge-drafts/{id}/courses/{courseId} [delete]
func (h *BadgeDraftHandler) RemoveCourse(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.BadgeDraftView, error) {
		return h.service.RemoveBadgeCourse(ctx, actor, c.Param("id"), c.Param("courseId"))
	})
}

// Save godoc
// @Summary Persist a ready draft as a badge
// @Tags Badge Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.SaveDraftRequest false "Publish flag"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/badge-drafts/{id}/save [post]
func (h *BadgeDraftHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveDraftRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid save payload") {
		return
	}
	view, badge, err := h.service.SaveBadgeDraft(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, SavedBadge{Draft: view, Badge: badge})
}

func (h *BadgeDraftHandler) mutate(c *gin.Context, fn func(context.Context, authoring.Actor) (*authoring.BadgeDraftView, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := fn(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
