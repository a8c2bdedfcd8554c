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

type courseDraftService interface {
	Templates(actor authoring.Actor) ([]authoring.Template, error)
	CreateCourseDraft(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error)
	GetCourseDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraftView, error)
	UpdateCourseDraft(ctx context.Context, actor authoring.Actor, id string, req dto.CourseDraftUpdate) (*authoring.CourseDraftView, error)
	ApplyTemplate(ctx context.Context, actor authoring.Actor, id string, req dto.ApplyTemplateRequest) (*authoring.CourseDraftView, error)
	Select(ctx context.Context, actor authoring.Actor, id string, req dto.SelectorRequest) (*authoring.CourseDraftView, error)
	ResetCourseDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraftView, error)
	DiscardCourseDraft(ctx context.Context, actor authoring.Actor, id string) (*authoring.CourseDraftView, error)
	AddItem(ctx context.Context, actor authoring.Actor, id string, req dto.AddItemRequest) (*authoring.CourseDraftView, error)
	UpdateItem(ctx context.Context, actor authoring.Actor, id, itemID string, req dto.ItemUpdate) (*authoring.CourseDraftView, error)
	RemoveItem(ctx context.Context, actor authoring.Actor, id, itemID string) (*authoring.CourseDraftView, error)
	DuplicateItem(ctx context.Context, actor authoring.Actor, id, itemID string) (*authoring.CourseDraftView, error)
	MoveItem(ctx context.Context, actor authoring.Actor, id string, req dto.MoveRequest) (*authoring.CourseDraftView, error)
	AddQuestion(ctx context.Context, actor authoring.Actor, id, itemID string) (*authoring.CourseDraftView, error)
	UpdateQuestion(ctx context.Context, actor authoring.Actor, id, itemID string, index int, req dto.QuestionUpdate) (*authoring.CourseDraftView, error)
	RemoveQuestion(ctx context.Context, actor authoring.Actor, id, itemID string, index int) (*authoring.CourseDraftView, error)
	SaveCourseDraft(ctx context.Context, actor authoring.Actor, id string, req dto.SaveDraftRequest) (*authoring.CourseDraftView, *models.Course, error)
}

// CourseDraftHandler exposes the course authoring workflow.
type CourseDraftHandler struct {
	service courseDraftService
}

// NewCourseDraftHandler constructs the handler.
func NewCourseDraftHandler(svc courseDraftService) *CourseDraftHandler {
	return &CourseDraftHandler{service: svc}
}

// SavedCourse is returned when a course draft is saved.
type SavedCourse struct {
	Draft  *authoring.CourseDraftView `json:"draft"`
	Course *models.Course             `json:"course"`
}

// Templates godoc
// @Summary Built-in course templates
// @Tags Course Drafts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/templates [get]
func (h *CourseDraftHandler) Templates(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	templates, err := h.service.Templates(actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Create godoc
// @Summary Open an empty course draft
// @Tags Course Drafts
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/course-drafts [post]
func (h *CourseDraftHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.CreateCourseDraft(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get a course draft
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/course-drafts/{id} [get]
func (h *CourseDraftHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*authoring.CourseDraftView, error) {
		return h.service.GetCourseDraft(ctx, actor, c.Param("id"))
	})
}

// Update godoc
// @Summary Edit title, description or duration
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.CourseDraftUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/course-drafts/{id} [patch]
func (h *CourseDraftHandler) Update(c *gin.Context) {
	var req dto.CourseDraftUpdate
	if !bindJSON(c, &req, "invalid course draft payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.UpdateCourseDraft(ctx, actor, c.Param("id"), req)
	})
}

// Discard godoc
// @Summary Discard a course draft
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id} [delete]
func (h *CourseDraftHandler) Discard(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.DiscardCourseDraft(ctx, actor, c.Param("id"))
	})
}

// ApplyTemplate godoc
// @Summary Fill an empty draft from a template
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.ApplyTemplateRequest true "Template"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/course-drafts/{id}/template [post]
func (h *CourseDraftHandler) ApplyTemplate(c *gin.Context) {
	var req dto.ApplyTemplateRequest
	if !bindJSON(c, &req, "invalid template payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.ApplyTemplate(ctx, actor, c.Param("id"), req)
	})
}

// Select godoc
// @Summary Toggle the template picker or open the content type picker
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.SelectorRequest true "Selector"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/selector [post]
func (h *CourseDraftHandler) Select(c *gin.Context) {
	var req dto.SelectorRequest
	if !bindJSON(c, &req, "invalid selector payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.Select(ctx, actor, c.Param("id"), req)
	})
}

// Reset godoc
// @Summary Clear a draft back to empty
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/reset [post]
func (h *CourseDraftHandler) Reset(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.ResetCourseDraft(ctx, actor, c.Param("id"))
	})
}

// Save godoc
// @Summary Persist a ready draft as a course
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.SaveDraftRequest false "Publish flag"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/course-drafts/{id}/save [post]
func (h *CourseDraftHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveDraftRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid save payload") {
		return
	}
	view, course, err := h.service.SaveCourseDraft(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, SavedCourse{Draft: view, Course: course})
}

// AddItem godoc
// @Summary Append a content item
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.AddItemRequest true "Item type"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items [post]
func (h *CourseDraftHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if !bindJSON(c, &req, "invalid item payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.AddItem(ctx, actor, c.Param("id"), req)
	})
}

// MoveItem godoc
// @Summary Move a content item
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.MoveRequest true "From and to positions"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/move [post]
func (h *CourseDraftHandler) MoveItem(c *gin.Context) {
	var req dto.MoveRequest
	if !bindJSON(c, &req, "invalid move payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.MoveItem(ctx, actor, c.Param("id"), req)
	})
}

// UpdateItem godoc
// @Summary Edit a content item
// @Description video_url applies to videos only and questions to quizzes only
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param itemId path string true "Item ID"
// @Param payload body dto.ItemUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/{itemId} [patch]
func (h *CourseDraftHandler) UpdateItem(c *gin.Context) {
	var req dto.ItemUpdate
	if !bindJSON(c, &req, "invalid item payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.UpdateItem(ctx, actor, c.Param("id"), c.Param("itemId"), req)
	})
}

// RemoveItem godoc
// @Summary Remove a content item
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/{itemId} [delete]
func (h *CourseDraftHandler) RemoveItem(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.RemoveItem(ctx, actor, c.Param("id"), c.Param("itemId"))
	})
}

// DuplicateItem godoc
// @Summary Duplicate a content item
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param itemId path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/{itemId}/duplicate [post]
func (h *CourseDraftHandler) DuplicateItem(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.DuplicateItem(ctx, actor, c.Param("id"), c.Param("itemId"))
	})
}

// AddQuestion godoc
// @Summary Append a question to a quiz
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param itemId path string true "Quiz item ID"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/{itemId}/questions [post]
func (h *CourseDraftHandler) AddQuestion(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.AddQuestion(ctx, actor, c.Param("id"), c.Param("itemId"))
	})
}

// UpdateQuestion godoc
// @Summary Edit a quiz question
// @Tags Course Drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param itemId path string true "Quiz item ID"
// @Param index path int true "Question index"
// @Param payload body dto.QuestionUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/{itemId}/questions/{index} [patch]
func (h *CourseDraftHandler) UpdateQuestion(c *gin.Context) {
	index, ok := indexParam(c, "index")
	if !ok {
		return
	}
	var req dto.QuestionUpdate
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.UpdateQuestion(ctx, actor, c.Param("id"), c.Param("itemId"), index, req)
	})
}

// RemoveQuestion godoc
// @Summary Remove a quiz question
// @Tags Course Drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Param itemId path string true "Quiz item ID"
// @Param index path int true "Question index"
// @Success 200 {object} response.Envelope
// @Router /admin/course-drafts/{id}/items/{itemId}/questions/{index} [delete]
func (h *CourseDraftHandler) RemoveQuestion(c *gin.Context) {
	index, ok := indexParam(c, "index")
	if !ok {
		return
	}
	h.mutate(c, func(ctx context.Context, actor authoring.Actor) (*authoring.CourseDraftView, error) {
		return h.service.RemoveQuestion(ctx, actor, c.Param("id"), c.Param("itemId"), index)
	})
}

func (h *CourseDraftHandler) mutate(c *gin.Context, fn func(context.Context, authoring.Actor) (*authoring.CourseDraftView, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	h.respond(c, func(ctx context.Context) (*authoring.CourseDraftView, error) {
		return fn(ctx, actor)
	})
}

func (h *CourseDraftHandler) respond(c *gin.Context, fn func(context.Context) (*authoring.CourseDraftView, error)) {
	view, err := fn(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
