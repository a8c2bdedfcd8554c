package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/middleware"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/policy"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

type catalogService interface {
	ListPublished(ctx context.Context) ([]models.Course, error)
	ListAll(ctx context.Context, actor authoring.Actor) ([]models.Course, error)
	GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Course, error)
	Publish(ctx context.Context, actor authoring.Actor, courseID string) (*models.Course, error)
}

// CourseHandler serves the course catalog.
type CourseHandler struct {
	service catalogService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc catalogService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List published courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a course with its lessons
// @Tags Courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{slug} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	includeDrafts := false
	if claims := claimsFromContext(c); claims != nil && claims.Role.Valid() {
		includeDrafts = policy.CanManageContent(claims.Role)
	}
	course, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), includeDrafts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListAll godoc
// @Summary List every course including drafts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/courses [get]
func (h *CourseHandler) ListAll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	courses, err := h.service.ListAll(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Publish godoc
// @Summary Publish a course
// @Tags Admin
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/courses/{id}/publish [post]
func (h *CourseHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	course, err := h.service.Publish(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}
