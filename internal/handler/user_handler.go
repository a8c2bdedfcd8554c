package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/service"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

type userService interface {
	ListLearners(ctx context.Context, actor authoring.Actor, filter models.UserFilter) ([]models.LearnerSummary, *models.Pagination, error)
	Get(ctx context.Context, actor authoring.Actor, id string) (*models.User, error)
	CreateAdmin(ctx context.Context, actor authoring.Actor, req models.CreateAdminRequest, meta models.LoginRequest) (*models.User, error)
}

type learnerExporter interface {
	Learners(ctx context.Context, actor authoring.Actor, format string, filter models.UserFilter, meta models.LoginRequest) (*service.ExportFile, error)
}

// UserHandler serves the learner roster and staff accounts.
type UserHandler struct {
	service userService
	export  learnerExporter
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, export learnerExporter) *UserHandler {
	return &UserHandler{service: svc, export: export}
}

// List godoc
// @Summary List learners
// @Description Learners with completed, in-progress and badge counts
// @Tags Admin
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "Role filter, defaults to student"
// @Param search query string false "Matches email or display name"
// @Param sort_by query string false "email, display_name, created_at, courses_completed or last_active"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	learners, pagination, err := h.service.ListLearners(c.Request.Context(), actor, userFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learners, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Create godoc
// @Summary Create an admin account
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateAdminRequest true "Admin account"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.CreateAdminRequest
	if !bindJSON(c, &req, "invalid create admin payload") {
		return
	}

	user, err := h.service.CreateAdmin(c.Request.Context(), actor, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Export godoc
// @Summary Download the learner progress report
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param search query string false "Matches email or display name"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.export.Learners(c.Request.Context(), actor, c.DefaultQuery("format", "csv"), userFilter(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func userFilter(c *gin.Context) models.UserFilter {
	var filter models.UserFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")
	return filter
}
