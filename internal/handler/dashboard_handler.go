package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/service"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

type dashboardService interface {
	View(ctx context.Context, actor authoring.Actor, tab string) (*service.DashboardResponse, bool, error)
}

// DashboardHandler wires the dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// View godoc
// @Summary Admin dashboard
// @Description Capabilities, permitted tabs and headline counts for the caller
// @Tags Admin
// @Produce json
// @Param tab query string false "users, courses or badges"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) View(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, cacheHit, err := h.service.View(c.Request.Context(), actor, strings.TrimSpace(c.Query("tab")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil, withMeta(c, cacheHit))
}
