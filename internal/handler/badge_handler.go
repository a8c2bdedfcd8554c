package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

type badgeService interface {
	ListForLearner(ctx context.Context, userID string) ([]models.LearnerBadge, error)
	ListAll(ctx context.Context, actor authoring.Actor) ([]models.Badge, error)
	Publish(ctx context.Context, actor authoring.Actor, badgeID string) (*models.Badge, error)
}

// BadgeHandler exposes badges to learners and staff.
type BadgeHandler struct {
	service badgeService
}

// NewBadgeHandler constructs the handler.
func NewBadgeHandler(svc badgeService) *BadgeHandler {
	return &BadgeHandler{service: svc}
}

// List godoc
// @Summary Published badges with the caller's earned flag
// @Tags Badges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /badges [get]
func (h *BadgeHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	badges, err := h.service.ListForLearner(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badges, nil)
}

// ListAll godoc
// @Summary Every badge with its earned count
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/badges [get]
func (h *BadgeHandler) ListAll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	badges, err := h.service.ListAll(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badges, nil)
}

// Publish godoc
// @Summary Publish a badge
// @Tags Admin
// @Produce json
// @Param id path string true "Badge ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/badges/{id}/publish [post]
func (h *BadgeHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	badge, err := h.service.Publish(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badge, nil)
}
