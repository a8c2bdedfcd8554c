package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/middleware"
	"github.com/noah-isme/fh-academy-api/internal/models"
	"github.com/noah-isme/fh-academy-api/internal/service"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext writes a 401 and returns false when no caller is attached.
func actorFromContext(c *gin.Context) (authoring.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return authoring.Actor{}, false
	}
	return service.ActorFromClaims(claims), true
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func indexParam(c *gin.Context, name string) (int, bool) {
	idx, err := strconv.Atoi(c.Param(name))
	if err != nil || idx < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be a non-negative integer"))
		return 0, false
	}
	return idx, true
}

func bindJSON(c *gin.Context, dest interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg))
		return false
	}
	return true
}

func withMeta(c *gin.Context, cacheHit bool) map[string]interface{} {
	middleware.SetCacheHit(c, cacheHit)
	return middleware.ExtractMeta(c)
}
