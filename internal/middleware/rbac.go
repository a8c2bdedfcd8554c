package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fh-academy-api/internal/policy"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
	"github.com/noah-isme/fh-academy-api/pkg/response"
)

// RequireCapability admits the request only when the caller's role holds
// every listed capability. Unknown roles are treated as unauthenticated.
func RequireCapability(caps ...policy.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if !claims.Role.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role"))
			return
		}
		for _, capability := range caps {
			if !policy.Allows(claims.Role, capability) {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions"))
				return
			}
		}
		c.Next()
	}
}

// RequireStaff admits any role with access to at least one admin section.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok || !claims.Role.Valid() {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		caps := policy.For(claims.Role)
		if !caps.ManageContent && !caps.ViewStudentData && !caps.ManageAdmins {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin area is not available for this role"))
			return
		}
		c.Next()
	}
}
