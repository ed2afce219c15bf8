package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/otero-ediciones/lms-api/internal/middleware"
	"github.com/otero-ediciones/lms-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// principalFromContext extracts the authenticated principal. The zero
// principal has no role and fails every policy check.
func principalFromContext(c *gin.Context) models.Principal {
	return models.PrincipalFromClaims(claimsFromContext(c))
}
