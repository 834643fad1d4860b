package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-signal-board/internal/middleware"
	"github.com/noah-isme/classroom-signal-board/internal/models"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	return middleware.ClaimsFromContext(c)
}

// studentName is empty when the request carries no student session.
func studentName(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleStudent {
		return ""
	}
	return claims.Name
}
