package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
	"github.com/noah-isme/classroom-signal-board/pkg/response"
)

// ContextSessionKey is the gin context key storing session claims.
const ContextSessionKey = "currentSession"

// TokenValidator verifies session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.SessionClaims, error)
}

// Session attaches claims from a bearer token, or from the token query
// parameter browsers use for websocket upgrades. It never blocks.
func Session(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextSessionKey, claims)
		c.Next()
	}
}

// RequireStudent blocks requests without a student session.
func RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.Role != models.RoleStudent || claims.Name == "" {
			response.Error(c, appErrors.ErrStudentNameRequired)
			return
		}
		c.Next()
	}
}

// RequireTeacher blocks requests without a teacher session.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if claims.Role != models.RoleTeacher {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "teacher session required"))
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the session attached by Session, if any.
func ClaimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}
