package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid session token. A missing or
// malformed header is 401; a token that fails verification is 403.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "access token required"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(logger.ActorKey, claims.Username)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by JWT, if any.
func CurrentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok && claims != nil
}
