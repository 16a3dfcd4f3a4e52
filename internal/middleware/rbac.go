package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

// RequireRoles only lets through callers holding one of the roles.
func RequireRoles(roles ...models.AdminRole) gin.HandlerFunc {
	allowed := make(map[models.AdminRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin access required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route group to administrators.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}
