package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// Audit records an audit entry after a mutating request succeeded.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if recorder == nil || status >= http.StatusBadRequest {
			return
		}

		entry := models.AuditLog{
			Action:    action,
			Resource:  resource,
			Status:    status,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if claims, ok := CurrentClaims(c); ok {
			entry.Actor = claims.Username
		} else {
			entry.Actor = c.GetString(logger.ActorKey)
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		}
		recorder.Record(context.WithoutCancel(c.Request.Context()), entry)
	}
}
