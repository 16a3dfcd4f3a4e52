package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	exposeHeaders = "Content-Disposition, X-Request-ID"
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
)

// New returns a CORS middleware for the admin desktop client. An empty origin
// list allows any origin; report downloads need Content-Disposition exposed.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && (allowAll || allowed(originSet, origin)):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Expose-Headers", exposeHeaders)
		header.Set("Access-Control-Allow-Methods", allowMethods)
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowed(originSet map[string]struct{}, origin string) bool {
	_, ok := originSet[strings.TrimRight(origin, "/")]
	return ok
}
