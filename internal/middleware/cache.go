package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta initialises response metadata storage on the request
// context. Handlers read it back through ExtractMeta when responding.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{"started_at": time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the payload came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the public metadata for the response, including the
// request id and the elapsed time so far.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	stored, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	typed, ok := stored.(map[string]interface{})
	if !ok {
		return nil
	}
	meta := make(map[string]interface{}, len(typed)+1)
	for k, v := range typed {
		if k == "started_at" {
			if start, ok := v.(time.Time); ok {
				meta["processing_time_ms"] = time.Since(start).Milliseconds()
			}
			continue
		}
		meta[k] = v
	}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
