package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/screen-admin-api/pkg/config"
	"github.com/noah-isme/screen-admin-api/pkg/middleware/requestid"
)

const (
	contextKey = "request_logger"
	// ActorKey is the gin context key holding the authenticated username.
	ActorKey = "actor"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build(zap.Fields(zap.String("service", "screen-admin-api")))
}

// GinMiddleware attaches a request-scoped logger and writes one access log
// line per request. 5xx responses are logged at error level.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := l
		if reqID := requestid.Value(c); reqID != "" {
			reqLogger = l.With(zap.String("request_id", reqID))
		}
		c.Set(contextKey, reqLogger)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if actor := c.GetString(ActorKey); actor != "" {
			fields = append(fields, zap.String("actor", actor))
		}

		if status >= 500 {
			reqLogger.Error("http_request", fields...)
			return
		}
		reqLogger.Info("http_request", fields...)
	}
}

// FromContext returns the request-scoped logger or a no-op logger when the
// middleware is not installed.
func FromContext(c *gin.Context) *zap.Logger {
	if c != nil {
		if v, ok := c.Get(contextKey); ok {
			if l, ok := v.(*zap.Logger); ok {
				return l
			}
		}
	}
	return zap.NewNop()
}
