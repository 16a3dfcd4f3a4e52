package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/screen-admin-api/api/swagger"
	"github.com/noah-isme/screen-admin-api/internal/middleware"
	"github.com/noah-isme/screen-admin-api/internal/service"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/screen-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/screen-admin-api/pkg/middleware/requestid"
)

// RouterDeps carries everything NewRouter wires into the engine.
type RouterDeps struct {
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	TokenValidator middleware.TokenValidator
	Audit          middleware.AuditRecorder
	AllowedOrigins []string
	APIPrefix      string
	EnableDocs     bool

	Auth      *AuthHandler
	Dashboard *DashboardHandler
	Admin     *AdminHandler
	Messaging *MessagingHandler
	Reports   *ReportHandler
	Ops       *MetricsHandler
}

// NewRouter builds the gin engine with the global middleware chain and every
// API route.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(deps.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	if deps.Ops != nil {
		r.GET("/health", deps.Ops.Health)
		r.GET("/ready", deps.Ops.Ready)
		r.GET("/metrics", deps.Ops.Prometheus)
	}
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, action, resource)
	}
	jwt := middleware.JWT(deps.TokenValidator)
	authenticated := []gin.HandlerFunc{jwt}
	adminOnly := []gin.HandlerFunc{jwt, middleware.RequireAdmin()}

	if h := deps.Auth; h != nil {
		auth := api.Group("/auth")
		auth.POST("/login", audit("auth.login", "session"), h.Login)
		auth.POST("/register", audit("auth.register", "admin"), h.Register)

		me := auth.Group("", authenticated...)
		me.GET("/profile", h.Profile)
		me.PUT("/profile", audit("auth.update_profile", "admin"), h.UpdateProfile)
		me.POST("/change-password", audit("auth.change_password", "admin"), h.ChangePassword)
	}

	if h := deps.Dashboard; h != nil {
		dashboard := api.Group("/dashboard", adminOnly...)
		dashboard.GET("/overview", h.Overview)
		dashboard.GET("/scan-history", h.ScanHistory)
		dashboard.GET("/users", h.Users)
		dashboard.GET("/sessions", h.Sessions)
		dashboard.GET("/notifications", h.Notifications)
	}

	admin := api.Group("/admin", adminOnly...)
	if deps.Dashboard != nil {
		admin.GET("/dashboard", deps.Dashboard.Overview)
	}
	if h := deps.Admin; h != nil {
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", audit("user.create", "technician"), h.CreateUser)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id", audit("user.update", "technician"), h.UpdateUser)
		admin.DELETE("/users/:id", audit("user.delete", "technician"), h.DeleteUser)

		admin.GET("/scans", h.ListScans)
		admin.GET("/scans/:id", h.GetScan)
		admin.PUT("/scans/:id", audit("scan.update", "scan"), h.UpdateScan)
		admin.DELETE("/scans/:id", audit("scan.delete", "scan"), h.DeleteScan)
		admin.POST("/scans/:id/archive", audit("scan.archive", "scan"), h.ArchiveScan)

		admin.GET("/sessions", h.ListSessions)
		admin.GET("/sessions/:id", h.GetSession)

		admin.GET("/search/scans", h.SearchScans)
		admin.GET("/search/users", h.SearchUsers)
	}

	if h := deps.Messaging; h != nil {
		messaging := api.Group("/messaging", adminOnly...)
		messaging.POST("/send", audit("message.send", "message"), h.Send)
		messaging.POST("/broadcast", audit("message.broadcast", "message"), h.Broadcast)
		messaging.GET("/messages", h.ListMessages)
		messaging.GET("/messages/:id", h.GetMessage)
		messaging.PUT("/messages/:id/read", h.MarkRead)
		messaging.DELETE("/messages/:id", audit("message.delete", "message"), h.DeleteMessage)
		messaging.GET("/notifications", h.ListNotifications)
		messaging.PUT("/notifications/:id/read", h.MarkNotificationRead)
		messaging.GET("/unread-count", h.UnreadCount)
	}

	if h := deps.Reports; h != nil {
		reports := api.Group("/reports", adminOnly...)
		reports.GET("/:format", audit("report.generate", "report"), h.Download)
	}

	return r
}
