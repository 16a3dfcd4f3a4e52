package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/handler"
	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
	"github.com/noah-isme/screen-admin-api/internal/service"
	"github.com/noah-isme/screen-admin-api/pkg/cache"
	"github.com/noah-isme/screen-admin-api/pkg/config"
	"github.com/noah-isme/screen-admin-api/pkg/database"
	"github.com/noah-isme/screen-admin-api/pkg/jobs"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
	"github.com/noah-isme/screen-admin-api/pkg/storage"
)

// @title Screen Admin API
// @version 1.0.0
// @description Back-office API for screen inspection and repair tracking
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db, logr)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("migrations applied", zap.Strings("versions", applied))
	}

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, "screen-admin")
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	loc := cfg.Location()

	admins := repository.NewAdminRepository(db)
	technicians := repository.NewTechnicianRepository(db)
	scans := repository.NewScanRepository(db)
	sessions := repository.NewSessionRepository(db)
	messages := repository.NewMessageRepository(db)
	audits := repository.NewAuditRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)
	authSvc := service.NewAuthService(admins, validate, logr, service.AuthConfig{
		Secret:  cfg.JWT.Secret,
		Expiry:  cfg.JWT.Expiration,
		Issuer:  cfg.JWT.Issuer,
		Metrics: metrics,
	})
	technicianSvc := service.NewTechnicianService(technicians, validate, cacheSvc, logr)
	scanSvc := service.NewScanService(scans, validate, cacheSvc, logr)
	sessionSvc := service.NewSessionService(sessions, scans, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Technicians:   technicians,
		Scans:         scans,
		Sessions:      sessions,
		Notifications: messages,
		Cache:         cacheSvc,
		Metrics:       metrics,
		Logger:        logr,
		Config:        service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL, Location: loc},
	})
	messagingSvc := service.NewMessagingService(messages, technicians, validate, metrics, logr)

	reportStore, err := storage.NewLocalStorage(cfg.Reports.TempDir)
	if err != nil {
		return fmt.Errorf("init report storage: %w", err)
	}
	reportSvc := service.NewReportService(scans, technicians, sessions, reportStore, metrics, logr, service.ReportServiceConfig{
		Location: loc,
		TempTTL:  cfg.Reports.TempTTL,
	})

	if cfg.JWT.Secret == "" {
		logr.Warn("JWT_SECRET is empty; login and protected routes will fail")
	}
	if created, err := authSvc.EnsureAdmin(ctx, models.RegisterRequest{
		Username:   cfg.Auth.AdminUsername,
		Password:   cfg.Auth.AdminPassword,
		Email:      cfg.Auth.AdminEmail,
		Department: cfg.Auth.AdminDepartment,
	}); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	} else if created {
		logr.Info("bootstrap admin created", zap.String("username", cfg.Auth.AdminUsername))
	}

	auditSvc := service.NewAuditService(audits, metrics, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.Retries,
		Logger:     logr,
	})
	auditQueue.Start(context.Background())
	defer auditQueue.Stop()
	auditSvc.UseQueue(auditQueue)

	cleanup, err := service.NewCleanupScheduler(reportSvc, cfg.Reports.CleanupSchedule, cfg.Reports.TempTTL, logr)
	if err != nil {
		return err
	}
	cleanup.Start()

	router := handler.NewRouter(handler.RouterDeps{
		Logger:         logr,
		Metrics:        metrics,
		TokenValidator: authSvc,
		Audit:          auditSvc,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		APIPrefix:      cfg.APIPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Auth:           handler.NewAuthHandler(authSvc, cfg.Auth.EnableRegistration),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc, loc),
		Admin:          handler.NewAdminHandler(technicianSvc, scanSvc, sessionSvc, loc),
		Messaging:      handler.NewMessagingHandler(messagingSvc),
		Reports:        handler.NewReportHandler(reportSvc, loc),
		Ops:            handler.NewMetricsHandler(metrics, db),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logr.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
	cleanup.Stop(shutdownCtx)
	logr.Info("server stopped")
	return nil
}
