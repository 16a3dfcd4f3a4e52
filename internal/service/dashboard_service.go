package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/dto"
	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
)

const (
	dashboardCachePattern = "dash:*"
	overviewCacheKey      = "dash:overview"

	recentScansLimit    = 10
	recentSessionsLimit = 5
	defaultFeedLimit    = 20
)

type dashboardTechnicianRepository interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
	Count(ctx context.Context) (int, error)
	DepartmentCounts(ctx context.Context) ([]repository.DepartmentUsers, error)
}

type dashboardScanRepository interface {
	List(ctx context.Context, filter models.ScanFilter) ([]models.ScanRecord, int, error)
	ListAll(ctx context.Context, filter models.ScanFilter, max int) ([]models.ScanRecord, error)
	Count(ctx context.Context, filter models.ScanFilter) (int, error)
	StatusCounts(ctx context.Context, filter models.ScanFilter) ([]models.StatusCount, error)
	DepartmentCounts(ctx context.Context) ([]repository.DepartmentScans, error)
}

type dashboardSessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.WorkSession, int, error)
	Count(ctx context.Context, filter models.SessionFilter) (int, error)
}

type dashboardNotificationRepository interface {
	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	UnreadCounts(ctx context.Context) (*models.UnreadCount, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	Location *time.Location
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Technicians   dashboardTechnicianRepository
	Scans         dashboardScanRepository
	Sessions      dashboardSessionRepository
	Notifications dashboardNotificationRepository
	Cache         *CacheService
	Metrics       *MetricsService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService composes the aggregated dashboard payloads.
type DashboardService struct {
	technicians   dashboardTechnicianRepository
	scans         dashboardScanRepository
	sessions      dashboardSessionRepository
	notifications dashboardNotificationRepository
	cache         *CacheService
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
	now           func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		technicians:   params.Technicians,
		scans:         params.Scans,
		sessions:      params.Sessions,
		notifications: params.Notifications,
		cache:         params.Cache,
		metrics:       params.Metrics,
		logger:        logger,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Overview returns the dashboard summary and whether it was served from
// cache.
func (s *DashboardService) Overview(ctx context.Context) (*dto.OverviewResponse, bool, error) {
	var cached dto.OverviewResponse
	if s.cache.Get(ctx, overviewCacheKey, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	overview, err := s.buildOverview(ctx)
	s.metrics.ObserveDBQuery("dashboard_overview", time.Since(start))
	if err != nil {
		return nil, false, internalError(err, "failed to build dashboard overview")
	}

	s.cache.Set(ctx, overviewCacheKey, overview, s.cfg.CacheTTL)
	return overview, false, nil
}

func (s *DashboardService) buildOverview(ctx context.Context) (*dto.OverviewResponse, error) {
	now := s.now().In(s.cfg.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	active := true

	var (
		result = &dto.OverviewResponse{GeneratedAt: now.UTC()}
		err    error
	)
	counts := &result.Overview
	if counts.TotalTechnicians, err = s.technicians.Count(ctx); err != nil {
		return nil, fmt.Errorf("count technicians: %w", err)
	}
	if counts.TotalSessions, err = s.sessions.Count(ctx, models.SessionFilter{}); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if counts.ActiveSessions, err = s.sessions.Count(ctx, models.SessionFilter{Active: &active}); err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}
	if counts.TotalScans, err = s.scans.Count(ctx, models.ScanFilter{}); err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}
	if counts.TodayScans, err = s.scans.Count(ctx, models.ScanFilter{DateFrom: &midnight}); err != nil {
		return nil, fmt.Errorf("count today scans: %w", err)
	}
	if counts.WeeklyScans, err = s.scans.Count(ctx, models.ScanFilter{DateFrom: &weekAgo}); err != nil {
		return nil, fmt.Errorf("count weekly scans: %w", err)
	}

	statusRows, err := s.scans.StatusCounts(ctx, models.ScanFilter{})
	if err != nil {
		return nil, fmt.Errorf("count scans by status: %w", err)
	}
	for _, row := range statusRows {
		result.StatusBreakdown.Add(row.Status, row.Count)
	}

	if result.DepartmentStats, err = s.departmentStats(ctx); err != nil {
		return nil, err
	}

	if result.RecentActivity.LastScans, _, err = s.scans.List(ctx, models.ScanFilter{Page: 1, Limit: recentScansLimit}); err != nil {
		return nil, fmt.Errorf("recent scans: %w", err)
	}
	if result.RecentActivity.LastSessions, _, err = s.sessions.List(ctx, models.SessionFilter{Page: 1, Limit: recentSessionsLimit}); err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	return result, nil
}

// departmentStats merges technician headcounts with scan volume attributed
// through each scan's technician.
func (s *DashboardService) departmentStats(ctx context.Context) (map[string]models.DepartmentStat, error) {
	users, err := s.technicians.DepartmentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count technicians by department: %w", err)
	}
	scans, err := s.scans.DepartmentCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count scans by department: %w", err)
	}

	stats := make(map[string]models.DepartmentStat, len(users))
	for _, row := range users {
		stat := stats[row.Department]
		stat.Users += row.Users
		stats[row.Department] = stat
	}
	for _, row := range scans {
		stat := stats[row.Department]
		stat.Scans += row.Scans
		stats[row.Department] = stat
	}
	return stats, nil
}

// ScanHistory returns the filtered scans and stats computed over exactly
// those scans.
func (s *DashboardService) ScanHistory(ctx context.Context, filter models.ScanFilter) (*dto.ScanHistoryResponse, error) {
	if err := validateScanFilter(filter); err != nil {
		return nil, err
	}
	filter.IncludeArchived = false

	start := time.Now()
	scans, err := s.scans.ListAll(ctx, filter, maxUnpagedScans)
	s.metrics.ObserveDBQuery("dashboard_scan_history", time.Since(start))
	if err != nil {
		return nil, internalError(err, "failed to load scan history")
	}

	resp := &dto.ScanHistoryResponse{Scans: scans}
	for _, scan := range scans {
		resp.Stats.StatusBreakdown.Add(scan.Status, 1)
	}
	resp.Stats.TotalScans = len(scans)
	return resp, nil
}

// Users lists technicians, optionally for one department, with headcounts per
// department in the result.
func (s *DashboardService) Users(ctx context.Context, department string) (*dto.UsersResponse, error) {
	users, err := listAllTechnicians(ctx, s.technicians, models.TechnicianFilter{Department: department})
	if err != nil {
		return nil, internalError(err, "failed to list users")
	}
	departments := make(map[string]int)
	for _, user := range users {
		departments[user.Department]++
	}
	return &dto.UsersResponse{Users: users, Departments: departments, Total: len(users)}, nil
}

// Sessions lists one page of sessions with the active count of the page.
func (s *DashboardService) Sessions(ctx context.Context, filter models.SessionFilter) (*dto.SessionsResponse, *models.Pagination, error) {
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list sessions")
	}
	resp := &dto.SessionsResponse{Sessions: sessions, TotalSessions: total}
	for _, session := range sessions {
		if session.Active {
			resp.ActiveCount++
		}
	}
	return resp, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Notifications returns the most recent notifications and unread totals.
func (s *DashboardService) Notifications(ctx context.Context, limit int) (*dto.NotificationsResponse, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	items, _, err := s.notifications.ListNotifications(ctx, models.NotificationFilter{Page: 1, Limit: limit})
	if err != nil {
		return nil, internalError(err, "failed to list notifications")
	}
	unread, err := s.notifications.UnreadCounts(ctx)
	if err != nil {
		return nil, internalError(err, "failed to count unread notifications")
	}
	unread.Total = unread.UnreadMessages + unread.UnreadNotifications
	return &dto.NotificationsResponse{Notifications: items, Unread: *unread}, nil
}
