package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/dto"
	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

type fakeDashboardService struct {
	overview    *dto.OverviewResponse
	hit         bool
	err         error
	lastFilter  models.ScanFilter
	lastDept    string
	lastLimit   int
	lastSession models.SessionFilter
}

func (f *fakeDashboardService) Overview(context.Context) (*dto.OverviewResponse, bool, error) {
	return f.overview, f.hit, f.err
}

func (f *fakeDashboardService) ScanHistory(_ context.Context, filter models.ScanFilter) (*dto.ScanHistoryResponse, error) {
	f.lastFilter = filter
	return &dto.ScanHistoryResponse{Scans: []models.ScanRecord{}}, nil
}

func (f *fakeDashboardService) Users(_ context.Context, department string) (*dto.UsersResponse, error) {
	f.lastDept = department
	return &dto.UsersResponse{Users: []models.Technician{}, Departments: map[string]int{}}, nil
}

func (f *fakeDashboardService) Sessions(_ context.Context, filter models.SessionFilter) (*dto.SessionsResponse, *models.Pagination, error) {
	f.lastSession = filter
	return &dto.SessionsResponse{Sessions: []models.WorkSession{}}, models.NewPagination(filter.Page, filter.Limit, 0), nil
}

func (f *fakeDashboardService) Notifications(_ context.Context, limit int) (*dto.NotificationsResponse, error) {
	f.lastLimit = limit
	return &dto.NotificationsResponse{Notifications: []models.Notification{}}, nil
}

func buildDashboardRouter(svc *fakeDashboardService) *gin.Engine {
	h := NewDashboardHandler(svc, time.UTC)
	r := newTestEngine()
	r.GET("/dashboard/overview", h.Overview)
	r.GET("/dashboard/scan-history", h.ScanHistory)
	r.GET("/dashboard/users", h.Users)
	r.GET("/dashboard/sessions", h.Sessions)
	r.GET("/dashboard/notifications", h.Notifications)
	return r
}

func TestDashboardHandlerOverviewReportsCacheHit(t *testing.T) {
	svc := &fakeDashboardService{
		overview: &dto.OverviewResponse{
			Overview:        dto.OverviewCounts{TotalScans: 3, TodayScans: 3, WeeklyScans: 3},
			StatusBreakdown: models.StatusBreakdown{Healthy: 2, BeyondRepair: 1},
		},
		hit: true,
	}
	r := buildDashboardRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Overview        map[string]interface{} `json:"overview"`
		StatusBreakdown map[string]interface{} `json:"statusBreakdown"`
	}
	env := decodeData(t, resp, &payload)
	assert.Equal(t, float64(3), payload.Overview["totalScans"])
	assert.Equal(t, map[string]interface{}{"Healthy": float64(2), "Reparable": float64(0), "Beyond Repair": float64(1)}, payload.StatusBreakdown)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.NotContains(t, env.Meta, "started_at")
}

func TestDashboardHandlerOverviewUnavailable(t *testing.T) {
	svc := &fakeDashboardService{err: appErrors.Clone(appErrors.ErrInternal, "failed to build overview")}
	r := buildDashboardRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "failed to build overview", env.Error.Message)
}

func TestDashboardHandlerForwardsQueryParameters(t *testing.T) {
	svc := &fakeDashboardService{}
	r := buildDashboardRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/scan-history?department=Field&status=Healthy", nil)
	require.Equal(t, http.StatusOK, performRequest(r, req).Code)
	assert.Equal(t, "Field", svc.lastFilter.Department)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.ScanStatusHealthy, *svc.lastFilter.Status)

	req, _ = http.NewRequest(http.MethodGet, "/dashboard/users?department=%20Repairs%20", nil)
	require.Equal(t, http.StatusOK, performRequest(r, req).Code)
	assert.Equal(t, "Repairs", svc.lastDept)

	req, _ = http.NewRequest(http.MethodGet, "/dashboard/sessions?active=true", nil)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.lastSession.Active)
	assert.True(t, *svc.lastSession.Active)
	assert.NotNil(t, decodeEnvelope(t, resp).Pagination)

	req, _ = http.NewRequest(http.MethodGet, "/dashboard/notifications?limit=5", nil)
	require.Equal(t, http.StatusOK, performRequest(r, req).Code)
	assert.Equal(t, 5, svc.lastLimit)
}

func TestDashboardHandlerRejectsMalformedDate(t *testing.T) {
	r := buildDashboardRouter(&fakeDashboardService{})

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/scan-history?dateTo=tomorrow", nil)
	resp := performRequest(r, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
