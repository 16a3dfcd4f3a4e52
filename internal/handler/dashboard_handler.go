package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/dto"
	"github.com/noah-isme/screen-admin-api/internal/middleware"
	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context) (*dto.OverviewResponse, bool, error)
	ScanHistory(ctx context.Context, filter models.ScanFilter) (*dto.ScanHistoryResponse, error)
	Users(ctx context.Context, department string) (*dto.UsersResponse, error)
	Sessions(ctx context.Context, filter models.SessionFilter) (*dto.SessionsResponse, *models.Pagination, error)
	Notifications(ctx context.Context, limit int) (*dto.NotificationsResponse, error)
}

// DashboardHandler serves aggregated dashboard endpoints.
type DashboardHandler struct {
	service  dashboardService
	location *time.Location
}

// NewDashboardHandler constructs a DashboardHandler. Plain dates in query
// parameters are interpreted in loc.
func NewDashboardHandler(svc dashboardService, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{service: svc, location: loc}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Headline counts, status breakdown, department stats and recent activity
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, hit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}

// ScanHistory godoc
// @Summary Scan history
// @Description Filtered scans with stats computed over the same result
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "Start date (YYYY-MM-DD or RFC3339)"
// @Param dateTo query string false "End date, inclusive"
// @Param department query string false "Technician department"
// @Param status query string false "Healthy, Reparable or Beyond Repair"
// @Param technician query string false "Technician id or username"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/scan-history [get]
func (h *DashboardHandler) ScanHistory(c *gin.Context) {
	filter, err := scanFilterFromQuery(c, h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.service.ScanHistory(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Users godoc
// @Summary Technicians by department
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department"
// @Success 200 {object} response.Envelope
// @Router /dashboard/users [get]
func (h *DashboardHandler) Users(c *gin.Context) {
	users, err := h.service.Users(c.Request.Context(), strings.TrimSpace(c.Query("department")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// Sessions godoc
// @Summary Work sessions
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "Start date"
// @Param dateTo query string false "End date, inclusive"
// @Param department query string false "Department"
// @Param technician query string false "Technician id or username"
// @Success 200 {object} response.Envelope
// @Router /dashboard/sessions [get]
func (h *DashboardHandler) Sessions(c *gin.Context) {
	filter, err := sessionFilterFromQuery(c, h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	sessions, pagination, err := h.service.Sessions(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Notifications godoc
// @Summary Recent notifications
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum notifications"
// @Success 200 {object} response.Envelope
// @Router /dashboard/notifications [get]
func (h *DashboardHandler) Notifications(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		response.Error(c, err)
		return
	}
	feed, err := h.service.Notifications(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed, nil)
}
