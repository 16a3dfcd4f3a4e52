package dto

import (
	"time"

	"github.com/noah-isme/screen-admin-api/internal/models"
)

// OverviewResponse is the aggregated admin dashboard payload.
type OverviewResponse struct {
	Overview        OverviewCounts                   `json:"overview"`
	StatusBreakdown models.StatusBreakdown           `json:"statusBreakdown"`
	DepartmentStats map[string]models.DepartmentStat `json:"departmentStats"`
	RecentActivity  RecentActivity                   `json:"recentActivity"`
	GeneratedAt     time.Time                        `json:"generatedAt"`
}

// OverviewCounts holds the headline totals. Archived scans are excluded.
type OverviewCounts struct {
	TotalTechnicians int `json:"totalTechnicians"`
	TotalSessions    int `json:"totalSessions"`
	ActiveSessions   int `json:"activeSessions"`
	TotalScans       int `json:"totalScans"`
	TodayScans       int `json:"todayScans"`
	WeeklyScans      int `json:"weeklyScans"`
}

// RecentActivity lists the newest scans and sessions.
type RecentActivity struct {
	LastScans    []models.ScanRecord  `json:"lastScans"`
	LastSessions []models.WorkSession `json:"lastSessions"`
}

// ScanHistoryResponse pairs a filtered scan list with stats over exactly
// that list.
type ScanHistoryResponse struct {
	Stats ScanHistoryStats    `json:"stats"`
	Scans []models.ScanRecord `json:"scans"`
}

// ScanHistoryStats summarises a scan history result.
type ScanHistoryStats struct {
	TotalScans      int                    `json:"totalScans"`
	StatusBreakdown models.StatusBreakdown `json:"statusBreakdown"`
}

// UsersResponse lists technicians with per-department headcounts.
type UsersResponse struct {
	Users       []models.Technician `json:"users"`
	Departments map[string]int      `json:"departments"`
	Total       int                 `json:"total"`
}

// SessionsResponse lists sessions with the active subset count.
type SessionsResponse struct {
	Sessions      []models.WorkSession `json:"sessions"`
	ActiveCount   int                  `json:"activeCount"`
	TotalSessions int                  `json:"totalSessions"`
}

// NotificationsResponse lists recent notifications with unread counts.
type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        models.UnreadCount    `json:"unread"`
}
