package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/dto"
	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/export"
)

const reportTimeLayout = "2006-01-02 15:04:05"

// ReportType names the dataset a report is built from.
type ReportType string

const (
	ReportTypeScans    ReportType = "scans"
	ReportTypeUsers    ReportType = "users"
	ReportTypeSessions ReportType = "sessions"
)

// ReportRequest selects the dataset, the encoding and the filters.
type ReportRequest struct {
	Format      export.Format
	Type        ReportType
	Scans       models.ScanFilter
	Sessions    models.SessionFilter
	Technicians models.TechnicianFilter
}

type reportStorage interface {
	SaveTemp(prefix, ext string, data []byte) (string, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
	Path(filename string) (string, error)
}

type reportSessionLister interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.WorkSession, int, error)
}

type reportScanLister interface {
	ListAll(ctx context.Context, filter models.ScanFilter, max int) ([]models.ScanRecord, error)
}

// ReportService renders datasets into temporary files for download.
type ReportService struct {
	scans       reportScanLister
	technicians technicianLister
	sessions    reportSessionLister
	storage     reportStorage
	metrics     *MetricsService
	logger      *zap.Logger
	location    *time.Location
	tempTTL     time.Duration
	now         func() time.Time
}

// ReportServiceConfig tunes report rendering.
type ReportServiceConfig struct {
	Location *time.Location
	TempTTL  time.Duration
}

// NewReportService constructs a ReportService.
func NewReportService(scans reportScanLister, technicians technicianLister, sessions reportSessionLister, storage reportStorage, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.TempTTL <= 0 {
		cfg.TempTTL = time.Hour
	}
	return &ReportService{
		scans:       scans,
		technicians: technicians,
		sessions:    sessions,
		storage:     storage,
		metrics:     metrics,
		logger:      logger,
		location:    cfg.Location,
		tempTTL:     cfg.TempTTL,
		now:         time.Now,
	}
}

// ParseReportType validates a report type query value. Empty means scans.
func ParseReportType(raw string) (ReportType, error) {
	switch ReportType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReportTypeScans:
		return ReportTypeScans, nil
	case ReportTypeUsers:
		return ReportTypeUsers, nil
	case ReportTypeSessions:
		return ReportTypeSessions, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "type must be one of scans, users, sessions")
	}
}

// Generate builds the requested dataset, renders it and writes it to a
// temporary file. The caller deletes the file once it has been sent.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (*dto.ReportFile, error) {
	renderer, err := export.NewRenderer(req.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, excel, pdf")
	}

	dataset, err := s.buildDataset(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}

	generatedAt := s.now()
	prefix := fmt.Sprintf("%s_report", req.Type)
	name, err := s.storage.SaveTemp(prefix, renderer.Extension(), payload)
	if err != nil {
		return nil, internalError(err, "failed to write report")
	}
	path, err := s.storage.Path(name)
	if err != nil {
		_ = s.storage.Delete(name)
		return nil, internalError(err, "failed to locate report")
	}

	s.metrics.RecordReport(string(req.Format), string(req.Type))
	s.logger.Info("report generated",
		zap.String("type", string(req.Type)),
		zap.String("format", string(req.Format)),
		zap.Int("rows", len(dataset.Rows)),
	)

	return &dto.ReportFile{
		Name:        name,
		Path:        path,
		FileName:    fmt.Sprintf("%s_%s%s", prefix, generatedAt.UTC().Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Rows:        len(dataset.Rows),
		GeneratedAt: generatedAt,
	}, nil
}

// Delete removes a generated report file.
func (s *ReportService) Delete(name string) error {
	return s.storage.Delete(name)
}

// Cleanup removes report files older than ttl, falling back to the
// configured TTL when ttl is not positive.
func (s *ReportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.tempTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("stale reports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *ReportService) buildDataset(ctx context.Context, req ReportRequest) (export.Dataset, error) {
	switch req.Type {
	case ReportTypeScans:
		return s.scanDataset(ctx, req.Scans)
	case ReportTypeUsers:
		return s.userDataset(ctx, req.Technicians)
	case ReportTypeSessions:
		return s.sessionDataset(ctx, req.Sessions)
	default:
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, "type must be one of scans, users, sessions")
	}
}

func (s *ReportService) scanDataset(ctx context.Context, filter models.ScanFilter) (export.Dataset, error) {
	if err := validateScanFilter(filter); err != nil {
		return export.Dataset{}, err
	}
	filter.IncludeArchived = false
	scans, err := s.scans.ListAll(ctx, filter, maxUnpagedScans)
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to load scans")
	}

	dataset := export.Dataset{
		Title:   "Scan Report",
		Headers: []string{"ID", "Barcode", "Status", "Timestamp", "Technician", "Department", "Session"},
		Rows:    make([]map[string]string, 0, len(scans)),
	}
	for _, scan := range scans {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         scan.ID,
			"Barcode":    scan.Barcode,
			"Status":     string(scan.Status),
			"Timestamp":  s.formatTime(scan.Timestamp),
			"Technician": deref(scan.Technician),
			"Department": scan.Department,
			"Session":    deref(scan.SessionID),
		})
	}
	return dataset, nil
}

func (s *ReportService) userDataset(ctx context.Context, filter models.TechnicianFilter) (export.Dataset, error) {
	technicians, err := listAllTechnicians(ctx, s.technicians, filter)
	if err != nil {
		return export.Dataset{}, internalError(err, "failed to load users")
	}

	dataset := export.Dataset{
		Title:   "User Report",
		Headers: []string{"ID", "Username", "Name", "Surname", "Email", "Department", "Created"},
		Rows:    make([]map[string]string, 0, len(technicians)),
	}
	for _, tech := range technicians {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         tech.ID,
			"Username":   tech.Username,
			"Name":       tech.Name,
			"Surname":    tech.Surname,
			"Email":      deref(tech.Email),
			"Department": tech.Department,
			"Created":    s.formatTime(tech.CreatedAt),
		})
	}
	return dataset, nil
}

func (s *ReportService) sessionDataset(ctx context.Context, filter models.SessionFilter) (export.Dataset, error) {
	filter.Page, filter.Limit = 1, models.MaxPageLimit
	sessions := make([]models.WorkSession, 0)
	for {
		page, total, err := s.sessions.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, internalError(err, "failed to load sessions")
		}
		sessions = append(sessions, page...)
		if len(page) == 0 || len(sessions) >= total {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Title:   "Session Report",
		Headers: []string{"ID", "Technician", "Department", "Start", "End", "Scans", "Active"},
		Rows:    make([]map[string]string, 0, len(sessions)),
	}
	for _, session := range sessions {
		end := ""
		if session.EndTime != nil {
			end = s.formatTime(*session.EndTime)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":         session.ID,
			"Technician": deref(session.Technician),
			"Department": session.Department,
			"Start":      s.formatTime(session.StartTime),
			"End":        end,
			"Scans":      strconv.Itoa(session.ScanCount),
			"Active":     strconv.FormatBool(session.Active),
		})
	}
	return dataset, nil
}

func (s *ReportService) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.location).Format(reportTimeLayout)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
