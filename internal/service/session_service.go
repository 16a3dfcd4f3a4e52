package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.WorkSession, int, error)
	FindByID(ctx context.Context, id string) (*models.WorkSession, error)
}

type sessionScanLister interface {
	ListAll(ctx context.Context, filter models.ScanFilter, max int) ([]models.ScanRecord, error)
}

// SessionService exposes technician work sessions.
type SessionService struct {
	repo   sessionRepository
	scans  sessionScanLister
	logger *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, scans sessionScanLister, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, scans: scans, logger: logger}
}

// List returns sessions with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.WorkSession, *models.Pagination, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateFrom must not be after dateTo")
	}
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list sessions")
	}
	return sessions, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a session together with every scan recorded in it, archived
// ones included so the list matches scan_count.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionDetail, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Session not found", "", "failed to load session")
	}
	scans, err := s.scans.ListAll(ctx, models.ScanFilter{SessionID: session.ID, IncludeArchived: true}, maxUnpagedScans)
	if err != nil {
		return nil, internalError(err, "failed to load session scans")
	}
	return &models.SessionDetail{WorkSession: *session, Scans: scans}, nil
}
