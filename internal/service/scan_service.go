package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/models"
	"github.com/noah-isme/screen-admin-api/internal/repository"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

// maxUnpagedScans bounds history and export queries.
const maxUnpagedScans = 10000

type scanRepository interface {
	List(ctx context.Context, filter models.ScanFilter) ([]models.ScanRecord, int, error)
	ListAll(ctx context.Context, filter models.ScanFilter, max int) ([]models.ScanRecord, error)
	Count(ctx context.Context, filter models.ScanFilter) (int, error)
	StatusCounts(ctx context.Context, filter models.ScanFilter) ([]models.StatusCount, error)
	DepartmentCounts(ctx context.Context) ([]repository.DepartmentScans, error)
	FindByID(ctx context.Context, id string) (*models.ScanRecord, error)
	Update(ctx context.Context, scan *models.ScanRecord) error
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string, at time.Time) error
}

// ScanService manages scan records for administrators.
type ScanService struct {
	repo      scanRepository
	validator *validator.Validate
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
}

// NewScanService constructs a ScanService.
func NewScanService(repo scanRepository, validate *validator.Validate, cache *CacheService, logger *zap.Logger) *ScanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanService{repo: repo, validator: validate, cache: cache, logger: logger, now: time.Now}
}

// List returns one page of scans. Archived scans are hidden unless the
// filter asks for them.
func (s *ScanService) List(ctx context.Context, filter models.ScanFilter) ([]models.ScanRecord, *models.Pagination, error) {
	if err := validateScanFilter(filter); err != nil {
		return nil, nil, err
	}
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)
	scans, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list scans")
	}
	return scans, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a scan by id.
func (s *ScanService) Get(ctx context.Context, id string) (*models.ScanRecord, error) {
	scan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Scan not found", "", "failed to load scan")
	}
	return scan, nil
}

// Update changes status or barcode of a scan.
func (s *ScanService) Update(ctx context.Context, id string, req models.UpdateScanRequest) (*models.ScanRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid scan payload")
	}
	scan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		scan.Status = *req.Status
	}
	if req.Barcode != nil {
		barcode := strings.TrimSpace(*req.Barcode)
		if barcode == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "barcode cannot be empty")
		}
		scan.Barcode = barcode
	}
	if err := s.repo.Update(ctx, scan); err != nil {
		return nil, repoError(err, "Scan not found", "", "failed to update scan")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	return scan, nil
}

// Delete removes a scan permanently.
func (s *ScanService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "Scan not found", "", "failed to delete scan")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	return nil
}

// Archive hides a scan from default views. Archiving an archived scan is
// reported as not found.
func (s *ScanService) Archive(ctx context.Context, id string) error {
	if err := s.repo.Archive(ctx, id, s.now().UTC()); err != nil {
		return repoError(err, "Scan not found", "", "failed to archive scan")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("scan archived", zap.String("scan_id", id))
	return nil
}

func validateScanFilter(filter models.ScanFilter) error {
	if filter.Status != nil && !filter.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be one of Healthy, Reparable, Beyond Repair")
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return appErrors.Clone(appErrors.ErrValidation, "dateFrom must not be after dateTo")
	}
	return nil
}
