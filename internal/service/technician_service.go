package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

const technicianConflict = "Username or email already exists"

type technicianRepository interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
	FindByID(ctx context.Context, id string) (*models.Technician, error)
	Create(ctx context.Context, technician *models.Technician) error
	Update(ctx context.Context, technician *models.Technician) error
	Delete(ctx context.Context, id string) error
}

// TechnicianService orchestrates technician management.
type TechnicianService struct {
	repo      technicianRepository
	validator *validator.Validate
	cache     *CacheService
	logger    *zap.Logger
}

// NewTechnicianService constructs a TechnicianService.
func NewTechnicianService(repo technicianRepository, validate *validator.Validate, cache *CacheService, logger *zap.Logger) *TechnicianService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TechnicianService{repo: repo, validator: validate, cache: cache, logger: logger}
}

// List returns technicians with pagination metadata.
func (s *TechnicianService) List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, *models.Pagination, error) {
	filter.Page, filter.Limit = models.NormalizePage(filter.Page, filter.Limit)
	filter.Department = strings.TrimSpace(filter.Department)
	filter.Search = strings.TrimSpace(filter.Search)

	technicians, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list users")
	}
	return technicians, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a technician by id.
func (s *TechnicianService) Get(ctx context.Context, id string) (*models.Technician, error) {
	technician, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User not found", "", "failed to load user")
	}
	return technician, nil
}

// Create registers a technician.
func (s *TechnicianService) Create(ctx context.Context, req models.CreateTechnicianRequest) (*models.Technician, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Department = strings.TrimSpace(req.Department)
	req.Email = nilIfEmpty(trimOptional(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}

	technician := &models.Technician{
		Username:   req.Username,
		Name:       req.Name,
		Surname:    strings.TrimSpace(req.Surname),
		Email:      req.Email,
		Department: req.Department,
	}
	if err := s.repo.Create(ctx, technician); err != nil {
		return nil, repoError(err, "User not found", technicianConflict, "failed to create user")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("technician created", zap.String("technician_id", technician.ID), zap.String("username", technician.Username))
	return technician, nil
}

// Update patches the provided technician fields.
func (s *TechnicianService) Update(ctx context.Context, id string, req models.UpdateTechnicianRequest) (*models.Technician, error) {
	req.Username = trimOptional(req.Username)
	req.Department = trimOptional(req.Department)
	req.Email = trimOptional(req.Email)
	// An empty email clears the field and must skip the format check.
	clearEmail := req.Email != nil && *req.Email == ""
	if clearEmail {
		req.Email = nil
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}

	technician, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		if *req.Username == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "username cannot be empty")
		}
		technician.Username = *req.Username
	}
	if req.Name != nil {
		technician.Name = strings.TrimSpace(*req.Name)
	}
	if req.Surname != nil {
		technician.Surname = strings.TrimSpace(*req.Surname)
	}
	switch {
	case clearEmail:
		technician.Email = nil
	case req.Email != nil:
		technician.Email = req.Email
	}
	if req.Department != nil && *req.Department != "" {
		technician.Department = *req.Department
	}

	if err := s.repo.Update(ctx, technician); err != nil {
		return nil, repoError(err, "User not found", technicianConflict, "failed to update user")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	return technician, nil
}

// Delete removes a technician.
func (s *TechnicianService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError(err, "User not found", "", "failed to delete user")
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
	s.logger.Info("technician deleted", zap.String("technician_id", id))
	return nil
}

func nilIfEmpty(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

type technicianLister interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
}

// listAllTechnicians walks every page of the filtered technician list.
func listAllTechnicians(ctx context.Context, repo technicianLister, filter models.TechnicianFilter) ([]models.Technician, error) {
	filter.Page, filter.Limit = 1, models.MaxPageLimit
	all := make([]models.Technician, 0)
	for {
		page, total, err := repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			return all, nil
		}
		filter.Page++
	}
}
