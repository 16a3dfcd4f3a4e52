package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

type technicianService interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Technician, error)
	Create(ctx context.Context, req models.CreateTechnicianRequest) (*models.Technician, error)
	Update(ctx context.Context, id string, req models.UpdateTechnicianRequest) (*models.Technician, error)
	Delete(ctx context.Context, id string) error
}

type scanService interface {
	List(ctx context.Context, filter models.ScanFilter) ([]models.ScanRecord, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ScanRecord, error)
	Update(ctx context.Context, id string, req models.UpdateScanRequest) (*models.ScanRecord, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
}

type sessionService interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.WorkSession, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.SessionDetail, error)
}

// AdminHandler exposes technician, scan and session management.
type AdminHandler struct {
	technicians technicianService
	scans       scanService
	sessions    sessionService
	location    *time.Location
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(technicians technicianService, scans scanService, sessions sessionService, loc *time.Location) *AdminHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AdminHandler{technicians: technicians, scans: scans, sessions: sessions, location: loc}
}

// ListUsers godoc
// @Summary List technicians
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param department query string false "Department"
// @Param search query string false "Matches username, name, surname or email"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter, err := technicianFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	users, pagination, err := h.technicians.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// GetUser godoc
// @Summary Get technician
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Technician ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.technicians.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// CreateUser godoc
// @Summary Create technician
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateTechnicianRequest true "Technician payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req models.CreateTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	user, err := h.technicians.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// UpdateUser godoc
// @Summary Update technician
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Technician ID"
// @Param payload body models.UpdateTechnicianRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req models.UpdateTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	user, err := h.technicians.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// DeleteUser godoc
// @Summary Delete technician
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Technician ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.technicians.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListScans godoc
// @Summary List scans
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "Start date"
// @Param dateTo query string false "End date, inclusive"
// @Param status query string false "Status"
// @Param department query string false "Technician department"
// @Param technician query string false "Technician id or username"
// @Param includeArchived query bool false "Include archived scans"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} response.Envelope
// @Router /admin/scans [get]
func (h *AdminHandler) ListScans(c *gin.Context) {
	filter, err := scanFilterFromQuery(c, h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	scans, pagination, err := h.scans.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scans, pagination)
}

// GetScan godoc
// @Summary Get scan
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/scans/{id} [get]
func (h *AdminHandler) GetScan(c *gin.Context) {
	scan, err := h.scans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scan, nil)
}

// UpdateScan godoc
// @Summary Update scan
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scan ID"
// @Param payload body models.UpdateScanRequest true "Status or barcode"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/scans/{id} [put]
func (h *AdminHandler) UpdateScan(c *gin.Context) {
	var req models.UpdateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	scan, err := h.scans.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scan, nil)
}

// DeleteScan godoc
// @Summary Delete scan
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Scan ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/scans/{id} [delete]
func (h *AdminHandler) DeleteScan(c *gin.Context) {
	if err := h.scans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ArchiveScan godoc
// @Summary Archive scan
// @Description Hide a scan from default listings, history, aggregates and reports
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Scan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/scans/{id}/archive [post]
func (h *AdminHandler) ArchiveScan(c *gin.Context) {
	id := c.Param("id")
	if err := h.scans.Archive(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Scan archived successfully", "id": id}, nil)
}

// ListSessions godoc
// @Summary List work sessions
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "Start date"
// @Param dateTo query string false "End date, inclusive"
// @Param department query string false "Department"
// @Param technician query string false "Technician id or username"
// @Param active query bool false "Only open or closed sessions"
// @Success 200 {object} response.Envelope
// @Router /admin/sessions [get]
func (h *AdminHandler) ListSessions(c *gin.Context) {
	filter, err := sessionFilterFromQuery(c, h.location)
	if err != nil {
		response.Error(c, err)
		return
	}
	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// GetSession godoc
// @Summary Get work session with its scans
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/sessions/{id} [get]
func (h *AdminHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// SearchScans godoc
// @Summary Search scans by barcode
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string true "Barcode fragment"
// @Param includeArchived query bool false "Include archived scans"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/search/scans [get]
func (h *AdminHandler) SearchScans(c *gin.Context) {
	if searchTerm(c) == "" {
		response.Error(c, errSearchTermRequired())
		return
	}
	h.ListScans(c)
}

// SearchUsers godoc
// @Summary Search technicians
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string true "Matches username, name, surname or email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/search/users [get]
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	if searchTerm(c) == "" {
		response.Error(c, errSearchTermRequired())
		return
	}
	h.ListUsers(c)
}

func errSearchTermRequired() error {
	return appErrors.Clone(appErrors.ErrBadRequest, "Search query is required")
}
