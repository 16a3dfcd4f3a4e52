package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/screen-admin-api/internal/dto"
	"github.com/noah-isme/screen-admin-api/internal/service"
	"github.com/noah-isme/screen-admin-api/pkg/export"
	"github.com/noah-isme/screen-admin-api/pkg/logger"
	"github.com/noah-isme/screen-admin-api/pkg/response"
)

type reportService interface {
	Generate(ctx context.Context, req service.ReportRequest) (*dto.ReportFile, error)
	Delete(name string) error
}

// ReportHandler renders and streams report downloads.
type ReportHandler struct {
	service  reportService
	location *time.Location
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc reportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{service: svc, location: loc}
}

// Download godoc
// @Summary Download a report
// @Description Renders scans, users or sessions as csv, excel or pdf. Archived scans are excluded.
// @Tags Reports
// @Produce octet-stream
// @Security BearerAuth
// @Param format path string true "csv, excel or pdf"
// @Param type query string false "scans (default), users or sessions"
// @Param dateFrom query string false "Start date"
// @Param dateTo query string false "End date, inclusive"
// @Param status query string false "Scan status"
// @Param department query string false "Department"
// @Param technician query string false "Technician id or username"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/{format} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	req, err := h.reportRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		if err := h.service.Delete(file.Name); err != nil {
			logger.FromContext(c).Warn("remove report file", zap.String("file", file.Name), zap.Error(err))
		}
	}()

	c.Header("Content-Type", file.ContentType)
	c.Header("X-Report-Rows", strconv.Itoa(file.Rows))
	c.FileAttachment(file.Path, file.FileName)
}

func (h *ReportHandler) reportRequest(c *gin.Context) (service.ReportRequest, error) {
	req := service.ReportRequest{Format: export.Format(strings.ToLower(c.Param("format")))}
	var err error
	if req.Type, err = service.ParseReportType(c.Query("type")); err != nil {
		return req, err
	}
	switch req.Type {
	case service.ReportTypeUsers:
		req.Technicians, err = technicianFilterFromQuery(c)
	case service.ReportTypeSessions:
		req.Sessions, err = sessionFilterFromQuery(c, h.location)
	default:
		req.Scans, err = scanFilterFromQuery(c, h.location)
	}
	return req, err
}
