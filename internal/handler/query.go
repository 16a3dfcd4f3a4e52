package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

const dateOnlyLayout = "2006-01-02"

// pageParams reads 1-based page and limit query values.
func pageParams(c *gin.Context) (int, int, error) {
	page, err := intQuery(c, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return 0, 0, err
	}
	page, limit = models.NormalizePage(page, limit)
	return page, limit, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return value, nil
}

func boolQuery(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be true or false")
	}
	return &value, nil
}

// dateQuery accepts RFC3339 timestamps or plain dates in loc. A plain date
// used as an upper bound covers the whole day.
func dateQuery(c *gin.Context, key string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	day, err := time.ParseInLocation(dateOnlyLayout, raw, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return &day, nil
}

func dateRange(c *gin.Context, loc *time.Location) (*time.Time, *time.Time, error) {
	from, err := dateQuery(c, "dateFrom", loc, false)
	if err != nil {
		return nil, nil, err
	}
	to, err := dateQuery(c, "dateTo", loc, true)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// scanFilterFromQuery builds a scan filter from the common list parameters.
func scanFilterFromQuery(c *gin.Context, loc *time.Location) (models.ScanFilter, error) {
	var filter models.ScanFilter
	var err error
	if filter.DateFrom, filter.DateTo, err = dateRange(c, loc); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.ScanStatus(raw)
		if !status.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "status must be one of Healthy, Reparable, Beyond Repair")
		}
		filter.Status = &status
	}
	filter.Department = strings.TrimSpace(c.Query("department"))
	filter.Technician = strings.TrimSpace(c.Query("technician"))
	filter.Search = searchTerm(c)
	filter.SessionID = strings.TrimSpace(c.Query("sessionId"))
	if archived, err := boolQuery(c, "includeArchived"); err != nil {
		return filter, err
	} else if archived != nil {
		filter.IncludeArchived = *archived
	}
	if filter.Page, filter.Limit, err = pageParams(c); err != nil {
		return filter, err
	}
	return filter, nil
}

func sessionFilterFromQuery(c *gin.Context, loc *time.Location) (models.SessionFilter, error) {
	var filter models.SessionFilter
	var err error
	if filter.DateFrom, filter.DateTo, err = dateRange(c, loc); err != nil {
		return filter, err
	}
	filter.Department = strings.TrimSpace(c.Query("department"))
	filter.Technician = strings.TrimSpace(c.Query("technician"))
	if filter.Active, err = boolQuery(c, "active"); err != nil {
		return filter, err
	}
	if filter.Page, filter.Limit, err = pageParams(c); err != nil {
		return filter, err
	}
	return filter, nil
}

func technicianFilterFromQuery(c *gin.Context) (models.TechnicianFilter, error) {
	filter := models.TechnicianFilter{
		Department: strings.TrimSpace(c.Query("department")),
		Search:     searchTerm(c),
	}
	var err error
	filter.Page, filter.Limit, err = pageParams(c)
	return filter, err
}

func searchTerm(c *gin.Context) string {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		return q
	}
	return strings.TrimSpace(c.Query("search"))
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
}
