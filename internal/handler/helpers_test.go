package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/middleware"
	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, dest))
	return env
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	return r
}

// asAdmin injects claims the way the JWT middleware would.
func asAdmin(username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: username, Role: models.RoleAdmin})
		c.Next()
	}
}

type fakeTechnicianService struct {
	items      []models.Technician
	lastFilter models.TechnicianFilter
	created    *models.CreateTechnicianRequest
	err        error
}

func (f *fakeTechnicianService) List(_ context.Context, filter models.TechnicianFilter) ([]models.Technician, *models.Pagination, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.items, models.NewPagination(filter.Page, filter.Limit, len(f.items)), nil
}

func (f *fakeTechnicianService) Get(_ context.Context, id string) (*models.Technician, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
}

func (f *fakeTechnicianService) Create(_ context.Context, req models.CreateTechnicianRequest) (*models.Technician, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &req
	return &models.Technician{ID: "t-new", Username: req.Username, Name: req.Name, Department: req.Department}, nil
}

func (f *fakeTechnicianService) Update(ctx context.Context, id string, req models.UpdateTechnicianRequest) (*models.Technician, error) {
	tech, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		tech.Username = *req.Username
	}
	return tech, nil
}

func (f *fakeTechnicianService) Delete(ctx context.Context, id string) error {
	_, err := f.Get(ctx, id)
	return err
}

type fakeScanService struct {
	items      []models.ScanRecord
	lastFilter models.ScanFilter
	archived   []string
}

func (f *fakeScanService) List(_ context.Context, filter models.ScanFilter) ([]models.ScanRecord, *models.Pagination, error) {
	f.lastFilter = filter
	return f.items, models.NewPagination(filter.Page, filter.Limit, len(f.items)), nil
}

func (f *fakeScanService) Get(_ context.Context, id string) (*models.ScanRecord, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Scan not found")
}

func (f *fakeScanService) Update(ctx context.Context, id string, req models.UpdateScanRequest) (*models.ScanRecord, error) {
	scan, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		scan.Status = *req.Status
	}
	return scan, nil
}

func (f *fakeScanService) Delete(ctx context.Context, id string) error {
	_, err := f.Get(ctx, id)
	return err
}

func (f *fakeScanService) Archive(ctx context.Context, id string) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	f.archived = append(f.archived, id)
	return nil
}

type fakeSessionService struct {
	detail *models.SessionDetail
}

func (f *fakeSessionService) List(_ context.Context, filter models.SessionFilter) ([]models.WorkSession, *models.Pagination, error) {
	if f.detail == nil {
		return []models.WorkSession{}, models.NewPagination(filter.Page, filter.Limit, 0), nil
	}
	return []models.WorkSession{f.detail.WorkSession}, models.NewPagination(filter.Page, filter.Limit, 1), nil
}

func (f *fakeSessionService) Get(_ context.Context, id string) (*models.SessionDetail, error) {
	if f.detail == nil || f.detail.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Session not found")
	}
	return f.detail, nil
}
