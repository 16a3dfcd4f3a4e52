package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/models"
	appErrors "github.com/noah-isme/screen-admin-api/pkg/errors"
)

func TestSessionServiceGetIncludesArchivedScans(t *testing.T) {
	now := time.Now()
	_, scans := newScanFixture(now)
	ended := now.Add(-30 * time.Minute)
	sessions := &fakeSessionRepo{items: []models.WorkSession{
		{ID: "w1", Department: "Repairs", StartTime: now.Add(-3 * time.Hour), EndTime: &ended, ScanCount: 2},
	}}
	svc := NewSessionService(sessions, scans, nil)
	ctx := context.Background()

	require.NoError(t, NewScanService(scans, nil, nil, nil).Archive(ctx, "s2"))

	detail, err := svc.Get(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, detail.Active)
	require.Len(t, detail.Scans, 2)
	ids := []string{detail.Scans[0].ID, detail.Scans[1].ID}
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}

func TestSessionServiceGetNotFound(t *testing.T) {
	svc := NewSessionService(&fakeSessionRepo{}, &fakeScanRepo{}, nil)

	_, err := svc.Get(context.Background(), "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Session not found", appErr.Message)
}

func TestSessionServiceListFiltersActive(t *testing.T) {
	now := time.Now()
	ended := now.Add(-time.Hour)
	sessions := &fakeSessionRepo{items: []models.WorkSession{
		{ID: "w1", StartTime: now.Add(-2 * time.Hour), EndTime: &ended},
		{ID: "w2", StartTime: now.Add(-10 * time.Minute)},
	}}
	svc := NewSessionService(sessions, &fakeScanRepo{}, nil)
	active := true

	items, pagination, err := svc.List(context.Background(), models.SessionFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "w2", items[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, models.DefaultPageLimit, pagination.Limit)
}

func TestSessionServiceListRejectsInvertedRange(t *testing.T) {
	svc := NewSessionService(&fakeSessionRepo{}, &fakeScanRepo{}, nil)
	from := time.Now()
	to := from.Add(-time.Hour)

	_, _, err := svc.List(context.Background(), models.SessionFilter{DateFrom: &from, DateTo: &to})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
