package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/screen-admin-api/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestMetricsHandlerReadiness(t *testing.T) {
	healthy := NewMetricsHandler(nil, stubPinger{})
	down := NewMetricsHandler(nil, stubPinger{err: errors.New("connection refused")})

	r := newTestEngine()
	r.GET("/health", down.Health)
	r.GET("/ready", healthy.Ready)
	r.GET("/ready-down", down.Ready)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, performRequest(r, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/ready", nil)
	resp := performRequest(r, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"database":"up"`)

	req, _ = http.NewRequest(http.MethodGet, "/ready-down", nil)
	resp = performRequest(r, req)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), `"database":"down"`)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordLogin(true)

	r := newTestEngine()
	r.GET("/metrics", NewMetricsHandler(metrics, nil).Prometheus)
	r.GET("/metrics-off", NewMetricsHandler(nil, nil).Prometheus)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	resp := performRequest(r, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "auth_login_attempts_total")

	req, _ = http.NewRequest(http.MethodGet, "/metrics-off", nil)
	assert.Equal(t, http.StatusServiceUnavailable, performRequest(r, req).Code)
}
