package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"equitydesk/internal/adapters/config"
	"equitydesk/internal/api/health"
	"equitydesk/internal/api/runs"
	"equitydesk/pkg/logger"
)

func TestServerRoutes(t *testing.T) {
	log := logger.NewNop()
	runsHandler := runs.NewHandler(nil, func() config.RunInput { return config.RunInput{Ticker: "AAPL"} }, time.Minute)
	server := NewServer(ServerConfig{ServiceName: "equitydesk", Version: "test"}, health.New(log, "equitydesk", "test"), runsHandler, log)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/defaults", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestAccessLogRecoversPanics(t *testing.T) {
	h := accessLog(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), logger.NewNop())

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
