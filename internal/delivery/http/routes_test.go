package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/licitamatch/backend/config"
)

func TestSetupRouter(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.RateLimit.PerIP = 0

	router := SetupRouter(cfg, newTestHandler(), nil)

	t.Run("health route registered", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("compare route registered", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/match/compare", nil)
		router.ServeHTTP(w, req)
		// Empty body is a client error, not a missing route.
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nutrition", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
