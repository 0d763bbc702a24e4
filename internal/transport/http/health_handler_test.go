package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/services"
	"salespulse/internal/shared/testutil"
	"salespulse/internal/store"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("0.3.0", store.NewMemoryStore(), nil, logger), logger)

	t.Run("root readiness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","message":"Pizza Analytics API is running!"}`, rec.Body.String())
	})

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "0.3.0", body["version"])
		assert.Equal(t, float64(0), body["uploads"])
		assert.Contains(t, body, "uptime")
	})
}
