package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sapid/internal/api/v1/dto"
	"sapid/internal/api/v1/handler"
	"sapid/internal/config"
)

func getHealth(h *handler.HealthHandler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)
	return rec
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) dto.HealthResponse {
	t.Helper()
	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth_Healthy(t *testing.T) {
	dify := &stubDify{}
	cfg := &config.Config{DifyAPIKey: "key", Version: "1.0.0"}
	rec := getHealth(handler.NewHealthHandler(dify, cfg, zerolog.Nop()))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.True(t, resp.DifyConnected)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Equal(t, 1, dify.pingCalls)
}

func TestHealth_MissingAPIKey(t *testing.T) {
	dify := &stubDify{}
	cfg := &config.Config{}
	rec := getHealth(handler.NewHealthHandler(dify, cfg, zerolog.Nop()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "DIFY_API_KEY not configured", resp.Error)
	assert.Equal(t, 0, dify.pingCalls, "no probe without a credential")
}

func TestHealth_UpstreamDown(t *testing.T) {
	dify := &stubDify{pingErr: errors.New("dial tcp: connection refused")}
	cfg := &config.Config{DifyAPIKey: "key"}
	rec := getHealth(handler.NewHealthHandler(dify, cfg, zerolog.Nop()))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "Failed to connect to Dify API", resp.Error)
}
