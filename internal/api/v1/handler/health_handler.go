package handler

import (
	"net/http"
	"time"

	"sapid/internal/api/v1/dto"
	"sapid/internal/config"
	"sapid/internal/upstream"

	"github.com/rs/zerolog"
)

type HealthHandler struct {
	dify   upstream.Client
	cfg    *config.Config
	logger zerolog.Logger
}

func NewHealthHandler(dify upstream.Client, cfg *config.Config, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		dify:   dify,
		cfg:    cfg,
		logger: logger.With().Str("handler", "HealthHandler").Logger(),
	}
}

// Check godoc
// @Summary Health check
// @Description Probes the Dify API and reports whether the relay can reach it.
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 500 {object} dto.HealthResponse "Upstream credential not configured"
// @Failure 503 {object} dto.HealthResponse "Upstream unreachable"
// @Router /api/health [get]
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	if h.cfg.DifyAPIKey == "" {
		respondWithJSON(w, http.StatusInternalServerError, dto.HealthResponse{
			Status:    "unhealthy",
			Timestamp: now,
			Error:     "DIFY_API_KEY not configured",
		})
		return
	}

	if err := h.dify.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Dify health probe failed")
		respondWithJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{
			Status:    "unhealthy",
			Timestamp: now,
			Error:     "Failed to connect to Dify API",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, dto.HealthResponse{
		Status:        "healthy",
		Timestamp:     now,
		Version:       h.cfg.Version,
		DifyConnected: true,
	})
}
