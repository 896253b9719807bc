package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"sapid/internal/api/v1/dto"
	"sapid/internal/config"
	"sapid/internal/upstream"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ChatHandler struct {
	dify     upstream.Client
	cfg      *config.Config
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewChatHandler(dify upstream.Client, cfg *config.Config, validate *validator.Validate, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		dify:     dify,
		cfg:      cfg,
		validate: validate,
		logger:   logger.With().Str("handler", "ChatHandler").Logger(),
	}
}

// StreamChat godoc
// @Summary Stream a chat response
// @Description Forwards the chat request to the Dify API and relays the raw SSE byte stream back without buffering.
// @Tags chat
// @Accept json
// @Produce text/event-stream
// @Param request body dto.ChatRequestDTO true "Chat request"
// @Success 200 {string} string "Server-Sent Events stream"
// @Failure 400 {object} dto.ErrorResponse "Missing required fields"
// @Failure 500 {object} dto.ErrorResponse "Upstream credential not configured"
// @Router /api/chat [post]
func (h *ChatHandler) StreamChat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing required fields: query and user")
		return
	}

	// The credential is checked per request: its absence is a hard 500,
	// raised before any upstream call.
	if h.cfg.DifyAPIKey == "" {
		respondWithError(w, http.StatusInternalServerError, "DIFY_API_KEY not configured")
		return
	}

	// The inbound request context backs the upstream connection, so a client
	// disconnect cancels the upstream read as well.
	body, err := h.dify.StreamChatMessage(r.Context(), req.ToModel())
	if err != nil {
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			// Mirror the upstream status; the detailed body was already
			// logged by the client and is never forwarded.
			respondWithError(w, statusErr.Code, "Failed to communicate with Dify API")
			return
		}
		h.logger.Error().Err(err).Msg("Failed to open upstream stream")
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			h.logger.Warn().Err(closeErr).Msg("Failed to close upstream body")
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	// Pump upstream chunks straight through, one at a time. The whole body is
	// never held in memory.
	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				h.logger.Debug().Err(writeErr).Msg("Client went away mid-stream")
				return
			}
			flusher.Flush()
		}
		if readErr == io.EOF {
			return
		}
		if readErr != nil {
			// Abort the connection so the client sees a broken stream, not a
			// clean end with partial content.
			h.logger.Error().Err(readErr).Msg("Upstream stream read failed")
			panic(http.ErrAbortHandler)
		}
	}
}
