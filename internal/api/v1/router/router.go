package router

import (
	"net/http"

	"sapid/internal/api/v1/handler"
	"sapid/internal/config"
	"sapid/internal/middleware"
	"sapid/internal/upstream"

	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the upstream client, handlers and middleware into the served
// handler chain.
func New(cfg *config.Config, logger zerolog.Logger) http.Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	dify := upstream.NewDifyClient(cfg.DifyAPIURL, cfg.DifyAPIKey, logger)

	chatHandler := handler.NewChatHandler(dify, cfg, validate, logger)
	healthHandler := handler.NewHealthHandler(dify, cfg, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", chatHandler.StreamChat)
	mux.HandleFunc("GET /api/health", healthHandler.Check)

	// A bare OPTIONS without preflight headers bypasses the cors layer and
	// lands on the mux; answer it with an empty 200 rather than a 405.
	mux.HandleFunc("OPTIONS /api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type"},
		OptionsSuccessStatus: http.StatusOK,
	})

	return middleware.Logger(logger)(c.Handler(mux))
}
