package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/romanetflavia-png/Sales-Resolve1/pkg/auth"
)

// RouterConfig collects everything NewRouter wires together.
type RouterConfig struct {
	Handler     *Handler
	Messages    *MessageHandler
	RateLimiter *RateLimiter
	Admin       auth.Credentials
	// StaticDir is served at / when non-empty.
	StaticDir string
	Logger    zerolog.Logger
}

// NewRouter builds the HTTP handler for the whole service.
func NewRouter(cfg RouterConfig) http.Handler {
	requireAdmin := auth.RequireBasic(cfg.Admin, auth.DefaultRealm)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", cfg.Handler.Health)
	mux.Handle("POST /api/contact", cfg.RateLimiter.Middleware(http.HandlerFunc(cfg.Messages.Submit)))
	mux.Handle("GET /api/messages", requireAdmin(http.HandlerFunc(cfg.Messages.List)))

	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return RequestLogger(cfg.Logger)(SecurityHeaders(cfg.Handler.CORS(mux)))
}
