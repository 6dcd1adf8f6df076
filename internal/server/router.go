package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/noscite/noscite-assistant/internal/api"
	"github.com/noscite/noscite-assistant/internal/api/handlers"
	"github.com/noscite/noscite-assistant/internal/api/middleware"
	"github.com/noscite/noscite-assistant/internal/audit"
)

type RouterConfig struct {
	CORSOrigins      []string
	Tokens           middleware.TokenValidator
	Roles            middleware.RoleChecker
	Events           *audit.Logger
	ChatHandler      *handlers.ChatHandler
	ContactHandler   *handlers.ContactHandler
	KnowledgeHandler *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 2 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", handlers.CaptchaHeader, "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/functions", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Post("/contact", cfg.ContactHandler.Submit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.Tokens, cfg.Roles, cfg.Events))

			r.Get("/knowledge", cfg.KnowledgeHandler.List)
			r.Post("/knowledge/sync", cfg.KnowledgeHandler.Sync)
			r.Post("/knowledge/documents", cfg.KnowledgeHandler.IngestDocument)
		})
	})

	return r
}
