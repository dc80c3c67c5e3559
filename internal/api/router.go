package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/pdfchat/internal/api/handlers"
	"github.com/nikhilbhutani/pdfchat/internal/api/middleware"
	"github.com/nikhilbhutani/pdfchat/internal/auth"
	"github.com/nikhilbhutani/pdfchat/internal/config"
	"github.com/nikhilbhutani/pdfchat/internal/store"
)

type Deps struct {
	Config   *config.Config
	Auth     *auth.JWTMiddleware
	Answerer handlers.Answerer
	Uploader handlers.Uploader
	Store    store.DocumentStore
	Checks   map[string]handlers.Check
	Logger   *slog.Logger
}

type Router struct {
	mux     *chi.Mux
	deps    Deps
	limiter *middleware.RateLimiter
}

func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Router{
		mux:     chi.NewRouter(),
		deps:    deps,
		limiter: middleware.NewRateLimiter(deps.Config.Server.RateLimitRPS, deps.Config.Server.RateLimitBurst),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	cfg := rt.deps.Config
	logger := rt.deps.Logger

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(rt.limiter.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.Checks, logger)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	msgH := handlers.NewMessageHandler(rt.deps.Answerer, logger)
	fileH := handlers.NewFileHandler(rt.deps.Uploader, rt.deps.Store, cfg.Storage.MaxUploadSize, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.deps.Auth.Authenticate)

		r.Post("/message", msgH.Send)

		r.Route("/files", func(r chi.Router) {
			r.Post("/", fileH.Upload)
			r.Get("/", fileH.List)
			r.Get("/{id}", fileH.Get)
			r.Get("/{id}/status", fileH.Status)
			r.Get("/{id}/messages", fileH.Messages)
		})
	})

	return r
}

// Close releases background resources held by middleware.
func (rt *Router) Close() {
	rt.limiter.Close()
}
