package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/hlog"

	"github.com/pesio-ai/be-fraud-cases/internal/logger"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Authenticator guards the /api/v1 tree and ends sessions on logout.
type Authenticator interface {
	Middleware(next http.Handler) http.Handler
	Logout(w http.ResponseWriter, r *http.Request)
}

// RouterConfig holds the HTTP knobs taken from service configuration.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts the public health check and the authenticated /api/v1
// tree.
func NewRouter(h *HTTPHandler, authn Authenticator, store Pinger, cfg RouterConfig, log *logger.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("request_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Get("/me", h.Me)
		r.Post("/logout", authn.Logout)
		r.Get("/meta/workflow", h.WorkflowMeta)
		r.Get("/audit", h.AuditFeed)
		r.Post("/users/import", h.ImportUsers)

		r.Route("/cases", func(r chi.Router) {
			r.Get("/", h.ListCases)
			r.Post("/", h.CreateCase)
			r.Get("/stats", h.Statistics)

			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", h.GetCase)
				r.Get("/transitions", h.AllowedTransitions)
				r.Post("/transitions", h.TransitionCase)
				r.Get("/comments", h.ListComments)
				r.Post("/comments", h.AddComment)
				r.Get("/documents", h.ListDocuments)
				r.Post("/documents", h.RecordDocument)
				r.Get("/investigation", h.GetInvestigation)
				r.Put("/investigation", h.UpsertInvestigation)
				r.Get("/audit", h.CaseAudit)
			})
		})
	})

	return r
}
