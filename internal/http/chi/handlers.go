package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/go-live/internal/session"
	"github.com/marcelsud/go-live/trigger"
	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 30 * time.Second

// Options carries the optional pieces of the router
type Options struct {
	// Metrics serves GET /metrics when set
	Metrics http.Handler
	// RequestTimeout must stay above the dispatch timeout
	RequestTimeout time.Duration
}

// Handlers sets up the go-live API routes
func Handlers(ctx context.Context, service trigger.UseCase, sessions *session.Manager, logger zerolog.Logger, opts Options) *chi.Mux {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.OptionalAuth)
		r.Method(http.MethodPost, "/go-live/trigger", postTrigger(service, logger))
		r.With(session.RequireAuth).Method(http.MethodGet, "/go-live-triggers", getTriggers(service, logger))
	})

	return r
}
