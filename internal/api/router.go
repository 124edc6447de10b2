// Package api serves playlist sessions over HTTP.
//
// Routes:
//
//	POST   /sessions                 create a session from {"slots": {...}, "loop": bool}
//	GET    /sessions/{id}            current song and window state
//	POST   /sessions/{id}/next       move to the next song
//	POST   /sessions/{id}/previous   move to the previous song
//	PUT    /sessions/{id}/loop       switch loop mode with {"loop": bool}
//	DELETE /sessions/{id}            drop the session
//	GET    /health                   liveness
//	GET    /metrics                  Prometheus metrics
package api

import (
	"context"
	"net/http"

	"github.com/Sternrassler/catalog-feeder/pkg/feeder"
	"github.com/Sternrassler/catalog-feeder/pkg/logging"
	"github.com/Sternrassler/catalog-feeder/pkg/metrics"
	"github.com/Sternrassler/catalog-feeder/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Sessions is the session lifecycle served by the router.
type Sessions interface {
	Create(ctx context.Context, slots map[string]string, loop bool) (string, feeder.Result, error)
	Get(ctx context.Context, id string) (*session.State, error)
	Next(ctx context.Context, id string) (*session.State, error)
	Previous(ctx context.Context, id string) (*session.State, error)
	SetLoop(ctx context.Context, id string, loop bool) (*session.State, error)
	Delete(ctx context.Context, id string) error
}

// NewRouter returns the HTTP handler serving sessions.
func NewRouter(sessions Sessions) http.Handler {
	logger := logging.NewLogger(logging.ComponentAPI)
	h := &handler{sessions: sessions, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Delete("/", h.delete)
			r.Post("/next", h.next)
			r.Post("/previous", h.previous)
			r.Put("/loop", h.setLoop)
		})
	})

	return r
}
