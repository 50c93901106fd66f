// Package rest wires the resolved services into an HTTP surface. It is part
// of the composition root's territory: it consumes the resolved service set,
// it never participates in resolution itself.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"composekit/internal/interfaces/http/rest/handlers"
	"composekit/internal/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router.
type Router struct {
	logger      *zap.Logger
	metrics     *prometheus.Registry
	userHandler *handlers.UserHandler
}

// NewRouter creates a new router instance. metrics may be nil, in which case
// no /metrics endpoint is mounted.
func NewRouter(
	logger *zap.Logger,
	metrics *prometheus.Registry,
	userHandler *handlers.UserHandler,
) *Router {
	return &Router{
		logger:      logger,
		metrics:     metrics,
		userHandler: userHandler,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// Health check
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.metrics, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", rt.userHandler.Create)
			r.Get("/", rt.userHandler.List)
			r.Get("/{userID}", rt.userHandler.Get)
			r.Delete("/{userID}", rt.userHandler.Delete)
		})
	})

	return router
}
