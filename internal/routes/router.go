package routes

import (
	"net/http"

	"meetings/boardroom/internal/api"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
	"meetings/boardroom/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Options carries what the router needs beyond the handler dependencies.
type Options struct {
	Resolver       middleware.PrincipalResolver
	Metrics        *metrics.MetricsRegistry
	LoginLimiter   *middleware.RateLimiter
	AllowedOrigins []string
}

func RegisterRoutes(deps *api.Dependencies, opts Options) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.Logging)
	r.Use(middleware.MetricsMiddleware(opts.Metrics))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(deps.Health, deps.UpSince))

	handlers := api.NewHandlers(deps)
	RegisterAPIRoutes(r, handlers, opts)

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}
