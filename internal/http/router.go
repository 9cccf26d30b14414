package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cashlens-dev/cashlens/internal/http/ingest"
	"github.com/cashlens-dev/cashlens/internal/http/jobs"
)

func New(
	ingestV1 *ingest.Handler,
	jobsV1 *jobs.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/ingest", ingestV1.Routes)
		r.Route("/jobs", jobsV1.Routes)
	})

	return router
}
