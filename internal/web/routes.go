package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/gaitid/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	runsHandler := handlers.NewRunsHandler(s.engine, s.jobManager, s.logger)
	identificationHandler := handlers.NewIdentificationHandler(s.engine.Resolver())
	signaturesHandler := handlers.NewSignaturesHandler(s.store, s.logger)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	// Legacy path used by older front ends.
	s.router.Get("/get_identification_results", identificationHandler.Get)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Identification runs (long-running)
		r.Post("/runs", runsHandler.Start)
		r.Get("/runs/{jobId}", runsHandler.Status)
		r.Delete("/runs/{jobId}", runsHandler.Delete)
		r.Get("/runs/{jobId}/events", runsHandler.Events)

		// Read-only identification
		r.Get("/identification", identificationHandler.Get)

		// Stored signatures
		r.Get("/signatures/latest", signaturesHandler.Latest)
		r.Get("/signatures/count", signaturesHandler.Count)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}` + "\n"))
	})
}
