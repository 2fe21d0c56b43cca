package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/tag-search/internal/store"
	"github.com/kozaktomas/tag-search/internal/web/handlers"
)

func (s *Server) setupRoutes(st store.Store) {
	searchHandler := handlers.NewSearchHandler(st)
	imagesHandler := handlers.NewImagesHandler(st)
	dupesHandler := handlers.NewDupesHandler(st, &s.config.Search, s.jobManager)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Boolean query and similarity ranking
		r.Get("/search", searchHandler.Search)
		r.Post("/similar", searchHandler.Similar)

		// Tag metadata
		r.Get("/images/tags", imagesHandler.Tags)
		r.Post("/images", imagesHandler.Import)
		r.Delete("/images", imagesHandler.Remove)

		// Duplicate detection (long-running, polled via job ID)
		r.Post("/dupes", dupesHandler.Start)
		r.Get("/dupes/{jobId}", dupesHandler.Status)
		r.Delete("/dupes/{jobId}", dupesHandler.Cancel)
	})
}
