package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes() {
	s.router.Get("/info", s.handleInfo)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/definitions", func(r chi.Router) {
		r.Get("/", s.handleDefinitionList)
		r.Put("/", s.handleDefinitionPut)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleDefinitionGet)
			r.Head("/", s.handleDefinitionHead)
			r.Delete("/", s.handleDefinitionDelete)
		})
	})

	s.router.Route("/images", func(r chi.Router) {
		r.Get("/", s.handleImageList)
		r.Put("/", s.handleImagePut)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleImageGet)
			r.Head("/", s.handleImageHead)
			r.Delete("/", s.handleImageDelete)
			r.Post("/run", s.handleImageRun)
		})
	})

	s.router.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleSessionList)
		r.Put("/", s.handleSessionPut)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionGet)
			r.Head("/", s.handleSessionHead)
			r.Delete("/", s.handleSessionDelete)
			r.Post("/resume", s.handleSessionResume)
			r.Get("/messages", s.handleSessionMessages)
		})
	})

	s.router.Route("/agents", func(r chi.Router) {
		r.Get("/", s.handleAgentList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleAgentGet)
			r.Delete("/", s.handleAgentDelete)
			r.Post("/messages", s.handleAgentMessages)
			r.Post("/interrupt", s.handleAgentInterrupt)
		})
	})

	s.router.Route("/containers", func(r chi.Router) {
		r.Get("/", s.handleContainerList)
		r.Post("/", s.handleContainerCreate)
		r.Put("/", s.handleContainerPut)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleContainerGet)
			r.Head("/", s.handleContainerHead)
			r.Delete("/", s.handleContainerDelete)
		})
	})

	s.router.Get("/events", s.handleEventChannel)
}

func pathParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
