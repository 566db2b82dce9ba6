package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Decisions
		r.Post("/decisions", h.RouteTask)
		r.Post("/decisions/preview", h.PreviewScore)
		r.Get("/decisions/{id}", h.GetDecision)
		r.Get("/tasks/{id}/decisions", h.ListTaskDecisions)

		// Agent state
		r.Get("/agents/paused", h.ListPausedAgents)
		r.Get("/agents/{id}/state", h.GetAgentState)
		r.Get("/agents/{id}/consultations", h.ListAgentConsultations)

		// Consultations
		r.Post("/consultations", h.RequestConsultation)
		r.Get("/consultations/pending", h.ListPendingConsultations)
		r.Get("/consultations/{id}", h.GetConsultation)
		r.Post("/consultations/{id}/messages", h.SendConsultationMessage)
		r.Get("/consultations/{id}/messages", h.ListConsultationMessages)
		r.Post("/consultations/{id}/resolve", h.ResolveConsultation)

		// Task forces
		r.Post("/task-forces", h.ConveneTaskForce)
		r.Get("/task-forces/{id}", h.GetTaskForce)
		r.Post("/task-forces/{id}/join", h.JoinTaskForce)
		r.Post("/task-forces/{id}/log", h.AppendTaskForceLog)
		r.Get("/task-forces/{id}/log", h.GetTaskForceLog)
		r.Post("/task-forces/{id}/resolve", h.ResolveTaskForce)
		r.Post("/task-forces/{id}/fail", h.FailTaskForce)
	})

	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}
}
