package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/schedulectx/internal/scheduleservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *scheduleservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/", h.GetSchedule)
		r.Put("/", h.UpdateSchedule)
		r.Get("/context", h.GetContext)
		r.Get("/revisions", h.ListRevisions)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
