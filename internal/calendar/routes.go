package calendar

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/sync", h.Sync)
	r.Get("/users", h.ListCalendars)
	r.Get("/status", h.Status)
	r.Get("/events", h.StoredEvents)

	return r
}
