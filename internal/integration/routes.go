package integration

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the consent callback publicly and the rest behind protect.
func Routes(h *Handler, protect func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/callback", h.Callback)

	r.Group(func(r chi.Router) {
		r.Use(protect)

		r.Get("/start", h.Start)
		r.Get("/status", h.Status)
	})

	return r
}
