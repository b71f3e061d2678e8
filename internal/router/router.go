package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hivel/calendar-service/internal/auth"
	"github.com/hivel/calendar-service/internal/calendar"
	"github.com/hivel/calendar-service/internal/config"
	"github.com/hivel/calendar-service/internal/integration"
	"github.com/hivel/calendar-service/internal/middlewares"
)

const serviceName = "calendar-service"

type RouterConfig struct {
	IntegrationHandler *integration.Handler
	CalendarHandler    *calendar.Handler
	AuthMiddleware     func(http.Handler) http.Handler
	AllowedOrigin      string
}

func New(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.Cors(cfg.AllowedOrigin))

	r.Get("/health", Health)
	r.Post("/logout", auth.Logout)

	r.Mount("/auth", integration.Routes(cfg.IntegrationHandler, cfg.AuthMiddleware))

	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthMiddleware)

		r.Mount("/calendar", calendar.Routes(cfg.CalendarHandler))
	})

	return r
}

func Health(w http.ResponseWriter, r *http.Request) {
	config.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}
