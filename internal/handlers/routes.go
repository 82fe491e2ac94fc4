package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Auth          *auth.AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	Analytics     *AnalyticsHandler
	Admins        *AdminHandler
}

func cookieAuth(o *huma.Operation) {
	o.Security = []map[string][]string{{"cookieAuth": {}}}
}

func created(o *huma.Operation) {
	o.DefaultStatus = http.StatusCreated
}

func RegisterRoutes(r *chi.Mux, cfg *config.Config, h Handlers, gatherer prometheus.Gatherer) huma.API {
	r.Use(logging.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	// Attaches the admin session when the cookie is valid; operations that
	// need one check it themselves.
	r.Use(h.Auth.SessionMiddleware)

	// Initialize Huma API
	humaConfig := huma.DefaultConfig("Event Registration API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
	}
	api := humachi.New(r, humaConfig)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Public routes
	huma.Get(api, "/events", h.Events.HandleList)
	huma.Get(api, "/events/{id}", h.Events.HandleGet)
	huma.Post(api, "/events/{id}/registrations/preview", h.Registrations.HandlePreview)
	huma.Post(api, "/events/{id}/registrations", h.Registrations.HandleRegister, created)

	// Auth routes
	huma.Post(api, "/auth/login", h.Auth.HandleLogin)
	huma.Post(api, "/auth/logout", h.Auth.HandleLogout)
	huma.Get(api, "/me", h.Auth.HandleMe, cookieAuth)

	// Admin routes
	huma.Post(api, "/admin/events", h.Events.HandleCreate, cookieAuth, created)
	huma.Put(api, "/admin/events/{id}", h.Events.HandleUpdate, cookieAuth)
	huma.Delete(api, "/admin/events/{id}", h.Events.HandleDelete, cookieAuth)
	huma.Delete(api, "/admin/segments/{id}", h.Events.HandleDeleteSegment, cookieAuth)

	huma.Post(api, "/admin/events/{id}/fields", h.Events.HandleAddEventField, cookieAuth)
	huma.Patch(api, "/admin/events/{id}/fields/{index}", h.Events.HandleUpdateEventField, cookieAuth)
	huma.Delete(api, "/admin/events/{id}/fields/{index}", h.Events.HandleRemoveEventField, cookieAuth)
	huma.Post(api, "/admin/segments/{id}/fields", h.Events.HandleAddSegmentField, cookieAuth)
	huma.Patch(api, "/admin/segments/{id}/fields/{index}", h.Events.HandleUpdateSegmentField, cookieAuth)
	huma.Delete(api, "/admin/segments/{id}/fields/{index}", h.Events.HandleRemoveSegmentField, cookieAuth)

	huma.Get(api, "/admin/registrations", h.Registrations.HandleList, cookieAuth)
	huma.Get(api, "/admin/registrations/export", h.Registrations.HandleExport, cookieAuth)
	huma.Patch(api, "/admin/registrations/{id}", h.Registrations.HandleUpdate, cookieAuth)
	huma.Delete(api, "/admin/registrations/{id}", h.Registrations.HandleDelete, cookieAuth)

	huma.Get(api, "/admin/analytics", h.Analytics.HandleSummary, cookieAuth)
	huma.Get(api, "/admin/analytics/export", h.Analytics.HandleExport, cookieAuth)

	huma.Get(api, "/admin/users", h.Admins.HandleList, cookieAuth)
	huma.Post(api, "/admin/users", h.Admins.HandleCreate, cookieAuth, created)
	huma.Delete(api, "/admin/users/{id}", h.Admins.HandleDelete, cookieAuth)
	huma.Put(api, "/admin/users/{id}/password", h.Admins.HandleChangePassword, cookieAuth)

	return api
}
