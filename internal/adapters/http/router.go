package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keygate-labs/keygate/internal/application"
)

// Handler is the HTTP adapter entrypoint for license use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service    *application.Service
	validate   *validator.Validate
	adminToken string
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, adminToken string) *Handler {
	return &Handler{
		service:    service,
		validate:   validator.New(),
		adminToken: adminToken,
	}
}

// NewRouter registers HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	if registry != nil {
		metrics := NewMetrics(registry)
		r.Use(metrics.middleware)
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	r.Get("/.well-known/jwks.json", handler.jwks)

	r.Get("/oauth/authorize", handler.oauthAuthorize)
	r.Post("/oauth/token", handler.oauthToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session/login", handler.sessionLogin)
		r.Post("/link/redeem", handler.linkRedeem)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/session/refresh", handler.sessionRefresh)
			r.Get("/session/resume", handler.sessionResume)
			r.Post("/session/logout", handler.sessionLogout)
			r.Get("/files/{file_id}", handler.downloadFile)
		})
	})

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(handler.adminMiddleware)
		r.Post("/licenses", handler.createLicenses)
		r.Get("/licenses/{license_id}", handler.getLicense)
		r.Post("/licenses/{license_id}/link-code", handler.mintLinkCode)
		r.Delete("/licenses/{license_id}/sessions", handler.revokeLicenseSessions)
		r.Post("/licenses/pause-all", handler.pauseAllLicenses)
		r.Post("/licenses/resume-all", handler.resumeAllLicenses)
		r.Get("/accounts/{external_id}/licenses", handler.listAccountLicenses)
		r.Post("/clients", handler.registerClient)
		r.Delete("/sessions/{session_id}", handler.adminRevokeSession)
	})

	return r
}
