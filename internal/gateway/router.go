// Package gateway serves the public content API and the admin proxy from
// the shared cache.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/ansuz/internal/session"
)

// NewRouter creates a chi router with all gateway routes mounted.
// eventsHandler, if non-nil, is mounted at GET /api/events.
func NewRouter(svc *Service, sess *session.Manager, eventsHandler http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(svc, sess, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)

	// Public reads, all cache-backed.
	r.Route("/api", func(r chi.Router) {
		r.Get("/hero-slides", h.HeroSlides)
		r.Get("/about-content", h.About)
		r.Get("/impact-stats", h.ImpactStats)
		r.Get("/footer", h.Footer)
		r.Get("/team", h.Team)
		r.Get("/team/{slug}", h.TeamMember)
		r.Get("/content/projects", h.Projects)
		r.Get("/content/services", h.Services)
		r.Get("/content/clients", h.Clients)
		r.Get("/articles", h.Articles)
		r.Get("/locations", h.Locations)

		r.Post("/contact", h.SubmitContact)

		if eventsHandler != nil {
			r.Get("/events", eventsHandler.ServeHTTP)
		}
	})

	// Admin surface: auth endpoints plus cache-invalidating writes.
	r.Route("/admin/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)

		r.Get("/contact", h.ContactSubmissions)
		r.Post("/team", h.CreateTeamMember)
		r.Put("/team/{id}", h.UpdateTeamMember)
		r.Delete("/team/{id}", h.DeleteTeamMember)
		r.Post("/team/{id}/photo", h.UploadTeamPhoto)
		r.Put("/about-content", h.UpdateAbout)
		r.Post("/articles", h.CreateArticle)
		r.Put("/articles/{id}", h.UpdateArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)
		r.Post("/locations", h.CreateLocation)
		r.Put("/locations/{id}", h.UpdateLocation)
		r.Delete("/locations/{id}", h.DeleteLocation)
		r.Post("/clients", h.CreateClient)
		r.Put("/clients/{id}", h.UpdateClient)
		r.Delete("/clients/{id}", h.DeleteClient)
		r.Put("/hero-slides", h.ReplaceHeroSlides)
		r.Put("/impact-stats", h.ReplaceImpactStats)
		r.Put("/footer", h.UpdateFooter)
	})

	return r
}
