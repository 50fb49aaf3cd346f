// Package router sets up all HTTP routes and middleware chains for the
// linkdeck server. It organizes routes into the editor API and the public
// profile pages with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"linkdeck/internal/handlers"
	"linkdeck/internal/middleware"
	"linkdeck/internal/models"
	"linkdeck/internal/session"
)

// Limits are the rate limiters guarding password checks.
type Limits struct {
	// Login throttles sign-in attempts per client IP.
	Login *middleware.RateLimiter
	// Unlock throttles password attempts per client IP and link.
	Unlock *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. secure is set when the public origin is
// HTTPS: cookies get the Secure flag and responses carry HSTS.
func New(sessionStore *session.Store, secure bool, limits Limits, api *handlers.API, auth *handlers.Auth, public *handlers.Public) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(secure))
	r.Use(middleware.LoadSession(sessionStore))

	// Health check, no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Editor API: JSON only, CSRF protected.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRF(secure))

		r.With(limits.Login.Middleware).Post("/login", auth.Login)
		r.Post("/logout", auth.Logout)
		r.Get("/session", auth.Session)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			// One collection per content kind. Reorder covers every kind
			// and sections; it lives under /links for existing clients.
			for _, kind := range models.Kinds {
				r.Route("/"+kind.Collection(), func(r chi.Router) {
					if kind == models.KindLink {
						r.Put("/reorder", api.Reorder)
					}
					r.Get("/", api.List(kind))
					r.Post("/", api.Create(kind))
					r.Put("/{id}", api.Update(kind))
					r.Patch("/{id}", api.Update(kind))
					r.Delete("/{id}", api.Delete(kind))
				})
			}

			r.Route("/sections", func(r chi.Router) {
				r.Get("/", api.ListSections)
				r.Post("/", api.CreateSection)
				r.Put("/{id}", api.UpdateSection)
				r.Patch("/{id}", api.UpdateSection)
				r.Delete("/{id}", api.DeleteSection)
				r.Post("/{id}/ungroup", api.Ungroup)
			})

			r.Get("/profile", api.GetProfile)
			r.Put("/profile", api.UpdateProfile)
			r.Put("/profile/customization", api.UpdateCustomization)

			r.Get("/preview/token", api.PreviewToken)
			r.Get("/preview/events", api.PreviewEvents)

			r.Get("/changes", api.Changes)
		})
	})

	// Public routes, served by the page engine.
	r.Get("/preview/{token}", public.Preview)
	r.Get("/preview/{token}/events", public.PreviewEvents)
	r.Get("/go/{id}", public.Go)
	r.With(limits.Unlock.By(middleware.ClientAndParam("id"))).Post("/go/{id}", public.Go)
	r.Get("/{username}", public.Profile)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
