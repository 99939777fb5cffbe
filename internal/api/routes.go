package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RegisterRoutes sets up all the API endpoints and middleware for the application.
func (s *Server) RegisterRoutes(r *chi.Mux) {
	// --- Global Middleware (Applied to ALL routes) ---
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer) // Recovers from panics and returns a 500 error

	// --- Static File Server ---
	// Uploaded media (testimonial photos, winning screenshots) is served
	// straight from the uploads directory.
	r.Handle("/public/uploads/*", http.StripPrefix("/public/uploads/", http.FileServer(http.Dir(s.config.UploadPath))))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000", s.config.FrontendURL},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300, // How long the browser can cache preflight results
		}))

		// --- Public routes ---
		// The write endpoints any visitor can hit are rate limited per IP;
		// the tracking client fires several events per pageview, so the
		// ceiling is generous.
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(120, time.Minute))

			r.Post("/track", s.handleTrackEvent)
			r.Post("/subscribe", s.handleSubscribe)
			r.Post("/signup", s.handleSignup)
			r.Post("/testimonials", s.handleSubmitTestimonial)
			r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
		})

		r.Get("/public/home", s.handlePublicHome)
		r.Get("/notifications/active", s.handleActiveNotifications)
		r.Get("/live", s.handleLiveSync)

		// Admin session bootstrap.
		r.Post("/admin/login", s.handleAdminLogin)
		if s.config.GoogleOauthEnabled() {
			r.Get("/admin/auth/google/login", s.handleGoogleLogin)
			r.Get("/admin/auth/google/callback", s.handleGoogleCallback)
		}

		// Gated by the shared revalidation secret, not by an admin session:
		// the caller may be a peer deployment, not a browser.
		r.Post("/admin/revalidate", s.handleRevalidate)

		// --- Authenticated admin routes ---
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)

			r.Get("/admin/me", s.handleAdminMe)
			r.Post("/admin/logout", s.handleAdminLogout)

			// Dashboard reads
			r.Get("/admin/stats", s.handleStats)
			r.Get("/admin/analytics", s.handleAnalytics)

			// Broadcast banner
			r.Post("/admin/broadcast", s.handleBroadcast)

			// Content CRUD
			r.Get("/admin/testimonials", s.handleListTestimonials)
			r.Post("/admin/testimonials", s.handleCreateTestimonial)
			r.Put("/admin/testimonials/{id}", s.handleUpdateTestimonial)
			r.Delete("/admin/testimonials/{id}", s.handleDeleteTestimonial)

			r.Get("/admin/screenshots", s.handleListScreenshots)
			r.Post("/admin/screenshots", s.handleCreateScreenshot)
			r.Put("/admin/screenshots/{id}", s.handleUpdateScreenshot)
			r.Delete("/admin/screenshots/{id}", s.handleDeleteScreenshot)

			r.Get("/admin/videos", s.handleListVideos)
			r.Post("/admin/videos", s.handleCreateVideo)
			r.Put("/admin/videos/{id}", s.handleUpdateVideo)
			r.Delete("/admin/videos/{id}", s.handleDeleteVideo)

			r.Get("/admin/users", s.handleListLeads)
			r.Post("/admin/users", s.handleCreateLead)
			r.Put("/admin/users/{id}", s.handleUpdateLead)
			r.Delete("/admin/users/{id}", s.handleDeleteLead)

			r.Get("/admin/promo-code", s.handleGetPromoCode)
			r.Put("/admin/promo-code", s.handleSetPromoCode)

			r.Get("/admin/settings", s.handleGetSettings)
			r.Put("/admin/settings", s.handleSetSettings)

			// Push broadcast
			r.Post("/admin/push/send", s.handlePushSend)

			// CSV exports
			r.Get("/admin/export/events", s.handleExportEvents)
			r.Get("/admin/export/users", s.handleExportLeads)
		})
	})
}
