// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/leaddesk/internal/handler"
	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/session"
)

// handlers groups everything the router mounts.
type handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Public      *handler.PublicHandler
	Blogs       *handler.BlogHandler
	Whitepapers *handler.WhitepaperHandler
	Trainings   *handler.TrainingHandler
	Speakers    *handler.SpeakerHandler
	Downloads   *handler.DownloadHandler
	Payments    *handler.PaymentHandler
	Settings    *handler.SettingsHandler
	System      *handler.SystemHandler
	SEO         *handler.SEOHandler
}

// routerConfig holds the router's middleware dependencies.
type routerConfig struct {
	Sessions        *session.Manager
	Events          middleware.EventLogger
	LoginProtection *middleware.LoginProtection
	IsDev           bool
	PublicRateLimit int
	RequestTimeout  time.Duration
	RequestLogging  bool
}

// crudHandlers defines the standard JSON CRUD handler methods.
type crudHandlers struct {
	List   http.HandlerFunc
	Create http.HandlerFunc
	Get    http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

// registerCRUD registers standard CRUD routes inside a resource route.
// Routes: GET /, POST /, GET /{id}, PUT /{id}, DELETE /{id}. A nil Update
// leaves PUT /{id} unregistered.
func registerCRUD(r chi.Router, h crudHandlers) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get(handler.RouteParamID, h.Get)
	if h.Update != nil {
		r.Put(handler.RouteParamID, h.Update)
	}
	r.Delete(handler.RouteParamID, h.Delete)
}

// registerSettingsRoutes registers a settings document with Get and Put.
func registerSettingsRoutes(r chi.Router, route string, get, update http.HandlerFunc) {
	r.Get(route, get)
	r.Put(route, update)
}

func newRouter(cfg routerConfig, h handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.RequestLogging {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout, "/run"))
	}
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDev)))
	r.Use(middleware.RequestPath)

	r.Get(handler.RouteHealth, h.Health.Health)
	r.Get(handler.RouteLogin, h.Auth.LoginHint)
	r.Get(handler.RouteSitemap, h.SEO.Sitemap)
	r.Get(handler.RouteRobots, h.SEO.Robots)

	publicLimit := middleware.PublicRateLimit(cfg.PublicRateLimit, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			login := r.With(publicLimit)
			if cfg.LoginProtection != nil {
				login = login.With(cfg.LoginProtection.Middleware())
			}
			login.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/session", h.Auth.Session)
		})
		r.With(publicLimit).Post("/setup", h.Auth.Setup)

		r.With(publicLimit).Post(handler.RouteWhitepapers+"/{id}/download", h.Public.TrackDownload)
		r.Get(handler.RouteTrainings+handler.RouteParamID, h.Public.Training)
		r.With(publicLimit).Post(handler.RouteTrainings+"/{id}/checkout", h.Public.Checkout)
	})
	r.Get(handler.RoutePaymentSuccess, h.Public.PaymentSuccess)

	r.Route(handler.RouteAdminAPI, func(r chi.Router) {
		r.Use(middleware.Guard(cfg.Sessions))

		r.Get("/dashboard", h.System.Dashboard)
		r.Get("/events", h.System.Events)

		r.Route(handler.RouteBlogs, func(r chi.Router) {
			r.Get("/published", h.Blogs.Published)
			r.Post(handler.RouteSuffixFeatured, h.Blogs.ToggleFeatured)
			registerCRUD(r, crudHandlers{
				List: h.Blogs.List, Create: h.Blogs.Create, Get: h.Blogs.Get,
				Update: h.Blogs.Update, Delete: h.Blogs.Delete,
			})
		})

		r.Route(handler.RouteWhitepapers, func(r chi.Router) {
			r.Post(handler.RouteSuffixFeatured, h.Whitepapers.ToggleFeatured)
			registerCRUD(r, crudHandlers{
				List: h.Whitepapers.List, Create: h.Whitepapers.Create, Get: h.Whitepapers.Get,
				Update: h.Whitepapers.Update, Delete: h.Whitepapers.Delete,
			})
		})

		r.Route(handler.RouteTrainings, func(r chi.Router) {
			r.Post(handler.RouteSuffixFeatured, h.Trainings.ToggleFeatured)
			registerCRUD(r, crudHandlers{
				List: h.Trainings.List, Create: h.Trainings.Create, Get: h.Trainings.Get,
				Update: h.Trainings.Update, Delete: h.Trainings.Delete,
			})
		})

		r.Route(handler.RouteSpeakers, func(r chi.Router) {
			registerCRUD(r, crudHandlers{
				List: h.Speakers.List, Create: h.Speakers.Create, Get: h.Speakers.Get,
				Update: h.Speakers.Update, Delete: h.Speakers.Delete,
			})
		})

		r.Route(handler.RouteDownloads, func(r chi.Router) {
			r.Get("/stats", h.Downloads.Stats)
			r.Get("/export", h.Downloads.Export)
			r.Put("/{id}/follow-up", h.Downloads.UpdateFollowUp)
			r.Post("/{id}/retry-email", h.Downloads.RetryEmail)
			registerCRUD(r, crudHandlers{
				List: h.Downloads.List, Create: h.Downloads.Create, Get: h.Downloads.Get,
				Delete: h.Downloads.Delete,
			})
		})
		r.Get("/email-logs", h.Downloads.EmailLogs)

		r.Route(handler.RoutePayments, func(r chi.Router) {
			r.Get("/", h.Payments.List)
			r.Get("/stats", h.Payments.Stats)
			r.Get(handler.RouteParamID, h.Payments.Get)
			r.With(middleware.RequireAdmin(cfg.Events)).Post("/{id}/refund", h.Payments.Refund)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.Events))

			registerSettingsRoutes(r, handler.RouteSettings+"/email", h.Settings.GetEmail, h.Settings.PutEmail)
			r.Post(handler.RouteSettings+"/email/test", h.Settings.TestEmail)
			registerSettingsRoutes(r, handler.RouteSettings+"/payments", h.Settings.GetPayments, h.Settings.PutPayments)

			r.Get(handler.RouteJobs, h.System.Jobs)
			r.Post(handler.RouteJobs+"/{name}/run", h.System.RunJob)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Not found","code":"not_found"}`))
	})

	return r
}
