package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workshopflow/internal/apperr"
	"workshopflow/internal/captcha"
	"workshopflow/internal/chat"
	"workshopflow/internal/config"
	"workshopflow/internal/membership"
	myMiddleware "workshopflow/internal/middleware"
	"workshopflow/internal/user"
)

type routerDeps struct {
	cfg          *config.Config
	registry     *prometheus.Registry
	captcha      *captcha.Handler
	users        *user.Handler
	auth         *myMiddleware.AuthMiddleware
	loginLimiter *myMiddleware.RateLimiter
	chat         *chat.Handler
	membership   *membership.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For, so it only runs behind a known proxy.
	// Otherwise the login limiter keys on the TCP peer.
	if d.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// Public Routes
		r.Post("/captcha", d.captcha.Open)
		r.Post("/captcha/{id}/refresh", d.captcha.Refresh)
		r.Post("/register", d.users.Register)
		r.With(d.loginLimiter.Handle).Post("/login", d.users.Login)
		r.Get("/membership/plans", d.membership.ListPlans)

		// Protected Routes (Require JWT)
		r.Group(func(r chi.Router) {
			r.Use(d.auth.Handle)
			r.With(d.chat.ForgetOnLogout).Post("/logout", d.users.Logout)
			r.Get("/me", d.users.Me)

			r.Get("/chat", d.chat.Get)
			r.Post("/chat/toggle", d.chat.Toggle)
			r.Post("/chat/close", d.chat.Close)
			r.Post("/chat/reload", d.chat.Reload)
			r.Post("/chat/messages", d.chat.SendMessage)

			r.Get("/membership", d.membership.Get)
			r.Post("/membership", d.membership.Purchase)
		})
	})

	return r
}

// healthCheck handles GET /health
func healthCheck(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "WorkshopFlow backend is running",
	})
}
