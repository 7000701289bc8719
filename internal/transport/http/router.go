package http

import (
	"net/http"

	"github.com/capsule-api/internal/application/achievement"
	"github.com/capsule-api/internal/application/capsule"
	"github.com/capsule-api/internal/application/delivery"
	mediaapp "github.com/capsule-api/internal/application/media"
	"github.com/capsule-api/internal/application/notification"
	"github.com/capsule-api/internal/application/profile"
	"github.com/capsule-api/internal/application/session"
	"github.com/capsule-api/internal/application/user"
	"github.com/capsule-api/internal/config"
	"github.com/capsule-api/internal/domain"
	jwtinfra "github.com/capsule-api/internal/infrastructure/jwt"
	"github.com/capsule-api/internal/metrics"
	"github.com/capsule-api/internal/transport/http/handler"
	appmiddleware "github.com/capsule-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds the application services the router exposes.
type Deps struct {
	UserSvc         user.Service
	SessionSvc      session.Service
	CapsuleSvc      capsule.Service
	DeliverySvc     delivery.Service
	NotificationSvc notification.Service
	MediaSvc        mediaapp.Service
	ProfileSvc      profile.Service
	AchievementSvc  achievement.Service
	JWTProvider     *jwtinfra.Provider
	Metrics         *metrics.Metrics
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(deps.SessionSvc)
	userH := handler.NewUserHandler(deps.UserSvc)
	capsuleH := handler.NewCapsuleHandler(deps.CapsuleSvc, deps.DeliverySvc)
	notifH := handler.NewNotificationHandler(deps.NotificationSvc)
	mediaH := handler.NewMediaHandler(deps.MediaSvc)
	profileH := handler.NewProfileHandler(deps.ProfileSvc)
	achievementH := handler.NewAchievementHandler(deps.AchievementSvc)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Put("/users/password", userH.ChangePassword)

			r.Get("/profiles/{id}", profileH.Get)
			r.Put("/profiles/{id}", profileH.Update)

			r.Post("/capsules", capsuleH.Create)
			r.Get("/capsules", capsuleH.List)
			r.Get("/capsules/{id}", capsuleH.Get)
			r.Post("/capsules/{id}/media", mediaH.Upload)

			r.Get("/media/{id}", mediaH.Download)
			r.Get("/media/{id}/url", mediaH.PresignedURL)

			r.Get("/notifications", notifH.List)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)

			r.Get("/achievements", achievementH.List)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
				r.Post("/capsules/{id}/deliver", capsuleH.Deliver)
			})
		})
	})

	return r
}
