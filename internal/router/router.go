package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-disk-cleaner/internal/config"
	"go-disk-cleaner/internal/handler"
	"go-disk-cleaner/internal/middleware"
	"go-disk-cleaner/internal/websocket"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	planHandler *handler.PlanHandler,
	backupHandler *handler.BackupHandler,
	classifyHandler *handler.ClassifyHandler,
	auditHandler *handler.AuditHandler,
	hub *websocket.Hub,
	healthCheck func(w http.ResponseWriter, r *http.Request),
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", authHandler.Login)
			auth.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/register", authHandler.Register)
			auth.Post("/refresh", authHandler.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.With(authMiddleware.RequireAuth).Post("/scan", planHandler.Scan)

		api.With(authMiddleware.RequireAuth).Get("/plans", planHandler.List)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("operator", "admin")).Post("/plans", planHandler.Create)
		api.With(authMiddleware.RequireAuth).Get("/plans/{id}", planHandler.Get)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Delete("/plans/{id}", planHandler.Delete)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("operator", "admin")).Post("/plans/{id}/execute", planHandler.Execute)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("operator", "admin")).Post("/plans/{id}/cancel", planHandler.Cancel)
		api.With(authMiddleware.RequireAuth).Get("/plans/{id}/result", planHandler.Result)
		api.With(authMiddleware.RequireAuth).Get("/executions", planHandler.History)

		api.With(authMiddleware.RequireAuth).Get("/backups", backupHandler.List)
		api.With(authMiddleware.RequireAuth).Get("/backups/stats", backupHandler.Stats)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("operator", "admin")).Post("/backups/restore", backupHandler.Restore)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/backups/cleanup", backupHandler.CleanupExpired)

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("operator", "admin")).Post("/classify/feedback", classifyHandler.SubmitFeedback)
		api.With(authMiddleware.RequireAuth).Get("/classify/feedback", classifyHandler.ListFeedback)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Delete("/classify/feedback", classifyHandler.DeleteFeedback)
		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Post("/cache/invalidate", classifyHandler.InvalidateCache)

		api.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/audit", auditHandler.List)
	})

	return r
}
