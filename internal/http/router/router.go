package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/database"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/directory"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/handler"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/middleware"

	_ "github.com/OfficeDev/microsoft-teams-apps-sharenow/docs" // Import generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	directoryClient    *directory.Client
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	postHandler        *handler.PostHandler
	privatePostHandler *handler.PrivatePostHandler
	feedHandler        *handler.FeedHandler
	teamHandler        *handler.TeamHandler
	digestHandler      *handler.DigestHandler
	botHandler         *handler.BotHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	directoryClient *directory.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	postHandler *handler.PostHandler,
	privatePostHandler *handler.PrivatePostHandler,
	feedHandler *handler.FeedHandler,
	teamHandler *handler.TeamHandler,
	digestHandler *handler.DigestHandler,
	botHandler *handler.BotHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		directoryClient:    directoryClient,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		postHandler:        postHandler,
		privatePostHandler: privatePostHandler,
		feedHandler:        feedHandler,
		teamHandler:        teamHandler,
		digestHandler:      digestHandler,
		botHandler:         botHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		// Check the org directory when enabled; a down directory only
		// degrades feed enrichment, so it never flips overall readiness
		if rt.directoryClient != nil && rt.directoryClient.IsEnabled() {
			if err := rt.directoryClient.HealthCheck(r.Context()); err != nil {
				checks["directory"] = map[string]interface{}{
					"status": "unhealthy",
					"error":  err.Error(),
				}
			} else {
				checks["directory"] = map[string]interface{}{
					"status": "healthy",
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Bot Framework webhook; authenticated with connector tokens inside
	// the handler, never with the app's user auth
	r.Post("/api/messages", rt.botHandler.Messages)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Posts and votes
			r.Route("/posts", func(r chi.Router) {
				r.Post("/", rt.postHandler.Create)
				r.Get("/mine", rt.postHandler.ListMine)
				r.Get("/{id}", rt.postHandler.GetByID)
				r.Patch("/{id}", rt.postHandler.Update)
				r.Delete("/{id}", rt.postHandler.Delete)
				r.Post("/{id}/vote", rt.postHandler.Vote)
				r.Delete("/{id}/vote", rt.postHandler.Unvote)
			})

			// Private reading list
			r.Route("/privateposts", func(r chi.Router) {
				r.Get("/", rt.privatePostHandler.List)
				r.Post("/", rt.privatePostHandler.Save)
				r.Delete("/{id}", rt.privatePostHandler.Delete)
			})

			// Discover feed
			r.Route("/feed", func(r chi.Router) {
				r.Get("/", rt.feedHandler.Discover)
				r.Get("/filters", rt.feedHandler.Filters)
				r.Get("/team/{teamId}", rt.feedHandler.TeamFeed)
			})

			// Team configuration
			r.Route("/teams/{teamId}", func(r chi.Router) {
				r.Get("/tags", rt.teamHandler.GetTags)
				r.Put("/tags", rt.teamHandler.UpdateTags)
				r.Get("/preference", rt.teamHandler.GetPreference)
				r.Put("/preference", rt.teamHandler.UpdatePreference)
			})

			// Digest administration
			r.Route("/digests", func(r chi.Router) {
				r.Get("/logs", rt.digestHandler.ListLogs)
				r.Post("/run", rt.digestHandler.Trigger)
			})
		})
	})

	return r
}
