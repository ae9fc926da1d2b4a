package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/docs"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/bot"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/cache"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/database"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/directory"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/handler"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/middleware"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/router"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/jobs"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/logger"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/storage"
)

// @title Share Now API
// @version 1.0
// @description Teams app backend for sharing, tagging and voting on content links, with periodic team digests
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	if basicCfg.App.Environment == "development" || basicCfg.App.Environment == "local" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize the digest archive sink
	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize the feed cache (optional; nil cache is a pass-through)
	feedCache, err := cache.NewFeedCache(&cfg.Cache, log)
	if err != nil {
		// The feed works without the cache, just slower
		log.Warn("Feed cache unavailable, continuing without it", zap.Error(err))
		feedCache = nil
	}

	// Initialize the org directory connection (optional, read-only)
	var directoryClient *directory.Client
	if cfg.Directory.Enabled {
		directoryClient, err = directory.NewClient(&cfg.Directory, log)
		if err != nil {
			// Directory only enriches the feed; the app runs without it
			log.Warn("Directory connection failed, continuing without it",
				zap.Error(err),
			)
		}
	} else {
		log.Info("Directory not configured, skipping")
	}

	// Initialize repositories
	postRepo := repository.NewPostRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	privatePostRepo := repository.NewPrivatePostRepository(db)
	teamTagRepo := repository.NewTeamTagRepository(db)
	teamPrefRepo := repository.NewTeamPreferenceRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	digestLogRepo := repository.NewDigestLogRepository(db)

	// Outbound Bot Framework connector
	connector := bot.NewConnector(&cfg.Bot, log)
	botAuthenticator := bot.NewAuthenticator(&cfg.Bot)

	// Initialize services
	postService := service.NewPostService(postRepo, voteRepo, feedCache, log)
	privatePostService := service.NewPrivatePostService(privatePostRepo, postRepo, voteRepo, log)
	feedService := service.NewFeedService(postRepo, voteRepo, teamTagRepo, feedCache, directoryClient, log)
	teamSettingService := service.NewTeamSettingService(teamTagRepo, teamPrefRepo, teamRepo, log)
	meService := service.NewMessagingExtensionService(postRepo, log)
	botService := service.NewBotService(teamRepo, teamTagRepo, teamPrefRepo, meService, connector, log)
	digestService := service.NewDigestService(postRepo, teamPrefRepo, digestLogRepo, connector, archive, &cfg.Digest, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	postHandler := handler.NewPostHandler(postService, log)
	privatePostHandler := handler.NewPrivatePostHandler(privatePostService, log)
	feedHandler := handler.NewFeedHandler(feedService, log)
	teamHandler := handler.NewTeamHandler(teamSettingService, log)
	digestHandler := handler.NewDigestHandler(digestService, log)
	botHandler := handler.NewBotHandler(botService, botAuthenticator, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		directoryClient,
		authMiddleware,
		rateLimiter,
		postHandler,
		privatePostHandler,
		feedHandler,
		teamHandler,
		digestHandler,
		botHandler,
	)

	// Initialize and start scheduler for the digest job
	var scheduler *jobs.Scheduler
	if cfg.Digest.Enabled {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterDigestJob(
			scheduler,
			digestService,
			log,
			cfg.Digest.Cron,
			cfg.Digest.TimeoutDuration(),
		); err != nil {
			log.Error("Failed to register digest job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with digest job",
				zap.String("cron_expr", cfg.Digest.Cron),
				zap.Duration("timeout", cfg.Digest.TimeoutDuration()),
			)
		}
	} else {
		log.Info("Digest job disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close optional connections
		if feedCache != nil {
			if err := feedCache.Close(); err != nil {
				log.Warn("Error closing feed cache", zap.Error(err))
			}
		}
		if directoryClient != nil {
			if err := directoryClient.Close(); err != nil {
				log.Warn("Error closing directory connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
