package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/usched/usched-api/api"
	"github.com/usched/usched-api/config"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/router"
	"github.com/usched/usched-api/services"
	"github.com/usched/usched-api/services/cron"
	"github.com/usched/usched-api/services/curriculum"
	"github.com/usched/usched-api/services/identity"
	"github.com/usched/usched-api/services/storage"
	"github.com/usched/usched-api/utils"
	"github.com/usched/usched-api/utils/auth"
	"github.com/usched/usched-api/utils/cache"
	"github.com/usched/usched-api/utils/middleware"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 15 * time.Second

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := utils.NewLogger(utils.LogOptions{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		JSON:       cfg.Log.JSON,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// Initialize GORM database connection
	store, err := database.StartGORM(cfg)
	if err != nil {
		slog.Error("check whether PostgreSQL is running and the DB_* settings are correct")
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		return fmt.Errorf("initialize database tables: %w", err)
	}

	db := store.DB()
	if err := database.NewSeeder(db).SeedAll(cfg.Bootstrap); err != nil {
		return err
	}

	// Redis is optional; without it login lockouts are off
	var bruteForce *middleware.BruteForceProtection
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("failed to connect to Redis, brute force protection disabled", "error", err)
		} else {
			defer redisCache.Close()
			bruteForce = middleware.NewBruteForceProtection(redisCache)
		}
	} else {
		slog.Info("REDIS_URL not set, brute force protection disabled")
	}

	archive, err := storage.New(cfg.Spaces, cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("set up upload archive: %w", err)
	}

	emailService := services.NewEmailService(cfg.SMTP, cfg.AppURL)
	if !emailService.IsConfigured() {
		slog.Warn("SMTP credentials not set, outgoing mail will fail")
	}

	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Expiry: auth.SessionTTL,
		Issuer: cfg.JWT.Issuer,
	})
	if err != nil {
		return err
	}

	identityService := identity.NewService(db, emailService)
	curriculumService := curriculum.NewService(db, archive)

	// Initialize Cron Manager (only if enabled)
	var cronManager *cron.CronManager
	if cfg.CronEnabled {
		cronManager = cron.NewCronManager(db, archive)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			slog.Warn("failed to start cron jobs", "error", err)
			cronManager = nil
		}
	}
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", cfg.Port))
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.Limit.Requests,
		RateLimitWindow:   cfg.Limit.Window,
	})

	router.SetupRoutes(app, router.Deps{
		DB:         db,
		Store:      store,
		JWT:        jwtManager,
		BruteForce: bruteForce,
		Identity:   identityService,
		Curriculum: curriculumService,
		Mailer:     emailService,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Deferred calls then stop cron, close Redis and the database, in that order.
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
