// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/leaddesk/internal/cache"
	"github.com/olegiv/leaddesk/internal/config"
	"github.com/olegiv/leaddesk/internal/email"
	"github.com/olegiv/leaddesk/internal/geoip"
	"github.com/olegiv/leaddesk/internal/handler"
	"github.com/olegiv/leaddesk/internal/logging"
	"github.com/olegiv/leaddesk/internal/middleware"
	"github.com/olegiv/leaddesk/internal/payment"
	"github.com/olegiv/leaddesk/internal/scheduler"
	"github.com/olegiv/leaddesk/internal/service"
	"github.com/olegiv/leaddesk/internal/session"
	"github.com/olegiv/leaddesk/internal/store"
	"github.com/olegiv/leaddesk/internal/taskqueue"
	"github.com/olegiv/leaddesk/internal/version"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "leaddesk - training content and lead capture admin API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_SESSION_SECRET  Session signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_DB_PATH         SQLite database path (default: ./data/leaddesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_BASE_URL        Public origin for checkout return URLs\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_REDIS_URL       Redis URL for the settings cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LEADDESK_GEOIP_DB_PATH   GeoLite2 database for lead locations (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("leaddesk %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DoSeed {
		if err := store.Seed(ctx, db, store.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	cacheResult, err := cache.NewCacheWithInfo(ctx, cache.CacheConfig{
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       cfg.CacheTTLDuration(),
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheResult.Cache.Close() }()

	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("GeoIP disabled", "path", cfg.GeoIPDBPath, "error", err)
		} else {
			slog.Info("GeoIP lookups enabled", "path", cfg.GeoIPDBPath)
		}
	}
	defer func() { _ = geo.Close() }()

	queue := taskqueue.New(logger, taskqueue.Config{
		Workers:   cfg.EmailWorkers,
		QueueSize: cfg.EmailQueueSize,
		Timeout:   taskqueue.DefaultConfig().Timeout,
	})
	queue.Start(context.WithoutCancel(ctx))

	// Services
	queries := store.New(db)
	settings := service.NewSettingsService(db, cacheResult.Cache, cfg.CacheTTLDuration(), logger)
	mailer := email.NewMailer(settings, queries, logger)
	events := service.NewEventService(db)
	users := service.NewUserService(db)
	blogs := service.NewBlogService(db)
	whitepapers := service.NewWhitepaperService(db)
	trainings := service.NewTrainingService(db)
	speakers := service.NewSpeakerService(db)
	downloads := service.NewDownloadService(db, mailer, queue, geo, settings, logger)
	payments := service.NewPaymentService(db, settings, payment.NewGateway, logger)
	dashboard := service.NewDashboardService(db)

	sched := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		scheduler.PublishWhitepapersJob(cfg.PublishSchedule, whitepapers, logger),
		scheduler.RetryEmailsJob(cfg.RetrySchedule, downloads, logger),
		scheduler.PruneEventsJob(cfg.PruneSchedule, cfg.EventRetention(), events, logger),
	} {
		if err := sched.Register(job); err != nil {
			return fmt.Errorf("registering job %s: %w", job.Name, err)
		}
	}
	if cfg.GeoIPEnabled() {
		if err := sched.Register(scheduler.ReloadGeoIPJob(cfg.GeoIPReloadSchedule, geo)); err != nil {
			return fmt.Errorf("registering job %s: %w", scheduler.JobReloadGeoIP, err)
		}
	}
	sched.Start()

	sessions := session.NewManager(cfg.SessionSecret, !cfg.IsDevelopment())
	loginProtection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		MaxFailedAttempts: cfg.LoginMaxAttempts,
		LockoutDuration:   cfg.LoginLockout(),
		Logger:            logger,
	})
	defer loginProtection.Close()

	router := newRouter(routerConfig{
		Sessions:        sessions,
		Events:          events,
		LoginProtection: loginProtection,
		IsDev:           cfg.IsDevelopment(),
		PublicRateLimit: cfg.PublicRateLimit,
		RequestTimeout:  cfg.RequestTimeoutDuration(),
		RequestLogging:  true,
	}, handlers{
		Health:      handler.NewHealthHandler(db).WithCache(cacheResult.Cache, cacheResult.BackendType),
		Auth:        handler.NewAuthHandler(users, sessions, loginProtection, events, logger),
		Public:      handler.NewPublicHandler(downloads, trainings, payments, cfg.BaseURL, logger),
		Blogs:       handler.NewBlogHandler(blogs, logger),
		Whitepapers: handler.NewWhitepaperHandler(whitepapers, logger),
		Trainings:   handler.NewTrainingHandler(trainings, logger),
		Speakers:    handler.NewSpeakerHandler(speakers, logger),
		Downloads:   handler.NewDownloadHandler(downloads, logger),
		Payments:    handler.NewPaymentHandler(payments, logger),
		Settings:    handler.NewSettingsHandler(settings, mailer, events, logger),
		System:      handler.NewSystemHandler(dashboard, events, sched, logger),
		SEO:         handler.NewSEOHandler(blogs, trainings, whitepapers, cfg.BaseURL, cfg.IsProduction(), logger),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop(shutdownCtx)
	// Pending lead emails are delivered before the database closes.
	queue.Stop()

	slog.Info("server stopped")
	return nil
}
