package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/config"
	"github.com/8Gelos8/tournament-manager-online/internal/db"
	"github.com/8Gelos8/tournament-manager-online/internal/live"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	"github.com/8Gelos8/tournament-manager-online/internal/schedule"
	"github.com/8Gelos8/tournament-manager-online/internal/service"
	"github.com/8Gelos8/tournament-manager-online/internal/storage"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Info("configuration loaded", "port", cfg.ServerPort, "database", cfg.DatabasePath)

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB, cfg.MigrationsURL); err != nil {
		return err
	}

	middleware.InitAuth(cfg)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			return err
		}
		logger.Info("Cloudflare R2 uploader initialized", "bucket", cfg.R2.BucketName)
	} else {
		logger.Warn("R2 is not configured, club logo uploads are disabled")
	}

	hub := live.NewHub(cfg.CORSAllowedOrigins)

	tournamentStore := store.NewTournamentStore(database)
	categoryStore := store.NewCategoryStore(database)
	userStore := store.NewUserStore(database)
	locks := service.NewCategoryLocks()

	bronze := cfg.BronzeMatch
	app := &application{
		sessions:    sessionManager,
		userStore:   userStore,
		categoryIDs: categoryStore,
		tournaments: service.NewTournamentService(database, tournamentStore, categoryStore, locks, hub),
		categories: service.NewCategoryService(database, tournamentStore, categoryStore, locks, hub, service.BuildRequest{
			Seeding:     bracket.SeedingStandard,
			BronzeMatch: &bronze,
		}),
		matches:  service.NewMatchService(database, tournamentStore, categoryStore, locks, hub),
		users:    service.NewUserService(database, userStore, tournamentStore),
		hub:      hub,
		uploader: uploader,
		fights: schedule.FightSettings{
			DefaultDuration: cfg.FightDefaultDuration,
			RestPeriod:      cfg.FightRestPeriod,
		},
		defaultTatamis: cfg.DefaultTatamiCount,
		providers:      enabledProviders(cfg),
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(app, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			return server.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func enabledProviders(cfg *config.Config) []string {
	var providers []string
	if cfg.Discord.Enabled() {
		providers = append(providers, "discord")
	}
	if cfg.Google.Enabled() {
		providers = append(providers, "google")
	}
	return providers
}
