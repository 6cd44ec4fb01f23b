package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/badbayesian/puppy-ping/app/api"
	"github.com/badbayesian/puppy-ping/app/cfg"
	"github.com/badbayesian/puppy-ping/app/database"
	"github.com/badbayesian/puppy-ping/app/ingest"
	"github.com/badbayesian/puppy-ping/app/listing"
	"github.com/badbayesian/puppy-ping/app/notify"
	"github.com/badbayesian/puppy-ping/app/sources"
	"github.com/badbayesian/puppy-ping/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Puppy Ping server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema up to date", "version", version, "dirty", dirty)

	configCache := sources.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded source configurations", "count", configCache.GetConfigCount())

	linkRepo := database.NewLinkRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	subscriberRepo := database.NewSubscriberRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	registry := ingest.NewRegistry(httpClient, appCfg.UserAgent)
	reconciler := listing.NewReconciler(linkRepo)

	notifier := notify.NewNotifier(notificationRepo, subscriberRepo,
		buildMailer(appCfg), notify.ParseEmailList(appCfg.EmailsTo), appCfg.Renotify)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval_seconds", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, registry, reconciler, snapshotRepo, notifier,
		time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, linkRepo, snapshotRepo,
		notificationRepo, subscriberRepo, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Puppy Ping server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Puppy Ping server shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}

// buildMailer wires the SMTP transport. Without an SMTP host notifications
// are logged and dropped, which keeps local development out of real inboxes.
func buildMailer(appCfg *cfg.Cfg) notify.Mailer {
	if appCfg.SMTPHost == "" {
		slog.Warn("EMAIL_HOST not set, notifications disabled")
		return notify.NewLogMailer()
	}

	port, err := strconv.Atoi(appCfg.SMTPPort)
	if err != nil {
		slog.Warn("Invalid SMTP port, notifications disabled", "port", appCfg.SMTPPort)
		return notify.NewLogMailer()
	}

	return notify.NewSMTPMailer(appCfg.SMTPHost, port, appCfg.SMTPUser,
		appCfg.SMTPPassword, appCfg.EmailFrom)
}
