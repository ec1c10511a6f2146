// Package main is the entry point for the Lesson Planner server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lesson-planner/backend/internal/api"
	"github.com/lesson-planner/backend/internal/calendar"
	"github.com/lesson-planner/backend/internal/config"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// PLANNER_VERSION or VERSION in the environment take precedence.
var version = "dev"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment
	addr := flag.String("addr", cfg.Addr, "HTTP server address")
	dataDir := flag.String("data", cfg.DataDir, "Data directory for SQLite database")
	staticDir := flag.String("static", cfg.StaticDir, "Directory for static frontend files")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg.Addr, cfg.DataDir, cfg.StaticDir = *addr, *dataDir, *staticDir
	if cfg.Version == "dev" {
		cfg.Version = version
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	log.Printf("Starting Lesson Planner (version: %s)...", cfg.Version)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	// Initialize database
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", cfg.DataDir, err)
	}
	db, err := storage.NewDB(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Run migrations
	applied, err := storage.RunMigrations(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Database migrations complete (%d applied)", applied)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	broadcaster := websocket.NewEventBroadcaster(hub)

	// Schedule index, rebuilt lazily and announced to clients
	svc := schedule.NewService(
		storage.NewSnapshotLoader(db),
		schedule.WithRebuildListener(func(idx *schedule.Index, skipped []int64) {
			broadcaster.BroadcastScheduleRebuilt(websocket.ScheduleRebuiltPayload{
				Lessons:        idx.Len(),
				SkippedClasses: skipped,
				BuiltAt:        idx.BuiltAt(),
			})
		}),
	)
	if _, err := svc.Rebuild(context.Background()); err != nil {
		log.Printf("Warning: initial schedule build failed: %v", err)
	}

	// Feed import and background jobs
	feedRepo := storage.NewFeedRepository(db)
	importService := calendar.NewImportService(feedRepo, storage.NewCalendarRepository(db), svc)
	scheduler := calendar.NewScheduler(
		importService,
		feedRepo,
		storage.NewRosterRepository(db),
		svc,
		hub,
		calendar.SchedulerConfig{
			DefaultIntervalMin: cfg.FeedDefaultIntervalMin,
			ReminderSpec:       cfg.ReminderSpec,
			RefreshSpec:        cfg.RefreshSpec,
			Location:           loc,
		},
	)
	if err := scheduler.Start(context.Background()); err != nil {
		log.Printf("Warning: Failed to start background scheduler: %v", err)
	}

	router := api.NewRouter(api.Services{
		DB:        db,
		Hub:       hub,
		Schedule:  svc,
		Importer:  importService,
		Scheduler: scheduler,
		StaticDir: cfg.StaticDir,
		Version:   cfg.Version,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hub.Stop()

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
