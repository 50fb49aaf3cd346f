// Package main is the entry point for the linkdeck server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkdeck/internal/cache"
	"linkdeck/internal/config"
	"linkdeck/internal/database"
	"linkdeck/internal/engine"
	"linkdeck/internal/handlers"
	"linkdeck/internal/middleware"
	"linkdeck/internal/preview"
	"linkdeck/internal/router"
	"linkdeck/internal/session"
	"linkdeck/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text with debug output in development, JSON otherwise.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"public_url", cfg.PublicBaseURL,
	)

	// Dependencies may still be starting; give them a bounded window.
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Connect to PostgreSQL.
	db, err := database.Connect(startCtx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(startCtx, cache.ValkeyOptions{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
		Attempts: 5,
	})
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Cookies are Secure and HSTS is sent whenever the public origin is
	// served over HTTPS.
	secure := cfg.SecureCookies()
	sessionStore := session.NewStore(valkeyClient, secure)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	blockStore := store.NewBlockStore(db)
	sectionStore := store.NewSectionStore(db)
	changeLogStore := store.NewChangeLogStore(db)

	// Public page rendering with its L1 theme cache and the L2 page cache.
	eng := engine.New()
	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)

	// Live preview: signed frame tokens and the change event stream.
	events := preview.NewEventBus()
	signer := preview.NewSigner(cfg.PreviewSecret, cfg.PreviewTTL)

	limits := router.Limits{
		Login:  middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute),
		Unlock: middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute),
	}
	defer limits.Login.Stop()
	defer limits.Unlock.Stop()

	// Create handler groups with their dependencies.
	apiHandlers := handlers.NewAPI(sessionStore, blockStore, sectionStore, profileStore, pageCache, changeLogStore, events, signer, cfg.PublicBaseURL)
	authHandlers := handlers.NewAuth(sessionStore, userStore, profileStore)
	publicHandlers := handlers.NewPublic(eng, blockStore, sectionStore, profileStore, pageCache, changeLogStore, events, signer)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, secure, limits, apiHandlers, authHandlers, publicHandlers)

	// Request contexts derive from baseCtx so open event streams end when
	// shutdown begins. Streams clear their own write deadline.
	baseCtx, stopStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(stopStreams)

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
