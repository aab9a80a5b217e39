// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/agentdesk/internal/api"
	"github.com/olegiv/agentdesk/internal/auth"
	"github.com/olegiv/agentdesk/internal/config"
	"github.com/olegiv/agentdesk/internal/dashboard"
	"github.com/olegiv/agentdesk/internal/handler"
	"github.com/olegiv/agentdesk/internal/logging"
	"github.com/olegiv/agentdesk/internal/middleware"
	"github.com/olegiv/agentdesk/internal/quota"
	"github.com/olegiv/agentdesk/internal/render"
	"github.com/olegiv/agentdesk/internal/scheduler"
	"github.com/olegiv/agentdesk/internal/session"
	"github.com/olegiv/agentdesk/internal/store"
	"github.com/olegiv/agentdesk/internal/version"
	"github.com/olegiv/agentdesk/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "agentdesk - insurance agent dashboard\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_API_BASE_URL      Backend origin (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_SESSION_SECRET    CSRF key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_SESSION_LIFETIME  Agent session lifetime (default: 1h)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_SESSION_BACKEND   Session storage: file|sqlite|redis (default: file)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_REDIS_URL         Redis URL for the redis session backend\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_DATA_DIR          Local state directory (default: ./data)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  AGENTDESK_MAX_HERO_SECTIONS, AGENTDESK_MAX_BLOG_POSTS, AGENTDESK_MAX_TESTIMONIALS\n")
		_, _ = fmt.Fprintf(os.Stderr, "                              Creation limits (default: 10, 0 = unbounded)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("agentdesk %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	version.Set(version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	})

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DatabasePath())
	db, err := store.NewDB(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// WARN and ERROR records also go to the event log table.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, closeStorage, err := openSessionStorage(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStorage()

	sessions := session.NewStore(storage, session.Options{
		Lifetime:       cfg.SessionLifetime,
		RenewOnRestore: cfg.SessionRenewOnRestore,
		Logger:         logger,
	})
	defer sessions.Close()

	client, err := api.New(api.Config{BaseURL: cfg.APIBaseURL, Logger: logger})
	if err != nil {
		return fmt.Errorf("creating API client: %w", err)
	}
	slog.Info("backend configured", "base_url", client.BaseURL())

	controller := dashboard.New(client, quota.New(cfg.QuotaLimits()), logger)
	sessions.Subscribe(controller.OnSessionEvent)

	// A session persisted by an earlier run resumes the dashboard.
	state := sessions.Restore(ctx)
	slog.Info("session restored", "state", state.String(), "backend", cfg.SessionBackend)

	sessionManager := session.NewManager(db, cfg.IsDevelopment())

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		Currency:       cfg.Currency,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	// Background jobs
	prober := scheduler.NewProber(client, scheduler.DefaultProbeTimeout, logger)
	pruner := scheduler.NewEventPruner(store.New(db), cfg.EventRetention, logger)
	sched := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		prober.Job(cfg.ProbeSchedule),
		pruner.Job("@daily"),
	} {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("registering job %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.LoginProtectionConfig{Logger: logger})
	go loginProtection.Run(ctx)

	authHandler := handler.NewAuthHandler(client, sessions, renderer, sessionManager, loginProtection, logger)
	dashboardHandler := handler.NewDashboardHandler(controller, renderer, logger)
	healthHandler := handler.NewHealthHandler(db, prober, sessions)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestPath)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	// Health check stays outside sessions and CSRF
	r.Get(handler.RouteHealth, healthHandler.Health)

	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.ServerAddr(), cfg.IsDevelopment()))
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(csrfMiddleware)
		r.Use(middleware.NoStore)

		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Post(handler.RouteLogout, authHandler.Logout)

		r.Route(handler.RouteDashboard, func(r chi.Router) {
			r.Use(middleware.RequireSession(auth.NewGate(sessions)))
			dashboardHandler.Routes(r)
		})
	})

	r.Get(handler.RouteRoot, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, handler.RouteDashboard, http.StatusSeeOther)
	})
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, handler.RouteDashboard, http.StatusSeeOther)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Short())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openSessionStorage selects the agent session backend. The returned close
// function is always safe to call.
func openSessionStorage(ctx context.Context, cfg *config.Config, db *sql.DB) (session.Storage, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendSQLite:
		return session.NewSQLiteStorage(db), func() {}, nil
	case config.SessionBackendRedis:
		rs, err := session.NewRedisStorage(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return rs, func() {
			if err := rs.Close(); err != nil {
				slog.Error("error closing redis connection", "error", err)
			}
		}, nil
	default:
		fileStorage, err := session.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session file: %w", err)
		}
		slog.Info("session file", "path", fileStorage.Path())
		return fileStorage, func() {}, nil
	}
}
