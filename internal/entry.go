// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/schedulectx/internal/api"
	"github.com/starford/schedulectx/internal/history"
	"github.com/starford/schedulectx/internal/mcpserver"
	"github.com/starford/schedulectx/internal/models"
	"github.com/starford/schedulectx/internal/schedule"
	"github.com/starford/schedulectx/internal/scheduleservice"
	"github.com/starford/schedulectx/internal/sse"
	"github.com/starford/schedulectx/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version:   "dev",
		logOutput: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.scheduleDir == "" {
		dir, err := schedule.InstallDir()
		if err != nil {
			return nil, err
		}
		app.scheduleDir = dir
	}
	return app, nil
}

// Run starts the HTTP API, the schedule watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("schedule_dir", app.scheduleDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(app.scheduleDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := openHistory(cfg, store, logger)
	if err != nil {
		return err
	}
	var hist history.Log
	if db != nil {
		defer db.Close()
		hist = db
	}

	broker := sse.NewBroker(cfg.Events.KeepAlive)
	defer broker.Close()

	svc := scheduleservice.NewService(store, hist,
		scheduleservice.WithRevisionCallback(broker.PublishRevision))
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, _, err := schedule.NewProvider(store).Load(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"schedule unreadable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if db != nil {
		g.Go(func() error {
			return history.Watch(gCtx, db, store, app.scheduleDir, logger, func(rev models.Revision) {
				broker.PublishRevision(rev)
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open event streams never finish on their own; end them first so
		// Shutdown does not wait out its timeout.
		logger.Info("closing event streams", slog.Int("clients", broker.ClientCount()))
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// openHistory opens the revision database and records the current schedule
// state. It returns nil when history is disabled.
func openHistory(cfg *Config, store storage.Provider, logger *slog.Logger) (*history.DB, error) {
	if !cfg.SQLite.Enabled() {
		logger.Info("revision history disabled")
		return nil, nil
	}
	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}
	if err := history.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return db, nil
}

// errShutdown cancels the group context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.logOutput == os.Stdout {
		app.logOutput = os.Stderr
	}
	cfg := app.config
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	store, err := storage.NewFS(app.scheduleDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := openHistory(cfg, store, logger)
	if err != nil {
		return err
	}
	var hist history.Log
	if db != nil {
		defer db.Close()
		hist = db
	}

	logger.Info("MCP server starting", slog.String("schedule_dir", app.scheduleDir))
	svc := scheduleservice.NewService(store, hist)
	return mcpserver.New(svc, app.version).ServeStdio()
}

// WriteContext prints the schedule context block to w. It needs no database.
func WriteContext(_ context.Context, w io.Writer, ctxOpts []schedule.ContextOption, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	store, err := storage.NewFS(app.scheduleDir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	text, err := schedule.NewProvider(store).Context(ctxOpts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}
