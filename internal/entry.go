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

	"github.com/marph91/jimmy/internal/api"
	"github.com/marph91/jimmy/internal/apperr"
	"github.com/marph91/jimmy/internal/converter"
	"github.com/marph91/jimmy/internal/manifest"
	"github.com/marph91/jimmy/internal/mcpserver"
	"github.com/marph91/jimmy/internal/noteservice"
	"github.com/marph91/jimmy/internal/storage"
)

// NewLogger builds the logger described by cfg, writing to w.
func NewLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Formats lists every format the converter registry knows.
func Formats() []string {
	return converter.NewRegistry(nil).Formats()
}

func newApplication(opts ...Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, err
	}

	if app.logger == nil {
		// Logs go to stderr, stdout is reserved for the tree and for MCP.
		app.logger = NewLogger(app.config.App, os.Stderr)
		slog.SetDefault(app.logger)
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.now == nil {
		app.now = time.Now
	}
	if app.version == "" {
		app.version = "dev"
	}
	return app, nil
}

// openImport opens the output folder and manifest of a finished import.
func (a *application) openImport() (*noteservice.Service, func(), error) {
	if a.outputFolder == "" {
		return nil, nil, fmt.Errorf("%w: output folder is required", apperr.ErrInvalidConfig)
	}
	if info, err := os.Stat(a.outputFolder); err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("output folder %s: %w", a.outputFolder, apperr.ErrNotFound)
	}
	path := a.manifestPath
	if path == "" {
		path = a.config.Manifest.Resolve(a.outputFolder)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("manifest %s: %w", path, apperr.ErrNotFound)
	}

	store, err := storage.NewFS(a.outputFolder)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := manifest.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("init manifest: %w", err)
	}

	a.logger.Info("Import opened",
		slog.String("output_folder", a.outputFolder),
		slog.String("manifest", path))
	return noteservice.NewService(store, db), func() { db.Close() }, nil
}

// Serve starts the read-only HTTP report server for a finished import.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	svc, closeDB, err := app.openImport()
	if err != nil {
		return err
	}
	defer closeDB()

	apiRouter := api.NewRouter(svc, cfg.Serve.Auth.AuthEnabled(), cfg.Serve.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoint (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.Serve.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Serve.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP exposes a finished import as MCP tools on stdin/stdout.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts...)
	if err != nil {
		return err
	}
	svc, closeDB, err := app.openImport()
	if err != nil {
		return err
	}
	defer closeDB()

	app.logger.Info("Starting MCP server on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}
