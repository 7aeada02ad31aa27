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

	"github.com/starford/vaultview/internal/api"
	"github.com/starford/vaultview/internal/mcpserver"
	"github.com/starford/vaultview/internal/render"
	"github.com/starford/vaultview/internal/storage"
	"github.com/starford/vaultview/internal/treeprint"
	"github.com/starford/vaultview/internal/vault"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app.stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Int("max_depth", cfg.Vault.MaxDepth),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, renderer, err := app.services(logger)
	if err != nil {
		return err
	}

	// A missing vault is not fatal; listing reports it until it appears.
	if err := svc.CheckRoot(); err != nil {
		logger.Warn("Vault directory is not readable",
			slog.String("vault_path", svc.Root()),
			slog.String("error", err.Error()))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(cfg, svc, renderer, logger),
		ReadHeaderTimeout: cfg.App.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.App.HTTP.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
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

		logger.Info("Shutting down server...")

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

// RunMCP serves the vault tools over MCP on stdin and stdout. Logs go to
// stderr so they do not interleave with the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	logger := newLogger(app.stderr, app.config.App.LogLevel)
	svc, renderer, err := app.services(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting MCP server", slog.String("vault_path", svc.Root()))
	srv := mcpserver.New(svc, renderer, logger)
	if err := srv.Listen(ctx, app.stdin, app.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// PrintTree writes the vault tree to stdout and skipped entries to stderr.
func PrintTree(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	logger := newLogger(app.stderr, slog.LevelError)
	svc, _, err := app.services(logger)
	if err != nil {
		return err
	}

	res, err := svc.BuildTree(ctx)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	if _, err := io.WriteString(app.stdout, treeprint.Render(svc.Root(), res.Nodes)); err != nil {
		return err
	}
	return treeprint.WriteSkipped(app.stderr, res.Skipped)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// services builds the vault service and renderer from the configuration.
func (a *application) services(logger *slog.Logger) (*vault.Service, *render.Renderer, error) {
	cfg := a.config

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	svc := vault.NewService(store,
		vault.WithLogger(logger),
		vault.WithMaxDepth(cfg.Vault.MaxDepth),
		vault.WithImageVerification(cfg.Vault.VerifyImages),
	)
	renderer := render.New(render.WithUnsafeHTML(cfg.Render.UnsafeHTML))
	return svc, renderer, nil
}

// newRouter builds the top-level chi router with health checks and the API
// mounted under /api.
func newRouter(cfg *Config, svc *vault.Service, renderer *render.Renderer, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := svc.CheckRoot(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", api.NewRouter(svc, renderer, api.Options{
		CORSOrigins:        cfg.App.HTTP.CORSOrigins,
		ExposeErrorDetails: cfg.App.ExposeErrorDetails,
		Logger:             logger,
	}))

	return r
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, msg)
}
