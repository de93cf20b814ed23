package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campusbridge/admin-console/config"
	httpx "github.com/campusbridge/admin-console/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config  *config.AppConfig
	Console ConsoleContainer
	Logger  *slog.Logger
}

// BuildHandler assembles the console router from the wired services.
func BuildHandler(cfg HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return httpx.NewRouter(httpx.RouterServices{
		Sessions:     cfg.Console.Sessions,
		Directory:    cfg.Console.Directory,
		CookieName:   cfg.Config.Session.CookieName,
		CookieDomain: cfg.Config.Session.CookieDomain,
		CookieTTL:    cfg.Config.Session.TTL,
		Logger:       logger,
	})
}

// RunServer runs the HTTP server until ctx is canceled or SIGINT/SIGTERM
// arrives, then shuts it down gracefully within the configured timeout.
// It blocks and returns the first fatal error.
func RunServer(ctx context.Context, cfg HTTPServerConfig, handler http.Handler) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := &http.Server{
		Addr:         cfg.Config.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Config.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
