package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"transitdesk/handlers"
	"transitdesk/middleware"
)

const version = "1.0.0"

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the console JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a)
		},
	}
}

func newServer(a *app, limiter *middleware.RateLimiter) *http.Server {
	h := &handlers.Handlers{
		Session:   handlers.NewSessionHandler(a.provider, a.client, a.registry, a.logger),
		Entities:  handlers.NewEntityHandler(a.registry, a.logger),
		Trips:     handlers.NewTripOptionsHandler(a.client, a.logger),
		Maps:      handlers.NewMapHandler(a.client, a.registry, a.mapView, a.logger),
		Calendar:  handlers.NewCalendarHandler(a.calendar, a.logger),
		Analytics: handlers.NewAnalyticsHandler(a.client, a.logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	h.Register(mux, a.provider)

	return &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      handlers.Chain(mux, a.logger, a.cfg.CORS.AllowedOrigins, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func serve(ctx context.Context, a *app) error {
	limiter := middleware.NewRateLimiter(a.cfg.RateLimit.Requests, a.cfg.RateLimit.Window)
	limiter.CleanupOldLimiters(ctx)
	server := newServer(a, limiter)

	a.logger.Info("starting console server",
		zap.String("environment", a.cfg.Server.Environment),
		zap.String("addr", server.Addr),
		zap.String("backend", a.cfg.Backend.BaseURL),
		zap.String("storage", a.cfg.Storage.Driver))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	a.logger.Info("server stopped gracefully")
	return nil
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"%s"}`, time.Now().Unix(), version)
}
