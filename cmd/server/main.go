package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rohan-ak43/Remo/internal/config"
	"github.com/rohan-ak43/Remo/internal/gateway"
	"github.com/rohan-ak43/Remo/internal/gemini"
	"github.com/rohan-ak43/Remo/internal/logging"
	"github.com/rohan-ak43/Remo/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupGemini(cfg *config.Config, clock clockwork.Clock) *gemini.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, clock)
	if err != nil {
		slog.Error("Failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, gw *gateway.Gateway, ai *gemini.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		gw.Stop()

		if err := ai.Close(); err != nil {
			slog.Error("Failed to close Gemini client", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	if cfg.UsingDefaultSensorKey() {
		slog.Warn("SENSOR_API_KEY not set, using default shared secret; do not run this in production")
	}

	gw := gateway.New(clock, cfg.MaxWebSocketConnections)

	ai := setupGemini(cfg, clock)

	srv := server.NewServer(cfg, gw, ai, clock)

	done := runGracefulShutdown(srv, gw, ai)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
