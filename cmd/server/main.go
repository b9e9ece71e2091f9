package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrshield/internal/ai"
	"qrshield/internal/api"
	"qrshield/internal/config"
	"qrshield/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.Init(cfg.Logging)

	apiKey := os.Getenv(cfg.AI.APIKeyEnv)
	if apiKey == "" {
		logger.Error("AI backend API key not set", "env", cfg.AI.APIKeyEnv)
		os.Exit(1)
	}
	analyzer, err := ai.New(cfg.AI, apiKey)
	if err != nil {
		logger.Error("failed to build analyzer", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(analyzer, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: api.NewRouter(handler, cfg.Server),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server running", "listen", cfg.Server.Listen, "model", cfg.AI.Model)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
