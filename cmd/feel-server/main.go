package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iammorganparry/feel/internal/api"
	"github.com/iammorganparry/feel/internal/config"
	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/logger"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logger
	log := logger.New("feel-server", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeStore, err := engine.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Stack().Err(err).Msg("failed to build engine")
	}
	defer closeStore()

	if err := eng.Initialize(ctx); err != nil {
		log.Fatal().Stack().Err(err).Msg("failed to initialize engine")
	}
	defer eng.Dispose()

	// Router
	router := api.NewRouter(eng, engine.Models(cfg), cfg.APIKey, log)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("provider", cfg.Provider).
			Str("storage", cfg.StorageDriver).
			Msg("feel server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Stack().Err(err).Msg("server error")
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Stack().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("server stopped")
}
