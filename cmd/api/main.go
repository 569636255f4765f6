package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tejedor/trama/internal/config"
	"github.com/tejedor/trama/internal/handlers"
	"github.com/tejedor/trama/internal/logger"
	"github.com/tejedor/trama/internal/middleware"
	"github.com/tejedor/trama/internal/storage"
	"github.com/tejedor/trama/pkg/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg := logger.Setup(cfg)

	logg.Info("Starting Trama API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, logg)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		logg.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	controller := engine.NewController(store, logg)

	sessionHandler := handlers.NewSessionHandler(logg, store)
	characterHandler := handlers.NewCharacterHandler(logg, store, controller)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, logg))
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Nested character paths dispatch separately from session reads.
		if strings.Contains(r.URL.Path, "/characters/") {
			characterHandler.ServeHTTP(w, r)
			return
		}
		sessionHandler.ServeHTTP(w, r)
	}))
	mux.Handle("/v1/decisions", handlers.NewDecisionHandler(logg, controller))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		logg.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logg.Info("Server exited")
}
