package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"todo-app/internal/app"
	"todo-app/internal/config"
	"todo-app/internal/events"
	"todo-app/internal/routes"
	"todo-app/pkg/logger"
)

func main() {
	config.LoadEnvFile(".env")

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Config load failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error(ctx, "Invalid config", "error", err)
		os.Exit(1)
	}
	logger.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	hub := events.NewHub()
	publisher, stopEvents := app.StartEvents(ctx, cfg, hub)

	todos, closeStorage, err := app.NewStore(ctx, cfg, publisher)
	if err != nil {
		logger.Error(ctx, "Storage not available; exiting", "error", err)
		os.Exit(1)
	}
	// Fail fast on a corrupt store instead of on the first request
	if _, err := todos.Load(ctx); err != nil {
		logger.Error(ctx, "Todo storage check failed; exiting", "error", err, "driver", cfg.StorageDriver)
		closeStorage()
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(todos, hub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort, "driver", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")

	// websocket streams end when the hub closes; Shutdown does not wait for hijacked conns
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	stopEvents()
	closeStorage()
	logger.Info(ctx, "Server stopped")
}
