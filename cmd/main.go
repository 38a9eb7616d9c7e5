package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mockpages/collab-service/config"
	"github.com/mockpages/collab-service/internal/presence"
	httpx "github.com/mockpages/collab-service/internal/transport/http"
	"github.com/mockpages/collab-service/internal/transport/ws"
	"github.com/mockpages/collab-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting collab-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- presence store ---
	store := presence.NewStore()

	// --- WS Hub & Server ---
	hub := ws.NewHub(store)
	wsServer := ws.NewServer(hub, store, ws.Options{
		PingInterval: cfg.WS.PingIntervalOr(15 * time.Second),
		ReadLimit:    cfg.WS.ReadLimit,
	})

	// --- HTTP ---
	router := httpx.NewRouter(wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeoutOr(10 * time.Second),
		WriteTimeout: cfg.HTTP.WriteTimeoutOr(15 * time.Second),
		IdleTimeout:  cfg.HTTP.IdleTimeoutOr(60 * time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped", "rooms", store.RoomCount())
}
