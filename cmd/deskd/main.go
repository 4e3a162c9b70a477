package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tradingdesk/internal/api"
	"tradingdesk/internal/config"
	"tradingdesk/internal/game"
	"tradingdesk/internal/idle"
	"tradingdesk/internal/market"
	"tradingdesk/internal/store"
	"tradingdesk/internal/stream"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	st, err := store.Open(ctx, store.Options{Kind: cfg.Store, Path: cfg.StorePath, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		logger.Error("open store failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	idleCfg := idle.DefaultConfig()
	idleCfg.MaxOffline = cfg.MaxOffline
	deps := game.Deps{Rand: market.NewRand(cfg.Seed), Idle: idleCfg}
	svc := game.NewService(st, deps, game.Options{
		Slot:      cfg.Slot,
		TickEvery: cfg.TickEvery,
		SaveEvery: cfg.SaveEvery,
	}, logger)
	if err := svc.Load(ctx); err != nil {
		logger.Error("load session failed", "slot", cfg.Slot, "err", err)
		os.Exit(1)
	}

	hub := stream.NewHub(logger)
	go hub.Run(ctx)
	events, unsubscribe := svc.Subscribe(64)
	defer unsubscribe()
	go hub.Follow(ctx, events)

	// The session loop outlives the HTTP server so its final save sees every
	// handled request.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = svc.Run(loopCtx)
	}()

	server := api.New(svc, hub, api.Options{TapRate: cfg.TapRate, AccessLog: cfg.AccessLog}, logger)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}()

	logger.Info("desk server listening", "addr", cfg.Addr, "store", cfg.Store, "slot", cfg.Slot)
	code := 0
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		code = 1
	}
	stop()
	<-drained
	stopLoop()
	<-loopDone
	if code != 0 {
		st.Close()
		os.Exit(code)
	}
	logger.Info("desk server stopped")
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
