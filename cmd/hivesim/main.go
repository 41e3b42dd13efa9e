// Package main provides hivesim, a development apiary backend for hivectl.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apiarist/hivectl/internal/sim"
)

func main() {
	// Parse flags
	addr := flag.String("addr", ":8080", "listen address")
	phaseInterval := flag.Duration("phase-interval", 2*time.Second, "time per harvest progress step")
	failRate := flag.Float64("fail-rate", 0.1, "probability a harvest fails mid-run")
	alertEvery := flag.Duration("alert-every", 15*time.Second, "cadence of synthetic alerts (0 disables)")
	flag.Parse()

	// Initialize logging
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("starting hivesim", "addr", *addr, "phase_interval", *phaseInterval, "fail_rate", *failRate)

	server := sim.NewServer(sim.Options{
		PhaseInterval: *phaseInterval,
		FailRate:      *failRate,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *alertEvery > 0 {
		go server.EmitAlerts(ctx, *alertEvery)
	}

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.Handler(),
	}

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
