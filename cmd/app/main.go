package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stock_go/internal/app"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Feed session (websocket backend only). A dead feed is not
	// fatal: the disk tiers can still serve the batch.
	if err := bootstrap.StartFeed(ctx); err != nil {
		slog.Warn("Feed unavailable, running degraded", slog.Any("error", err))
	}

	// 5. Catalog sync, then the history batch
	bootstrap.SyncInstruments(ctx)

	if err := bootstrap.RunBatch(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("👋 Batch interrupted, shutting down gracefully...")
			return
		}
		slog.Error("❌ History batch finished with failures", slog.Any("error", err))
		bootstrap.Shutdown()
		os.Exit(1)
	}

	slog.Info("✨ All instrument histories up to date")
}
