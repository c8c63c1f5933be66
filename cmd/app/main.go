package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/makerdao/gdax-client/internal/app"
	"github.com/makerdao/gdax-client/internal/feed"
	"github.com/makerdao/gdax-client/internal/infra"
	"github.com/makerdao/gdax-client/internal/infra/gdax"

	_ "net/http/pprof" // For pprof profiling
)

const (
	frameBufferSize = 1024
	statusInterval  = 30 * time.Second
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	store := bootstrap.Storage
	product := cfg.Feed.ProductID

	// 4. Feed Client (the single ingestion loop / multi-reader core)
	frames := make(chan []byte, frameBufferSize)
	client := feed.NewClient(product, cfg.TradeExpiry(), cfg.BookExpiry())
	go client.Run(ctx, frames)
	slog.InfoContext(ctx, "Feed client started",
		slog.String("product", product),
		slog.Duration("trade_expiry", cfg.TradeExpiry()),
		slog.Duration("book_expiry", cfg.BookExpiry()),
	)

	// 5. Transport Worker
	worker := gdax.NewWorker(cfg.Feed.WSURL, product, frames, func() {
		if err := store.TouchConnected(product, time.Now()); err != nil {
			slog.Warn("Failed to stamp product registry", slog.Any("error", err))
		}
	})
	if err := worker.Connect(ctx); err != nil {
		slog.Error("Failed to start GDAX worker", slog.Any("error", err))
		os.Exit(1)
	}
	defer worker.Disconnect()
	slog.InfoContext(ctx, "GDAX worker started", slog.String("url", cfg.Feed.WSURL))

	// 6. Periodic status report (sample consumer of the two accessors)
	go func() {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logStatus(client)
			}
		}
	}()

	slog.InfoContext(ctx, "GDAX client fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	// Persist session stats for post-mortem
	snap := infra.GlobalMetrics.Snapshot()
	if err := store.SaveConfig("last_session_frames", strconv.FormatUint(snap.FramesProcessed, 10)); err != nil {
		slog.Warn("Failed to save session stats", slog.Any("error", err))
	}

	slog.InfoContext(ctx, "Shutting down gracefully...")
}

func logStatus(client *feed.Client) {
	attrs := []any{slog.Bool("book_initialized", client.BookInitialized())}

	if price, ok := client.GetPrice(); ok {
		attrs = append(attrs, slog.String("last_price", price.String()))
	} else {
		attrs = append(attrs, slog.String("last_price", "n/a"))
	}
	if mid, ok := client.GetBookPrice(); ok {
		attrs = append(attrs, slog.String("book_midpoint", mid.String()))
	} else {
		attrs = append(attrs, slog.String("book_midpoint", "n/a"))
	}

	snap := infra.GlobalMetrics.Snapshot()
	attrs = append(attrs,
		slog.Uint64("frames", snap.FramesProcessed),
		slog.Uint64("decode_errors", snap.DecodeErrors),
		slog.Bool("connected", snap.Connected),
	)

	slog.Info("feed status", attrs...)
}
