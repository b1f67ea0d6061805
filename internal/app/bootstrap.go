package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/export"
	"stock_go/internal/infra"
	"stock_go/internal/infra/chartapi"
	"stock_go/internal/infra/feed"
	"stock_go/internal/infra/storage"
	"stock_go/internal/series"
	"stock_go/internal/service"
	"stock_go/internal/store"
)

const defaultBatchConcurrency = 4

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Catalog *storage.Storage
	History *service.HistoryService

	feed *feed.Client // non-nil when the websocket backend is selected
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, DB, pipeline)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Stock Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	// 3. Initialize Catalog (DB)
	catalog, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Catalog = catalog
	slog.Info("✅ Database initialized")

	// 4. Assemble the history pipeline: disk cache, fetch backend,
	// tiered store, memoized service
	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		cacheDir = "cache"
	}
	disk, err := store.NewDiskCache(cacheDir)
	if err != nil {
		return err
	}

	var backend domain.FetchBackend
	switch cfg.Source.Backend {
	case "feed":
		signer := feed.NewSigner(cfg.Source.Feed.AccessKey, cfg.Source.Feed.SecretKey)
		b.feed = feed.NewClient(cfg.Source.Feed.WSURL, signer, cfg.Source.Feed.TimeoutSec)
		backend = b.feed
	default: // "chart"
		backend = chartapi.NewClientWithConfig(cfg.Source.Chart.BaseURL, cfg.Source.Chart.TimeoutSec)
	}

	tiered := store.NewTieredStoreWithConfig(disk, backend, series.CheckPayload,
		cfg.Source.FetchTimeoutSec, cfg.Source.EpochYear)
	b.History = service.NewHistoryService(tiered)
	slog.Info("✅ History pipeline ready", slog.String("backend", cfg.Source.Backend))

	return nil
}

// StartFeed connects the websocket backend and waits for the
// authenticated session. No-op for the HTTP backend.
func (b *Bootstrap) StartFeed(ctx context.Context) error {
	if b.feed == nil {
		return nil
	}
	if err := b.feed.Connect(ctx); err != nil {
		return err
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if b.feed.IsConnected() {
			slog.Info("✅ Feed session established")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return fmt.Errorf("feed connection timed out")
}

// SyncInstruments upserts the configured instruments into the catalog
func (b *Bootstrap) SyncInstruments(ctx context.Context) {
	slog.Info("🔄 Syncing instrument catalog...")

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent DB work

	for _, ic := range b.Config.Instruments {
		wg.Add(1)
		go func(ic infra.InstrumentConfig) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			info := &domain.InstrumentInfo{
				Symbol:       ic.Symbol,
				Nickname:     ic.Nickname,
				Name:         ic.Name,
				SessionClose: ic.SessionClose,
				IsActive:     true,
				UpdatedAt:    time.Now(),
			}
			if info.Name == "" {
				info.Name = ic.Symbol // Default to symbol until dynamic lookup
			}
			if info.SessionClose == "" {
				info.SessionClose = b.Config.History.SessionClose
			}

			// Re-syncs must not reset operator state or fetch history
			if existing, _ := b.Catalog.GetInstrument(ic.Symbol); existing != nil {
				info.IsActive = existing.IsActive
				info.LastFetchedAt = existing.LastFetchedAt
				info.CreatedAt = existing.CreatedAt
			}

			if err := b.Catalog.UpsertInstrument(info); err != nil {
				slog.Error("Failed to upsert instrument", slog.String("symbol", ic.Symbol), slog.Any("error", err))
			}
		}(ic)
	}

	wg.Wait()
	slog.Info("✨ Instrument catalog synced", slog.Int("count", len(b.Config.Instruments)))
}

// RunBatch retrieves history for every active instrument in the
// catalog and exports it when an export format is configured.
func (b *Bootstrap) RunBatch(ctx context.Context) error {
	infos, err := b.Catalog.ListActiveInstruments()
	if err != nil {
		return err
	}

	r := domain.LastDays(b.Config.History.Days, time.Now().UTC())
	slog.Info("🔄 Starting history batch",
		slog.String("range", r.String()),
		slog.Int("instruments", len(infos)),
	)

	var exporter export.Exporter
	if b.Config.Export.Format != "" {
		exporter = export.NewExporter(b.Config.Export.Format)
		if exporter == nil {
			return fmt.Errorf("unsupported export format: %q", b.Config.Export.Format)
		}
		if err := os.MkdirAll(b.exportDir(), 0755); err != nil {
			return err
		}
	}

	concurrency := b.Config.History.Concurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	var wg sync.WaitGroup
	var failed atomic.Int32
	semaphore := make(chan struct{}, concurrency)

	for _, info := range infos {
		wg.Add(1)
		go func(inst domain.Instrument) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			if err := b.processInstrument(ctx, inst, r, exporter); err != nil {
				failed.Add(1)
			}
		}(info.Instrument())
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	snap := infra.GlobalMetrics.Snapshot()
	slog.Info("✨ History batch completed",
		slog.Int("failed", int(failed.Load())),
		slog.Uint64("requests", snap.BarRequests),
		slog.Uint64("disk_hits", snap.DiskHits),
		slog.Uint64("network_fetches", snap.NetworkFetches),
		slog.Uint64("stale_serves", snap.StaleServes),
		slog.Uint64("fetch_errors", snap.FetchErrors),
	)

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d instruments failed", n, len(infos))
	}
	return nil
}

func (b *Bootstrap) processInstrument(ctx context.Context, inst domain.Instrument, r domain.TimeRange, exporter export.Exporter) error {
	bars, err := b.History.GetBars(ctx, inst, r)
	if errors.Is(err, domain.ErrNoData) {
		slog.Warn("No bars in range", slog.String("symbol", inst.Symbol), slog.String("range", r.String()))
		return nil
	}
	if err != nil {
		slog.Error("History fetch failed", slog.String("symbol", inst.Symbol), slog.Any("error", err))
		return err
	}

	last := bars[len(bars)-1]
	slog.Info("History ready",
		slog.String("symbol", inst.Symbol),
		slog.Int("bars", len(bars)),
		slog.String("first", bars[0].Timestamp.Format("2006-01-02")),
		slog.String("last", last.Timestamp.Format("2006-01-02")),
		slog.String("last_session", last.Direction()),
	)

	if exporter != nil {
		path := filepath.Join(b.exportDir(), fmt.Sprintf("%s.%s", inst.CacheKey(), exporter.Extension()))
		if err := exporter.Save(bars, path); err != nil {
			slog.Error("Export failed", slog.String("symbol", inst.Symbol), slog.Any("error", err))
			return err
		}
		slog.Info("Exported", slog.String("symbol", inst.Symbol), slog.String("path", path))
	}

	if err := b.Catalog.MarkFetched(inst.Symbol, time.Now().UTC()); err != nil {
		slog.Warn("Failed to record fetch time", slog.String("symbol", inst.Symbol), slog.Any("error", err))
	}
	return nil
}

func (b *Bootstrap) exportDir() string {
	if b.Config.Export.Dir != "" {
		return b.Config.Export.Dir
	}
	return "exports"
}

// Shutdown releases long-lived connections
func (b *Bootstrap) Shutdown() {
	if b.feed != nil {
		b.feed.Disconnect()
	}
}
