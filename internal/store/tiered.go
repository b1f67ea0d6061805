package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/infra"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultEpochYear    = 2000
)

// TieredStore owns the on-disk payload cache and resolves load
// requests through an ordered fallback chain: covered fresh disk data,
// then a network fetch widened to full history, then whatever stale
// disk data exists. Fresh network payloads are written back; payloads
// served from disk never are.
type TieredStore struct {
	disk     *DiskCache
	backend  domain.FetchBackend
	validate func([]byte) error
	timeout  time.Duration
	epoch    time.Time
	now      func() time.Time
	metrics  *infra.Metrics
}

// NewTieredStore wires the cache tiers. validate decides whether a
// payload (from any tier) is structurally usable.
func NewTieredStore(disk *DiskCache, backend domain.FetchBackend, validate func([]byte) error) *TieredStore {
	return &TieredStore{
		disk:     disk,
		backend:  backend,
		validate: validate,
		timeout:  defaultFetchTimeout,
		epoch:    time.Date(defaultEpochYear, 1, 1, 0, 0, 0, 0, time.UTC),
		now:      time.Now,
		metrics:  infra.GlobalMetrics,
	}
}

// NewTieredStoreWithConfig creates a store with custom fetch timeout
// and history epoch.
func NewTieredStoreWithConfig(disk *DiskCache, backend domain.FetchBackend, validate func([]byte) error, timeoutSec, epochYear int) *TieredStore {
	s := NewTieredStore(disk, backend, validate)
	if timeoutSec > 0 {
		s.timeout = time.Duration(timeoutSec) * time.Second
	}
	if epochYear > 0 {
		s.epoch = time.Date(epochYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return s
}

// Load resolves a raw payload for the requested range. The returned
// payload may be wider than r; it may also be stale when the network
// is down and only degraded disk data exists. Only a total miss across
// all tiers is an error.
func (t *TieredStore) Load(ctx context.Context, inst domain.Instrument, r domain.TimeRange) (domain.RawPayload, error) {
	begin := time.Now()
	defer func() {
		t.metrics.RecordLoad(time.Since(begin).Nanoseconds())
	}()

	key := inst.CacheKey()

	cached, haveDisk := t.disk.Read(key)
	if haveDisk && cached.Range.Covers(r) && t.validate(cached.Body) == nil {
		t.metrics.RecordDiskHit()
		slog.Debug("History served from disk cache",
			slog.String("instrument", inst.Symbol),
			slog.String("key", key),
			slog.String("range", r.String()),
		)
		return cached, nil
	}

	// Fetch the full available history rather than the narrow caller
	// range: one wide payload keeps future requests on the disk tier
	// and survives later offline runs.
	wide := domain.TimeRange{Start: t.epoch, End: t.now().UTC()}
	body, err := t.fetch(ctx, inst.Symbol, wide)
	if err == nil {
		if verr := t.validate(body); verr == nil {
			payload := domain.RawPayload{Body: body, Range: wide}
			if werr := t.disk.Write(key, payload); werr != nil {
				// The fetched payload is still good; losing the
				// write-back only costs the next run a refetch.
				slog.Warn("History cache write failed",
					slog.String("instrument", inst.Symbol),
					slog.Any("error", werr),
				)
			}
			t.metrics.RecordNetworkFetch()
			return payload, nil
		} else {
			err = verr
		}
	}

	t.metrics.RecordFetchError()
	slog.Debug("Network fetch failed, checking stale cache",
		slog.String("instrument", inst.Symbol),
		slog.Any("error", err),
	)

	if haveDisk {
		// Degraded beats absent: the disk payload failed coverage or
		// validity above, but it is the best data still available.
		t.metrics.RecordStaleServe()
		slog.Warn("Serving stale cached history",
			slog.String("instrument", inst.Symbol),
			slog.String("key", key),
			slog.String("cached_range", cached.Range.String()),
			slog.String("requested_range", r.String()),
		)
		return cached, nil
	}

	return domain.RawPayload{}, fmt.Errorf("history for %s in %s: %w", inst.Symbol, r.String(), domain.ErrSourceUnavailable)
}

// fetch calls the backend under the store's timeout. Every backend
// failure, timeouts included, is a fetch failure that falls through
// the chain.
func (t *TieredStore) fetch(ctx context.Context, symbol string, r domain.TimeRange) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	t.metrics.IncrementInflight()
	defer t.metrics.DecrementInflight()

	body, err := t.backend.Fetch(ctx, symbol, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return body, nil
}
