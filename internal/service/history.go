// Package service exposes the history API: memoized, tier-cached
// retrieval of normalized daily bars.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"stock_go/internal/cache"
	"stock_go/internal/domain"
	"stock_go/internal/infra"
	"stock_go/internal/series"
)

// HistoryService answers bar requests from an in-memory memo table
// backed by the tiered payload store. Identical concurrent requests
// share one computation; results live for the service's lifetime.
type HistoryService struct {
	store   domain.PayloadStore
	memo    *cache.Memo[domain.Fingerprint, []domain.Bar]
	metrics *infra.Metrics
}

var _ domain.BarSource = (*HistoryService)(nil)

// NewHistoryService creates a service with an empty memo table.
func NewHistoryService(store domain.PayloadStore) *HistoryService {
	return &HistoryService{
		store:   store,
		memo:    cache.New[domain.Fingerprint, []domain.Bar](),
		metrics: infra.GlobalMetrics,
	}
}

// GetBars returns the adjusted daily bars for inst within [r.Start,
// r.End], strictly ascending. It fails with ErrNoData when the range
// holds no bars and with ErrSourceUnavailable when no cache tier or
// fetch produced a usable payload.
func (s *HistoryService) GetBars(ctx context.Context, inst domain.Instrument, r domain.TimeRange) ([]domain.Bar, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s.metrics.RecordRequest()

	fp := domain.NewFingerprint(inst, r)
	return s.memo.GetOrCompute(ctx, fp, func(ctx context.Context) ([]domain.Bar, error) {
		s.metrics.RecordMemoMiss()
		slog.Debug("Computing bar sequence",
			slog.String("instrument", inst.Symbol),
			slog.String("range", r.String()),
		)

		payload, err := s.store.Load(ctx, inst, r)
		if err != nil {
			return nil, err
		}

		bars, err := series.Normalize(payload.Body, inst, r)
		if err != nil {
			// The only payload any tier produced does not decode, so
			// from the caller's point of view the source is gone.
			return nil, fmt.Errorf("history for %s in %s: %v: %w", inst.Symbol, r.String(), err, domain.ErrSourceUnavailable)
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("history for %s in %s: %w", inst.Symbol, r.String(), domain.ErrNoData)
		}
		return bars, nil
	})
}
