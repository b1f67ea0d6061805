package domain

import (
	"context"
)

// FetchBackend defines the interface for vendor history sources. The
// returned bytes are an opaque payload; connectivity failures,
// malformed responses, and rate limits all surface as plain errors.
type FetchBackend interface {
	Fetch(ctx context.Context, symbol string, r TimeRange) ([]byte, error)
}

// PayloadStore defines how raw history payloads are resolved
// (cache tiers, fallback ordering, write-back).
type PayloadStore interface {
	Load(ctx context.Context, inst Instrument, r TimeRange) (RawPayload, error)
}

// BarSource is the bar-retrieval API consumed by exporters and
// presentation code.
type BarSource interface {
	GetBars(ctx context.Context, inst Instrument, r TimeRange) ([]Bar, error)
}
