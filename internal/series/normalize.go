package series

import (
	"math"
	"sort"
	"time"

	"stock_go/internal/domain"

	"github.com/shopspring/decimal"
)

// sample is one fully validated data point from the parallel arrays.
type sample struct {
	open, high, low, close float64
	volume                 int64
	adjClose               float64
	hasAdj                 bool
}

// Normalize converts a raw payload into the canonical bar sequence for
// inst: split/dividend adjusted, gap-filled by carry-forward, stamped
// at the instrument's session close, filtered to [r.Start, r.End]
// inclusive, strictly ascending. An empty result is not an error here;
// the caller decides whether that means "no data".
func Normalize(body []byte, inst domain.Instrument, r domain.TimeRange) ([]domain.Bar, error) {
	res, err := decode(body)
	if err != nil {
		return nil, err
	}

	quote := res.Indicators.Quote[0]
	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	// The source usually sends ascending timestamps, but sorted output
	// is a guarantee this function establishes, not one it assumes.
	order := make([]int, len(res.Timestamp))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return res.Timestamp[order[a]] < res.Timestamp[order[b]]
	})

	closeOffset := inst.SessionCloseOffset()
	bars := make([]domain.Bar, 0, len(order))
	for _, i := range order {
		ts := canonicalTime(res.Timestamp[i], closeOffset)
		if n := len(bars); n > 0 && !ts.After(bars[n-1].Timestamp) {
			continue // same day after truncation, first sample wins
		}

		s, ok := sampleAt(quote, adj, i)
		if !ok {
			// Malformed sample: repeat the previous bar at the new
			// timestamp. With nothing to carry yet, drop it.
			if n := len(bars); n > 0 {
				carried := bars[n-1]
				carried.Timestamp = ts
				bars = append(bars, carried)
			}
			continue
		}

		bars = append(bars, buildBar(inst.Symbol, ts, s))
	}

	// Filter after the full sequence is built so carry-forward can seed
	// from bars that precede the requested window.
	filtered := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		if r.Contains(b.Timestamp) {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// sampleAt validates index i across the parallel arrays. ok is false
// when any field is missing, null, or non-finite; the caller decides
// between carry-forward and skip.
func sampleAt(q quoteArrays, adj []*float64, i int) (sample, bool) {
	var s sample
	var ok bool

	if s.open, ok = floatAt(q.Open, i); !ok {
		return s, false
	}
	if s.high, ok = floatAt(q.High, i); !ok {
		return s, false
	}
	if s.low, ok = floatAt(q.Low, i); !ok {
		return s, false
	}
	if s.close, ok = floatAt(q.Close, i); !ok {
		return s, false
	}
	if s.volume, ok = intAt(q.Volume, i); !ok {
		return s, false
	}
	if adj != nil {
		// An adjustment series that skips this sample makes the whole
		// record unusable: prices and volume would disagree.
		if s.adjClose, ok = floatAt(adj, i); !ok {
			return s, false
		}
		s.hasAdj = true
	}
	return s, true
}

func floatAt(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	v := *vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func intAt(vals []*int64, i int) (int64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// buildBar applies the adjustment ratio adjClose/close to prices and
// its inverse to volume. Volume is not adjusted by the source, so it
// must scale oppositely to price for notional value to stay coherent.
func buildBar(symbol string, ts time.Time, s sample) domain.Bar {
	ratio := decimal.NewFromInt(1)
	if s.hasAdj && s.close != 0 {
		if r := decimal.NewFromFloat(s.adjClose).Div(decimal.NewFromFloat(s.close)); r.IsPositive() {
			ratio = r
		}
	}

	return domain.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      decimal.NewFromFloat(s.open).Mul(ratio),
		High:      decimal.NewFromFloat(s.high).Mul(ratio),
		Low:       decimal.NewFromFloat(s.low).Mul(ratio),
		Close:     decimal.NewFromFloat(s.close).Mul(ratio),
		Volume:    decimal.NewFromInt(s.volume).Div(ratio).Round(0).IntPart(),
	}
}

// canonicalTime truncates a raw timestamp to its UTC calendar date and
// pins it to the session close, so bars compare cleanly across sources
// that stamp records at open, close, or midnight.
func canonicalTime(unixSec int64, closeOffset time.Duration) time.Time {
	t := time.Unix(unixSec, 0).UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(closeOffset)
}
