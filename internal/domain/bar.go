package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one daily OHLCV candle for an instrument.
// Prices are already split/dividend adjusted; Timestamp is the UTC
// calendar date at the instrument's session close.
type Bar struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// Spread returns the high-low range of the bar
func (b *Bar) Spread() decimal.Decimal {
	return b.High.Sub(b.Low)
}

// ChangePct calculates intraday change: 100 * (Close - Open) / Open
func (b *Bar) ChangePct() *decimal.Decimal {
	if b.Open.IsZero() {
		return nil
	}
	pct := b.Close.Sub(b.Open).Div(b.Open).Mul(decimal.NewFromInt(100))
	return &pct
}

// Direction returns "up", "down", or "flat"
func (b *Bar) Direction() string {
	if b.Close.GreaterThan(b.Open) {
		return "up"
	}
	if b.Close.LessThan(b.Open) {
		return "down"
	}
	return "flat"
}
