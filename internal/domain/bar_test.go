package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func barFrom(open, high, low, close float64) Bar {
	return Bar{
		Symbol: "TEST",
		Open:   decimal.NewFromFloat(open),
		High:   decimal.NewFromFloat(high),
		Low:    decimal.NewFromFloat(low),
		Close:  decimal.NewFromFloat(close),
		Volume: 1000,
	}
}

func TestBar_Direction(t *testing.T) {
	tests := []struct {
		name string
		bar  Bar
		want string
	}{
		{"up day", barFrom(100, 112, 99, 110), "up"},
		{"down day", barFrom(100, 101, 88, 90), "down"},
		{"flat day", barFrom(100, 105, 95, 100), "flat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bar.Direction(); got != tt.want {
				t.Errorf("Direction() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBar_ChangePct(t *testing.T) {
	b := barFrom(100, 112, 99, 110)
	pct := b.ChangePct()
	if pct == nil {
		t.Fatal("ChangePct returned nil for non-zero open")
	}
	if !pct.Equal(decimal.NewFromInt(10)) {
		t.Errorf("ChangePct() = %s, want 10", pct)
	}

	zeroOpen := barFrom(0, 1, 0, 1)
	if zeroOpen.ChangePct() != nil {
		t.Error("ChangePct should be nil when open is zero")
	}
}

func TestBar_Spread(t *testing.T) {
	b := barFrom(100, 112, 99, 110)
	if !b.Spread().Equal(decimal.NewFromInt(13)) {
		t.Errorf("Spread() = %s, want 13", b.Spread())
	}
}
