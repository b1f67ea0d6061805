package domain

import (
	"testing"
	"time"
)

func TestInstrument_CacheKey(t *testing.T) {
	tests := []struct {
		name string
		inst Instrument
		want string
	}{
		{"nickname wins", Instrument{Symbol: "AAPL", Nickname: "apple"}, "apple"},
		{"falls back to symbol", Instrument{Symbol: "AAPL"}, "aapl"},
		{"lowercased", Instrument{Nickname: "Apple"}, "apple"},
		{"dots become underscores", Instrument{Symbol: "BRK.B"}, "brk_b"},
		{"suffix symbol", Instrument{Symbol: "005930.KS"}, "005930_ks"},
		{"unsafe runes stripped", Instrument{Nickname: "s&p*500!"}, "sp500"},
		{"unusable nickname falls back", Instrument{Symbol: "TSLA", Nickname: "!!!"}, "tsla"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inst.CacheKey(); got != tt.want {
				t.Errorf("CacheKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstrument_SessionCloseOffset(t *testing.T) {
	tests := []struct {
		name  string
		close string
		want  time.Duration
	}{
		{"default when empty", "", 16 * time.Hour},
		{"explicit close", "15:30", 15*time.Hour + 30*time.Minute},
		{"early close", "05:00", 5 * time.Hour},
		{"malformed falls back", "4pm", 16 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := Instrument{Symbol: "TEST", SessionClose: tt.close}
			if got := inst.SessionCloseOffset(); got != tt.want {
				t.Errorf("SessionCloseOffset() = %v, want %v", got, tt.want)
			}
		})
	}
}
