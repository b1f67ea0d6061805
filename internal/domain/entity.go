package domain

import (
	"time"
)

// InstrumentInfo represents catalog metadata for a tracked instrument
type InstrumentInfo struct {
	Symbol        string    `gorm:"primaryKey" json:"symbol"`
	Nickname      string    `json:"nickname" gorm:"index"`
	Name          string    `json:"name"`
	SessionClose  string    `json:"session_close"`          // "HH:MM" UTC market close
	IsActive      bool      `json:"is_active" gorm:"index"` // Included in batch runs
	LastFetchedAt time.Time `json:"last_fetched_at"`        // Last successful history fetch
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Instrument returns the fetch/cache identity for this catalog entry.
func (i *InstrumentInfo) Instrument() Instrument {
	return Instrument{
		Symbol:       i.Symbol,
		Nickname:     i.Nickname,
		SessionClose: i.SessionClose,
	}
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
