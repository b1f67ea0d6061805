package domain

import (
	"strings"
	"time"
)

const (
	// DefaultSessionClose is the bar time-of-day used when an
	// instrument does not configure its own market close.
	DefaultSessionClose = "16:00"
)

// Instrument identifies one tradable symbol. Symbol is the vendor
// identifier sent on fetches; Nickname is a short human alias that
// doubles as the cache namespace, so a vendor-side symbol rename does
// not orphan the cached history.
type Instrument struct {
	Symbol       string `json:"symbol"`
	Nickname     string `json:"nickname"`
	SessionClose string `json:"session_close"` // "HH:MM" in UTC, empty = DefaultSessionClose
}

// CacheKey returns the directory-safe key used to namespace cache
// entries. Nickname wins when present; distinct identities never map
// to the same key unless they sanitize identically on purpose.
func (i Instrument) CacheKey() string {
	if k := sanitizeKey(i.Nickname); k != "" {
		return k
	}
	return sanitizeKey(i.Symbol)
}

// SessionCloseOffset returns the session close as an offset past
// midnight UTC. Malformed values fall back to DefaultSessionClose.
func (i Instrument) SessionCloseOffset() time.Duration {
	spec := i.SessionClose
	if spec == "" {
		spec = DefaultSessionClose
	}
	t, err := time.Parse("15:04", spec)
	if err != nil {
		t, _ = time.Parse("15:04", DefaultSessionClose)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

// sanitizeKey lowercases and strips anything that is unsafe in a
// directory name. Separators collapse to underscores so "BRK.B" and
// "BRK B" stay readable on disk.
func sanitizeKey(s string) string {
	res := make([]rune, 0, len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			res = append(res, r)
		case r == '.', r == ' ', r == '/':
			res = append(res, '_')
		}
	}
	return string(res)
}
