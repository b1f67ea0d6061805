package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Fingerprint is the deterministic key identifying one history
// request. Equal fingerprints mean equal expected results, so it is
// safe to share one cached computation between them.
type Fingerprint string

// NewFingerprint derives the request key from the instrument identity,
// the requested range, and optional context tags. Tags are sorted
// before hashing so callers do not have to agree on an order.
func NewFingerprint(inst Instrument, r TimeRange, tags ...string) Fingerprint {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d", inst.Symbol, inst.Nickname, r.Start.UnixMilli(), r.End.UnixMilli())

	if len(tags) > 0 {
		sorted := make([]string, len(tags))
		copy(sorted, tags)
		sort.Strings(sorted)
		for _, tag := range sorted {
			fmt.Fprintf(h, "|%s", tag)
		}
	}

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
