package infra

import "time"

const (
	baseBackoff = 1 * time.Second
	maxBackoff  = 60 * time.Second
)

// CalculateBackoff returns the reconnect delay for the given retry
// count: exponential from baseBackoff, capped at maxBackoff.
func CalculateBackoff(retry int) time.Duration {
	if retry <= 0 {
		return baseBackoff
	}
	if retry > 6 { // 1s << 6 = 64s, already past the cap
		return maxBackoff
	}
	d := baseBackoff << uint(retry)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
