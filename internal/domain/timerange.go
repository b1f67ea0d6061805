package domain

import (
	"fmt"
	"time"
)

// TimeRange is an inclusive [Start, End] window over bar timestamps.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange builds a range in UTC.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start.UTC(), End: end.UTC()}
}

// LastDays returns the range covering the trailing n days up to now.
func LastDays(n int, now time.Time) TimeRange {
	now = now.UTC()
	return TimeRange{Start: now.AddDate(0, 0, -n), End: now}
}

// Validate rejects inverted or zero ranges.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return nil
}

// Covers reports whether r fully contains other.
func (r TimeRange) Covers(other TimeRange) bool {
	return !r.Start.After(other.Start) && !r.End.Before(other.End)
}

// Contains reports whether t falls inside the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the whole number of days the range spans.
func (r TimeRange) Days() int {
	return int(r.End.Sub(r.Start) / (24 * time.Hour))
}

func (r TimeRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}
