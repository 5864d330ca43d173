package models

import "time"

// TimeRange represents a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange constructs a range from two instants.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Overlaps reports whether two ranges strictly overlap.
// Touching endpoints do not count: a booking ending at 11:00
// does not conflict with one starting at 11:00.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether the instant falls inside [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// SameDay reports whether Start and End fall on the same calendar day.
func (r TimeRange) SameDay() bool {
	y1, m1, d1 := r.Start.Date()
	y2, m2, d2 := r.End.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsZero reports whether either endpoint is the zero instant.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() || r.End.IsZero()
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// StartOfDay truncates an instant to midnight of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
