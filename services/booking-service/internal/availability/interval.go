package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrEmptyInterval = errors.New("interval end must be after start")

// Interval is a half-open span of absolute time, [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Overlaps reports whether a and b share any instant: a.Start < b.End && a.End > b.Start.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Contains reports whether inner lies entirely within outer, bounds inclusive.
func Contains(outer, inner Interval) bool {
	return !outer.Start.After(inner.Start) && !outer.End.Before(inner.End)
}

func OverlapsAny(iv Interval, others []Interval) bool {
	for _, o := range others {
		if Overlaps(iv, o) {
			return true
		}
	}
	return false
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant accepts RFC 3339 timestamps. Values without a zone offset are read as UTC.
func ParseInstant(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time value %q", raw)
}

// CeilHour returns t if it is already on an hour boundary, otherwise the next one.
func CeilHour(t time.Time) time.Time {
	floor := t.Truncate(time.Hour)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Hour)
}

const isoLayout = "2006-01-02T15:04:05.000Z"

// FormatISO renders t as UTC with millisecond precision, e.g. 2026-03-02T09:00:00.000Z.
func FormatISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
