package availability

import (
	"sort"
	"time"
)

const (
	DefaultSession = 50 * time.Minute
	DefaultBreak   = 10 * time.Minute
	DefaultHorizon = 30 * 24 * time.Hour
)

type Options struct {
	Session  time.Duration
	Break    time.Duration
	Horizon  time.Duration
	Location *time.Location
}

func DefaultOptions() Options {
	return Options{
		Session:  DefaultSession,
		Break:    DefaultBreak,
		Horizon:  DefaultHorizon,
		Location: DisplayLocation(),
	}
}

func (o Options) withDefaults() Options {
	if o.Session <= 0 {
		o.Session = DefaultSession
	}
	if o.Break < 0 {
		o.Break = 0
	}
	if o.Horizon <= 0 {
		o.Horizon = DefaultHorizon
	}
	if o.Location == nil {
		o.Location = DisplayLocation()
	}
	return o
}

type Slot struct {
	Interval
	StartLocal string
}

// Enumerate expands availability windows into on-the-hour slots of o.Session length,
// spaced o.Session+o.Break apart, dropping any that overlap a booked interval.
// Output is sorted by start. Overlapping windows may yield duplicate slots.
func Enumerate(windows, booked []Interval, now time.Time, o Options) []Slot {
	o = o.withDefaults()
	now = now.UTC()
	horizon := now.Add(o.Horizon)
	step := o.Session + o.Break

	var slots []Slot
	for _, w := range windows {
		if !w.End.After(now) || !w.Start.Before(horizon) {
			continue
		}
		start := w.Start
		if start.Before(now) {
			start = now
		}
		for cursor := CeilHour(start); !cursor.Add(o.Session).After(w.End); cursor = cursor.Add(step) {
			candidate := Interval{Start: cursor, End: cursor.Add(o.Session)}
			if OverlapsAny(candidate, booked) {
				continue
			}
			slots = append(slots, Slot{
				Interval:   candidate,
				StartLocal: FormatLocal(candidate.Start, o.Location),
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}
