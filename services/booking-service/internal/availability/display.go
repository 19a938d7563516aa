package availability

import (
	"sync"
	"time"

	_ "time/tzdata"
)

const displayZone = "Australia/Sydney"

const localLayout = "Mon, 2 Jan 2006, 03:04 pm"

var (
	displayOnce sync.Once
	displayLoc  *time.Location
)

// DisplayLocation is the zone used for human-readable slot labels.
func DisplayLocation() *time.Location {
	displayOnce.Do(func() {
		loc, err := time.LoadLocation(displayZone)
		if err != nil {
			loc = time.UTC
		}
		displayLoc = loc
	})
	return displayLoc
}

// FormatLocal renders t for display only; never compare on its output.
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = DisplayLocation()
	}
	return t.In(loc).Format(localLayout)
}
