package availability

import (
	"testing"
	"time"
)

func mustInterval(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	iv, err := NewInterval(start, end)
	if err != nil {
		t.Fatalf("NewInterval: %v", err)
	}
	return iv
}

func TestNewIntervalRejectsEmpty(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if _, err := NewInterval(at, at); err != ErrEmptyInterval {
		t.Fatalf("expected ErrEmptyInterval for zero length, got %v", err)
	}
	if _, err := NewInterval(at, at.Add(-time.Minute)); err != ErrEmptyInterval {
		t.Fatalf("expected ErrEmptyInterval for inverted bounds, got %v", err)
	}
}

func TestOverlapsSymmetricAndReflexive(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{base, base.Add(time.Hour)}, Interval{base, base.Add(time.Hour)}, true},
		{"touching", Interval{base, base.Add(time.Hour)}, Interval{base.Add(time.Hour), base.Add(2 * time.Hour)}, false},
		{"partial", Interval{base, base.Add(time.Hour)}, Interval{base.Add(30 * time.Minute), base.Add(90 * time.Minute)}, true},
		{"nested", Interval{base, base.Add(3 * time.Hour)}, Interval{base.Add(time.Hour), base.Add(2 * time.Hour)}, true},
		{"disjoint", Interval{base, base.Add(time.Hour)}, Interval{base.Add(2 * time.Hour), base.Add(3 * time.Hour)}, false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: Overlaps(a,b)=%v want %v", tc.name, got, tc.want)
		}
		if Overlaps(tc.a, tc.b) != Overlaps(tc.b, tc.a) {
			t.Fatalf("%s: overlap not symmetric", tc.name)
		}
		if !Overlaps(tc.a, tc.a) {
			t.Fatalf("%s: interval does not overlap itself", tc.name)
		}
	}
}

func TestContainsInclusiveBounds(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	window := Interval{base, base.Add(8 * time.Hour)}
	if !Contains(window, window) {
		t.Fatalf("expected window to contain itself")
	}
	if !Contains(window, Interval{base, base.Add(50 * time.Minute)}) {
		t.Fatalf("expected slot at window start to be contained")
	}
	if Contains(window, Interval{base.Add(-time.Minute), base.Add(50 * time.Minute)}) {
		t.Fatalf("slot starting before window must not be contained")
	}
	if Contains(window, Interval{base.Add(8 * time.Hour), base.Add(9 * time.Hour)}) {
		t.Fatalf("slot after window must not be contained")
	}
}

func TestParseInstant(t *testing.T) {
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2026-03-02T09:00:00Z",
		"2026-03-02T09:00:00.000Z",
		"2026-03-02T20:00:00+11:00",
		"2026-03-02T09:00:00",
		"2026-03-02T09:00",
	} {
		got, err := ParseInstant(raw)
		if err != nil {
			t.Fatalf("ParseInstant(%q): %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseInstant(%q)=%s want %s", raw, got, want)
		}
	}
	for _, raw := range []string{"", "   ", "tomorrow", "2026-13-40T00:00:00Z"} {
		if _, err := ParseInstant(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestCeilHour(t *testing.T) {
	onHour := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if got := CeilHour(onHour); !got.Equal(onHour) {
		t.Fatalf("expected on-the-hour instant unchanged, got %s", got)
	}
	if got := CeilHour(onHour.Add(time.Second)); !got.Equal(onHour.Add(time.Hour)) {
		t.Fatalf("expected next hour, got %s", got)
	}
	if got := CeilHour(onHour.Add(59 * time.Minute)); !got.Equal(onHour.Add(time.Hour)) {
		t.Fatalf("expected next hour, got %s", got)
	}
}

func TestEnumerateBasicCadence(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := mustInterval(t, day.Add(9*time.Hour), day.Add(12*time.Hour))

	slots := Enumerate([]Interval{window}, nil, now, DefaultOptions())
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	for i, s := range slots {
		wantStart := day.Add(time.Duration(9+i) * time.Hour)
		if !s.Start.Equal(wantStart) {
			t.Fatalf("slot %d: start %s want %s", i, s.Start, wantStart)
		}
		if s.Duration() != DefaultSession {
			t.Fatalf("slot %d: duration %s", i, s.Duration())
		}
		if i > 0 && s.Start.Sub(slots[i-1].Start) != DefaultSession+DefaultBreak {
			t.Fatalf("slot %d: cadence %s", i, s.Start.Sub(slots[i-1].Start))
		}
	}
}

func TestEnumerateLastSlotMustFit(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// 09:00 fits (ends 09:50), 10:00 would end 10:50 > 10:40.
	window := mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour+40*time.Minute))

	slots := Enumerate([]Interval{window}, nil, now, DefaultOptions())
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}

func TestEnumerateClampsToNowAndRoundsUp(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now := day.Add(9*time.Hour + 20*time.Minute)
	window := mustInterval(t, day.Add(9*time.Hour), day.Add(12*time.Hour))

	slots := Enumerate([]Interval{window}, nil, now, DefaultOptions())
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("expected first slot at 10:00, got %s", slots[0].Start)
	}
}

func TestEnumerateRoundsUnalignedWindowStart(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	window := mustInterval(t, day.Add(9*time.Hour+15*time.Minute), day.Add(11*time.Hour))

	slots := Enumerate([]Interval{window}, nil, now, DefaultOptions())
	if len(slots) != 1 || !slots[0].Start.Equal(day.Add(10*time.Hour)) {
		t.Fatalf("expected a single 10:00 slot, got %+v", slots)
	}
}

func TestEnumerateSkipsWindowsOutsideHorizon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := mustInterval(t, now.Add(-5*time.Hour), now)
	beyond := mustInterval(t, now.Add(DefaultHorizon), now.Add(DefaultHorizon+3*time.Hour))
	inside := mustInterval(t, now.Add(DefaultHorizon-2*time.Hour), now.Add(DefaultHorizon+2*time.Hour))

	slots := Enumerate([]Interval{past, beyond, inside}, nil, now, DefaultOptions())
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots from the window straddling the horizon, got %d", len(slots))
	}
}

func TestEnumerateExcludesBookedAcrossWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	morning := mustInterval(t, day.Add(9*time.Hour), day.Add(12*time.Hour))
	afternoon := mustInterval(t, day.Add(13*time.Hour), day.Add(15*time.Hour))
	// Bookings clip the 10:00 and 13:00 slots only.
	booked := []Interval{
		mustInterval(t, day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour)),
		mustInterval(t, day.Add(13*time.Hour+30*time.Minute), day.Add(13*time.Hour+45*time.Minute)),
	}

	slots := Enumerate([]Interval{afternoon, morning}, booked, now, DefaultOptions())
	want := []time.Time{day.Add(9 * time.Hour), day.Add(11 * time.Hour), day.Add(14 * time.Hour)}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %+v", len(want), len(slots), slots)
	}
	for i, s := range slots {
		if !s.Start.Equal(want[i]) {
			t.Fatalf("slot %d: start %s want %s", i, s.Start, want[i])
		}
		for _, b := range booked {
			if Overlaps(s.Interval, b) {
				t.Fatalf("slot %d overlaps booking %+v", i, b)
			}
		}
	}
}

func TestEnumerateIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 7, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windows := []Interval{
		mustInterval(t, day.Add(9*time.Hour), day.Add(17*time.Hour)),
		mustInterval(t, day.Add(33*time.Hour), day.Add(40*time.Hour)),
	}
	booked := []Interval{mustInterval(t, day.Add(12*time.Hour), day.Add(13*time.Hour))}

	a := Enumerate(windows, booked, now, DefaultOptions())
	b := Enumerate(windows, booked, now, DefaultOptions())
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || a[i].StartLocal != b[i].StartLocal {
			t.Fatalf("slot %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEnumerateToleratesOverlappingWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	w := mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour))

	slots := Enumerate([]Interval{w, w}, nil, now, DefaultOptions())
	if len(slots) != 2 {
		t.Fatalf("expected duplicate slots from duplicate windows, got %d", len(slots))
	}
}

func TestFormatLocal(t *testing.T) {
	// 2026-03-02 09:00 UTC is 20:00 AEDT.
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if got := FormatLocal(at, nil); got != "Mon, 2 Mar 2026, 08:00 pm" {
		t.Fatalf("unexpected display string %q", got)
	}
}

func TestFormatISO(t *testing.T) {
	at := time.Date(2026, 3, 2, 20, 0, 0, 0, time.FixedZone("AEDT", 11*3600))
	if got := FormatISO(at); got != "2026-03-02T09:00:00.000Z" {
		t.Fatalf("unexpected %q", got)
	}
}
