package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/timeslot"
)

func mustTime(t *testing.T, value string) timeslot.TimeOfDay {
	t.Helper()
	parsed, err := timeslot.ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", value, err)
	}
	return parsed
}

func TestExpander_Expand(t *testing.T) {
	t.Parallel()

	expander := NewExpander(0)
	// 2024-01-01 was a Monday.
	monday := timeslot.NewDate(2024, time.January, 1)
	nine := timeslot.TimeOfDay(9 * 60)
	ten := timeslot.TimeOfDay(10 * 60)

	t.Run("none yields a single occurrence", func(t *testing.T) {
		t.Parallel()

		occurrences, err := expander.Expand(monday, nine, ten, None())
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(occurrences) != 1 {
			t.Fatalf("expected 1 occurrence, got %d", len(occurrences))
		}
		if occurrences[0] != (Occurrence{Date: monday, Start: nine, End: ten}) {
			t.Fatalf("unexpected occurrence: %+v", occurrences[0])
		}
	})

	t.Run("daily yields one occurrence per day inclusive", func(t *testing.T) {
		t.Parallel()

		until := timeslot.NewDate(2024, time.January, 5)
		occurrences, err := expander.Expand(monday, nine, ten, Daily(until))
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(occurrences) != 5 {
			t.Fatalf("expected 5 occurrences, got %d", len(occurrences))
		}
		for i, occurrence := range occurrences {
			want := monday.AddDays(i)
			if occurrence.Date != want {
				t.Errorf("occurrence %d on %v, want %v", i, occurrence.Date, want)
			}
			if occurrence.Start != nine || occurrence.End != ten {
				t.Errorf("occurrence %d window %v-%v, want 09:00-10:00", i, occurrence.Start, occurrence.End)
			}
		}
	})

	t.Run("daily spanning one day yields one occurrence", func(t *testing.T) {
		t.Parallel()

		occurrences, err := expander.Expand(monday, nine, ten, Daily(monday))
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(occurrences) != 1 {
			t.Fatalf("expected 1 occurrence, got %d", len(occurrences))
		}
	})

	t.Run("weekly steps seven days on the same weekday", func(t *testing.T) {
		t.Parallel()

		until := timeslot.NewDate(2024, time.January, 22)
		occurrences, err := expander.Expand(monday, nine, ten, Weekly(until))
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		wantDates := []timeslot.Date{
			monday,
			timeslot.NewDate(2024, time.January, 8),
			timeslot.NewDate(2024, time.January, 15),
			timeslot.NewDate(2024, time.January, 22),
		}
		if len(occurrences) != len(wantDates) {
			t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(occurrences))
		}
		for i, occurrence := range occurrences {
			if occurrence.Date != wantDates[i] {
				t.Errorf("occurrence %d on %v, want %v", i, occurrence.Date, wantDates[i])
			}
			if occurrence.Date.Weekday() != time.Monday {
				t.Errorf("occurrence %d falls on %v, want Monday", i, occurrence.Date.Weekday())
			}
		}
	})

	t.Run("weekly schedule emits only enabled weekdays with their own windows", func(t *testing.T) {
		t.Parallel()

		windows := map[time.Weekday]Window{
			time.Monday:    {Start: nine, End: ten, Enabled: true},
			time.Wednesday: {Start: mustTime(t, "13:00"), End: mustTime(t, "14:30"), Enabled: true},
			time.Friday:    {Start: nine, End: ten, Enabled: false},
		}
		until := timeslot.NewDate(2024, time.January, 10)

		occurrences, err := expander.Expand(monday, nine, ten, WeeklySchedule(windows, until))
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}

		wantDates := []timeslot.Date{
			timeslot.NewDate(2024, time.January, 1),
			timeslot.NewDate(2024, time.January, 3),
			timeslot.NewDate(2024, time.January, 8),
			timeslot.NewDate(2024, time.January, 10),
		}
		if len(occurrences) != len(wantDates) {
			t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(occurrences))
		}
		for i, occurrence := range occurrences {
			if occurrence.Date != wantDates[i] {
				t.Errorf("occurrence %d on %v, want %v", i, occurrence.Date, wantDates[i])
			}
		}
		// Wednesday occurrences carry the Wednesday window, not the request window.
		if occurrences[1].Start != mustTime(t, "13:00") || occurrences[1].End != mustTime(t, "14:30") {
			t.Errorf("wednesday window %v-%v, want 13:00-14:30", occurrences[1].Start, occurrences[1].End)
		}
	})

	t.Run("weekly schedule skips enabled days with malformed windows", func(t *testing.T) {
		t.Parallel()

		windows := map[time.Weekday]Window{
			time.Monday:  {Start: nine, End: ten, Enabled: true},
			time.Tuesday: {Start: ten, End: nine, Enabled: true},
		}
		until := timeslot.NewDate(2024, time.January, 2)

		occurrences, err := expander.Expand(monday, nine, ten, WeeklySchedule(windows, until))
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(occurrences) != 1 {
			t.Fatalf("expected malformed tuesday to be skipped, got %d occurrences", len(occurrences))
		}
		if occurrences[0].Date != monday {
			t.Fatalf("unexpected occurrence date %v", occurrences[0].Date)
		}
	})
}

func TestExpander_ExpandErrors(t *testing.T) {
	t.Parallel()

	expander := NewExpander(0)
	monday := timeslot.NewDate(2024, time.January, 1)
	nine := timeslot.TimeOfDay(9 * 60)
	ten := timeslot.TimeOfDay(10 * 60)

	t.Run("inverted window", func(t *testing.T) {
		t.Parallel()

		if _, err := expander.Expand(monday, ten, nine, None()); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
		if _, err := expander.Expand(monday, nine, nine, Daily(monday)); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("zero-length window: expected ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("until before start", func(t *testing.T) {
		t.Parallel()

		yesterday := timeslot.NewDate(2023, time.December, 31)
		if _, err := expander.Expand(monday, nine, ten, Daily(yesterday)); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}
		if _, err := expander.Expand(monday, nine, ten, Weekly(yesterday)); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("weekly: expected ErrInvalidRange, got %v", err)
		}
	})

	t.Run("horizon cap", func(t *testing.T) {
		t.Parallel()

		tooFar := monday.AddDays(DefaultHorizonDays)
		if _, err := expander.Expand(monday, nine, ten, Daily(tooFar)); !errors.Is(err, ErrRangeTooLarge) {
			t.Fatalf("expected ErrRangeTooLarge, got %v", err)
		}

		nearCap := monday.AddDays(DefaultHorizonDays - 1)
		if _, err := expander.Expand(monday, nine, ten, Daily(nearCap)); err != nil {
			t.Fatalf("expansion within horizon failed: %v", err)
		}
	})

	t.Run("custom horizon", func(t *testing.T) {
		t.Parallel()

		tight := NewExpander(7)
		if _, err := tight.Expand(monday, nine, ten, Daily(monday.AddDays(7))); !errors.Is(err, ErrRangeTooLarge) {
			t.Fatalf("expected ErrRangeTooLarge, got %v", err)
		}
	})

	t.Run("weekly schedule with nothing enabled", func(t *testing.T) {
		t.Parallel()

		windows := map[time.Weekday]Window{
			time.Monday: {Start: nine, End: ten, Enabled: false},
		}
		spec := WeeklySchedule(windows, monday.AddDays(7))
		if _, err := expander.Expand(monday, nine, ten, spec); !errors.Is(err, ErrNoEnabledDay) {
			t.Fatalf("expected ErrNoEnabledDay, got %v", err)
		}

		empty := WeeklySchedule(nil, monday.AddDays(7))
		if _, err := expander.Expand(monday, nine, ten, empty); !errors.Is(err, ErrNoEnabledDay) {
			t.Fatalf("nil windows: expected ErrNoEnabledDay, got %v", err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		if _, err := expander.Expand(monday, nine, ten, Spec{Kind: Kind(99)}); !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("expected ErrInvalidKind, got %v", err)
		}
	})
}

func TestExpander_ExpandIsPure(t *testing.T) {
	t.Parallel()

	expander := NewExpander(0)
	monday := timeslot.NewDate(2024, time.January, 1)
	spec := Daily(timeslot.NewDate(2024, time.January, 14))

	first, err := expander.Expand(monday, 540, 600, spec)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	second, err := expander.Expand(monday, 540, 600, spec)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeat expansion changed length: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repeat expansion differs at %d: %+v != %+v", i, first[i], second[i])
		}
	}
}
