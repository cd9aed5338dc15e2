package timeslot

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	t.Run("parses a calendar date", func(t *testing.T) {
		t.Parallel()

		date, err := ParseDate("2024-01-15")
		if err != nil {
			t.Fatalf("ParseDate returned error: %v", err)
		}
		if date != NewDate(2024, time.January, 15) {
			t.Fatalf("unexpected date: %v", date)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()

		for _, value := range []string{"", "2024/01/15", "15-01-2024", "2024-13-01"} {
			if _, err := ParseDate(value); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", value, err)
			}
		}
	})

	t.Run("round trips through String", func(t *testing.T) {
		t.Parallel()

		date := NewDate(2024, time.March, 4)
		parsed, err := ParseDate(date.String())
		if err != nil {
			t.Fatalf("ParseDate returned error: %v", err)
		}
		if parsed != date {
			t.Fatalf("round trip mismatch: %v != %v", parsed, date)
		}
	})
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()

	t.Run("AddDays crosses month and year boundaries", func(t *testing.T) {
		t.Parallel()

		if got := NewDate(2024, time.January, 31).AddDays(1); got != NewDate(2024, time.February, 1) {
			t.Errorf("month boundary: got %v", got)
		}
		if got := NewDate(2023, time.December, 31).AddDays(1); got != NewDate(2024, time.January, 1) {
			t.Errorf("year boundary: got %v", got)
		}
		// 2024 is a leap year.
		if got := NewDate(2024, time.February, 28).AddDays(1); got != NewDate(2024, time.February, 29) {
			t.Errorf("leap day: got %v", got)
		}
	})

	t.Run("DaysUntil counts inclusive spans correctly", func(t *testing.T) {
		t.Parallel()

		start := NewDate(2024, time.January, 1)
		if got := start.DaysUntil(NewDate(2024, time.January, 5)); got != 4 {
			t.Errorf("DaysUntil = %d, want 4", got)
		}
		if got := start.DaysUntil(start); got != 0 {
			t.Errorf("DaysUntil self = %d, want 0", got)
		}
		if got := start.DaysUntil(NewDate(2023, time.December, 30)); got != -2 {
			t.Errorf("DaysUntil backwards = %d, want -2", got)
		}
	})

	t.Run("Weekday matches the calendar", func(t *testing.T) {
		t.Parallel()

		// 2024-01-01 was a Monday.
		if got := NewDate(2024, time.January, 1).Weekday(); got != time.Monday {
			t.Errorf("Weekday = %v, want Monday", got)
		}
	})

	t.Run("Compare orders chronologically", func(t *testing.T) {
		t.Parallel()

		earlier := NewDate(2024, time.January, 1)
		later := NewDate(2024, time.February, 1)
		if !earlier.Before(later) || later.Before(earlier) {
			t.Error("Before ordering is wrong")
		}
		if !later.After(earlier) {
			t.Error("After ordering is wrong")
		}
	})
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "00:00", want: 0},
		{input: "09:30", want: 9*60 + 30},
		{input: "23:59", want: 23*60 + 59},
		{input: "24:00", wantErr: true},
		{input: "9am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidTimeOfDay) {
				t.Errorf("ParseTimeOfDay(%q) = %v, want ErrInvalidTimeOfDay", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) returned error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestIntervalOverlaps(t *testing.T) {
	t.Parallel()

	date := NewDate(2024, time.January, 10)
	at := func(start, end string) Interval {
		s, err := ParseTimeOfDay(start)
		if err != nil {
			t.Fatalf("bad start %q: %v", start, err)
		}
		e, err := ParseTimeOfDay(end)
		if err != nil {
			t.Fatalf("bad end %q: %v", end, err)
		}
		return Interval{Date: date, Start: s, End: e}
	}

	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "touching endpoints do not overlap", a: at("09:00", "10:00"), b: at("10:00", "11:00"), want: false},
		{name: "partial overlap", a: at("09:00", "10:30"), b: at("10:00", "11:00"), want: true},
		{name: "containment counts as overlap", a: at("09:00", "12:00"), b: at("10:00", "11:00"), want: true},
		{name: "identical intervals overlap", a: at("09:00", "10:00"), b: at("09:00", "10:00"), want: true},
		{name: "disjoint ranges", a: at("09:00", "10:00"), b: at("13:00", "14:00"), want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			// Overlap is symmetric.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Errorf("reversed Overlaps = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("different dates never overlap", func(t *testing.T) {
		t.Parallel()

		a := at("09:00", "10:00")
		b := a
		b.Date = date.AddDays(1)
		if a.Overlaps(b) {
			t.Error("intervals on different dates reported as overlapping")
		}
	})
}

func TestIntervalValid(t *testing.T) {
	t.Parallel()

	date := NewDate(2024, time.January, 10)
	if (Interval{Date: date, Start: 540, End: 540}).Valid() {
		t.Error("zero-length interval reported valid")
	}
	if (Interval{Date: date, Start: 600, End: 540}).Valid() {
		t.Error("inverted interval reported valid")
	}
	if !(Interval{Date: date, Start: 540, End: 600}).Valid() {
		t.Error("well-formed interval reported invalid")
	}
}
