package timeslot

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidDate indicates a date string could not be parsed.
var ErrInvalidDate = errors.New("timeslot: invalid date")

// ErrInvalidTimeOfDay indicates a time-of-day string could not be parsed.
var ErrInvalidTimeOfDay = errors.New("timeslot: invalid time of day")

// Date identifies a single calendar day with no time component and no
// timezone. The facility and its users share one wall clock, so dates are
// compared purely by their calendar value.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf extracts the calendar date of the provided instant in its location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return DateOf(t), nil
}

// String renders the date in 2006-01-02 form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of week for the date.
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

// Compare orders dates chronologically: -1 when d precedes other, 0 when
// equal, +1 when d follows other.
func (d Date) Compare(other Date) int {
	switch a, b := d.time(), other.time(); {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Before reports whether d precedes other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d follows other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// DaysUntil returns the number of calendar days from d to other. The result
// is negative when other precedes d.
func (d Date) DaysUntil(other Date) int {
	return int(other.time().Sub(d.time()) / (24 * time.Hour))
}

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a time in 15:04 form.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// String renders the time in 15:04 form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// InRange reports whether the value falls within a single day.
func (t TimeOfDay) InRange() bool {
	return t >= 0 && t <= 24*60
}

// Interval is a half-open time range [Start, End) on one calendar date.
// The start instant is included and the end instant is excluded, so two
// intervals that merely touch at an endpoint do not overlap.
type Interval struct {
	Date  Date
	Start TimeOfDay
	End   TimeOfDay
}

// Valid reports whether the interval has a strictly positive duration and
// both endpoints fall within the day. Zero-length intervals are invalid.
func (iv Interval) Valid() bool {
	return iv.Start.InRange() && iv.End.InRange() && iv.Start < iv.End
}

// Overlaps reports whether two intervals share any instant. Intervals on
// different dates never overlap.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.Date != other.Date {
		return false
	}
	return iv.Start < other.End && other.Start < iv.End
}
