package recurrence

import (
	"errors"

	"github.com/example/room-reservation/internal/timeslot"
)

// ErrInvalidKind indicates the spec kind is outside the closed variant set.
var ErrInvalidKind = errors.New("recurrence: invalid kind")

// ErrInvalidWindow indicates a requested window has start >= end.
var ErrInvalidWindow = errors.New("recurrence: window start must be before end")

// ErrInvalidRange indicates the recurrence end precedes the request date.
var ErrInvalidRange = errors.New("recurrence: until precedes the start date")

// ErrNoEnabledDay indicates a weekly schedule with no enabled weekday.
var ErrNoEnabledDay = errors.New("recurrence: no weekday is enabled")

// ErrRangeTooLarge indicates the expansion span exceeds the horizon cap.
var ErrRangeTooLarge = errors.New("recurrence: expansion range exceeds the horizon")

// DefaultHorizonDays bounds how far into the future a request may expand:
// two years, leap day included.
const DefaultHorizonDays = 731

// Occurrence is one concrete date and time window produced by expansion.
type Occurrence struct {
	Date  timeslot.Date
	Start timeslot.TimeOfDay
	End   timeslot.TimeOfDay
}

// Interval returns the occurrence as a half-open interval value.
func (o Occurrence) Interval() timeslot.Interval {
	return timeslot.Interval{Date: o.Date, Start: o.Start, End: o.End}
}

// Expander turns a booking request into its concrete occurrences. Expansion
// is a pure function of its inputs; the expander carries only the horizon
// bound.
type Expander struct {
	horizonDays int
}

// NewExpander constructs an expander. When horizonDays is not positive the
// default horizon is applied.
func NewExpander(horizonDays int) *Expander {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Expander{horizonDays: horizonDays}
}

// Expand produces the ordered, finite occurrence set for a request.
//
// Semantics per kind:
//   - KindNone yields exactly one occurrence on date.
//   - KindDaily yields one occurrence per day in [date, until] inclusive.
//   - KindWeekly yields one occurrence every 7 days from date through until.
//   - KindWeeklySchedule walks every day in [date, until] and emits an
//     occurrence for each day whose weekday window is enabled, using that
//     weekday's own window. Enabled windows that are malformed are skipped
//     rather than rejected, tolerating partially filled schedules.
//
// Results are ordered by date ascending.
func (e *Expander) Expand(date timeslot.Date, start, end timeslot.TimeOfDay, spec Spec) ([]Occurrence, error) {
	switch spec.Kind {
	case KindNone:
		if err := validateWindow(start, end); err != nil {
			return nil, err
		}
		return []Occurrence{{Date: date, Start: start, End: end}}, nil

	case KindDaily:
		if err := validateWindow(start, end); err != nil {
			return nil, err
		}
		if err := e.validateRange(date, spec.Until); err != nil {
			return nil, err
		}
		return e.stepped(date, spec.Until, start, end, 1), nil

	case KindWeekly:
		if err := validateWindow(start, end); err != nil {
			return nil, err
		}
		if err := e.validateRange(date, spec.Until); err != nil {
			return nil, err
		}
		return e.stepped(date, spec.Until, start, end, 7), nil

	case KindWeeklySchedule:
		if err := e.validateRange(date, spec.Until); err != nil {
			return nil, err
		}
		if !spec.hasEnabledWindow() {
			return nil, ErrNoEnabledDay
		}
		return e.weeklySchedule(date, spec), nil

	default:
		return nil, ErrInvalidKind
	}
}

func validateWindow(start, end timeslot.TimeOfDay) error {
	if !start.InRange() || !end.InRange() || start >= end {
		return ErrInvalidWindow
	}
	return nil
}

func (e *Expander) validateRange(date, until timeslot.Date) error {
	if until.Before(date) {
		return ErrInvalidRange
	}
	if date.DaysUntil(until) >= e.horizonDays {
		return ErrRangeTooLarge
	}
	return nil
}

func (e *Expander) stepped(date, until timeslot.Date, start, end timeslot.TimeOfDay, stepDays int) []Occurrence {
	occurrences := make([]Occurrence, 0)
	for current := date; !current.After(until); current = current.AddDays(stepDays) {
		occurrences = append(occurrences, Occurrence{Date: current, Start: start, End: end})
	}
	return occurrences
}

func (e *Expander) weeklySchedule(date timeslot.Date, spec Spec) []Occurrence {
	occurrences := make([]Occurrence, 0)
	for current := date; !current.After(spec.Until); current = current.AddDays(1) {
		window, ok := spec.Windows[current.Weekday()]
		if !ok || !window.Enabled {
			continue
		}
		if validateWindow(window.Start, window.End) != nil {
			continue
		}
		occurrences = append(occurrences, Occurrence{Date: current, Start: window.Start, End: window.End})
	}
	return occurrences
}
