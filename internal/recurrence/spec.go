package recurrence

import (
	"time"

	"github.com/example/room-reservation/internal/timeslot"
)

// Kind identifies the repetition pattern of a booking request. The set is
// closed: the expander dispatches on it with an exhaustive switch.
type Kind int

const (
	// KindNone requests a single occurrence on the request date.
	KindNone Kind = iota
	// KindDaily requests one occurrence per calendar day up to Until.
	KindDaily
	// KindWeekly requests one occurrence every 7 days up to Until.
	KindWeekly
	// KindWeeklySchedule requests occurrences on enabled weekdays, each with
	// its own time window, for every day up to Until.
	KindWeeklySchedule
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDaily:
		return "daily"
	case KindWeekly:
		return "weekly"
	case KindWeeklySchedule:
		return "weekly_schedule"
	default:
		return "unknown"
	}
}

// Window is the time range requested for one weekday in a weekly schedule.
// Disabled windows are carried but never expanded.
type Window struct {
	Start   timeslot.TimeOfDay
	End     timeslot.TimeOfDay
	Enabled bool
}

// Spec describes how a booking request repeats. Until bounds every repeating
// kind inclusively; Windows is consulted only by KindWeeklySchedule.
type Spec struct {
	Kind    Kind
	Until   timeslot.Date
	Windows map[time.Weekday]Window
}

// None returns the spec for a single, non-repeating occurrence.
func None() Spec {
	return Spec{Kind: KindNone}
}

// Daily returns a spec repeating every day through until, inclusive.
func Daily(until timeslot.Date) Spec {
	return Spec{Kind: KindDaily, Until: until}
}

// Weekly returns a spec repeating every 7 days through until, inclusive.
func Weekly(until timeslot.Date) Spec {
	return Spec{Kind: KindWeekly, Until: until}
}

// WeeklySchedule returns a spec with an independent window per weekday.
func WeeklySchedule(windows map[time.Weekday]Window, until timeslot.Date) Spec {
	return Spec{Kind: KindWeeklySchedule, Until: until, Windows: windows}
}

// Repeats reports whether the spec generates more than a single fixed
// occurrence. Batches from repeating specs share one series identifier.
func (s Spec) Repeats() bool {
	return s.Kind != KindNone
}

func (s Spec) hasEnabledWindow() bool {
	for _, window := range s.Windows {
		if window.Enabled {
			return true
		}
	}
	return false
}
