package conflict

import "github.com/example/room-reservation/internal/timeslot"

// Booking is the view of a reservation the checker needs: identity plus its
// occupied interval on one room. Callers supply only bookings that can block
// (rejected reservations must be filtered out before the scan).
type Booking struct {
	ID     string
	RoomID string
	Slot   timeslot.Interval
}

// Conflict names the existing booking that blocks a candidate.
type Conflict struct {
	BlockingID string
	RoomID     string
	Slot       timeslot.Interval
}

// FindConflict returns the first existing booking whose interval overlaps the
// candidate under the half-open rule, or nil when the candidate is clear.
// Existing bookings are scanned in the order given, so callers control which
// blocker is reported when several overlap. Bookings for other rooms never
// conflict.
func FindConflict(existing []Booking, candidate Booking) *Conflict {
	for _, booking := range existing {
		if booking.RoomID != candidate.RoomID {
			continue
		}
		if booking.Slot.Overlaps(candidate.Slot) {
			return &Conflict{
				BlockingID: booking.ID,
				RoomID:     booking.RoomID,
				Slot:       booking.Slot,
			}
		}
	}
	return nil
}
