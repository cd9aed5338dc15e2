package persistence

import (
	"time"

	"github.com/example/room-reservation/internal/timeslot"
)

// Reservation lifecycle statuses as stored.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// User represents an account able to request reservations.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	IsAdmin      bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable room catalog entry.
type Room struct {
	ID         string
	Name       string
	Location   string
	Capacity   int
	Facilities *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Reservation is the authoritative record of one committed occurrence.
// SeriesID ties together every reservation created from one recurring
// request and is nil for single bookings.
type Reservation struct {
	ID          string
	RoomID      string
	RequesterID string
	SeriesID    *string
	Date        timeslot.Date
	Start       timeslot.TimeOfDay
	End         timeslot.TimeOfDay
	Title       string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Interval returns the occupied half-open interval of the reservation.
func (r Reservation) Interval() timeslot.Interval {
	return timeslot.Interval{Date: r.Date, Start: r.Start, End: r.End}
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
