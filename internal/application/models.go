package application

import (
	"time"

	"github.com/example/room-reservation/internal/recurrence"
	"github.com/example/room-reservation/internal/timeslot"
)

// Principal represents the authenticated user invoking a service method.
// It is passed explicitly into every call; services hold no ambient session
// state.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// ReservationStatus is the lifecycle state of a committed reservation.
type ReservationStatus string

const (
	// StatusPending marks a reservation awaiting approval. Pending
	// reservations block conflicting requests.
	StatusPending ReservationStatus = "pending"
	// StatusApproved marks a confirmed reservation.
	StatusApproved ReservationStatus = "approved"
	// StatusRejected marks a refused reservation. Rejected reservations free
	// their slot and never block.
	StatusRejected ReservationStatus = "rejected"
)

// valid reports whether the status is a member of the closed set.
func (s ReservationStatus) valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// canTransitionTo encodes the lifecycle state machine: pending may be
// approved or rejected, approved may still be rejected administratively, and
// nothing leaves rejected.
func (s ReservationStatus) canTransitionTo(next ReservationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusRejected
	default:
		return false
	}
}

// Reservation is a persisted booking of one room for one occurrence.
type Reservation struct {
	ID          string
	RoomID      string
	RequesterID string
	SeriesID    *string
	Date        timeslot.Date
	Start       timeslot.TimeOfDay
	End         timeslot.TimeOfDay
	Title       string
	Status      ReservationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Interval returns the occupied half-open interval of the reservation.
func (r Reservation) Interval() timeslot.Interval {
	return timeslot.Interval{Date: r.Date, Start: r.Start, End: r.End}
}

// BookingInput captures caller provided booking fields. Start and End are the
// request window; for weekly schedules the per-weekday windows in Recurrence
// take precedence.
type BookingInput struct {
	RoomID     string
	Date       timeslot.Date
	Start      timeslot.TimeOfDay
	End        timeslot.TimeOfDay
	Title      string
	Recurrence recurrence.Spec
}

// ScheduleParams wraps the data required to commit a booking request.
type ScheduleParams struct {
	Principal Principal
	Input     BookingInput
}

// AvailabilityParams wraps the data for a read-only availability probe.
type AvailabilityParams struct {
	Principal Principal
	Input     BookingInput
}

// ListReservationsParams wraps reservation listing filters.
type ListReservationsParams struct {
	Principal   Principal
	RoomID      string
	RequesterID string
	From        *timeslot.Date
	To          *timeslot.Date
}

// UpdateReservationStatusParams wraps a lifecycle transition request.
type UpdateReservationStatusParams struct {
	Principal     Principal
	ReservationID string
	Status        ReservationStatus
}

// ApprovalPolicy decides the initial lifecycle status of newly committed
// reservations. The booking core accepts the decision as input; it never
// decides approval itself.
type ApprovalPolicy func(principal Principal) ReservationStatus

// DefaultApprovalPolicy auto-approves administrators and leaves everyone
// else pending.
func DefaultApprovalPolicy(principal Principal) ReservationStatus {
	if principal.IsAdmin {
		return StatusApproved
	}
	return StatusPending
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name       string
	Location   string
	Capacity   int
	Facilities *string
}

// Room represents a catalog entry for a bookable room.
type Room struct {
	ID         string
	Name       string
	Location   string
	Capacity   int
	Facilities *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// UserInput captures caller provided user attributes. Password is consumed
// on create and ignored as empty on update.
type UserInput struct {
	Email       string
	DisplayName string
	IsAdmin     bool
	Password    string
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to rotate a session token.
type RefreshSessionParams struct {
	Token string
}

// RefreshSessionResult carries the rotated session.
type RefreshSessionResult struct {
	Session Session
}
