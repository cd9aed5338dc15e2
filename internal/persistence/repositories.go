package persistence

import (
	"context"
	"time"

	"github.com/example/room-reservation/internal/timeslot"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation listings. Zero-valued fields are
// ignored.
type ReservationFilter struct {
	RoomID      string
	RequesterID string
	SeriesID    string
	From        *timeslot.Date
	To          *timeslot.Date
	Statuses    []string
}

// ReservationRepository stores committed reservations.
//
// CreateReservationBatch must be atomic: either every reservation in the
// batch is inserted or none is. Implementations re-check every slot against
// existing non-rejected reservations inside the same transaction and return
// *OverlapError naming the blocking row when any slot is taken, closing the
// check-then-act window left by callers that validated beforehand.
type ReservationRepository interface {
	CreateReservationBatch(ctx context.Context, batch []Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	UpdateReservationStatus(ctx context.Context, id, status string, updatedAt time.Time) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservationsForRoomDate(ctx context.Context, roomID string, date timeslot.Date) ([]Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
