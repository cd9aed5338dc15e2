package notification

import "time"

// EventKind identifies a booking lifecycle event delivered to the external
// notification sink.
type EventKind string

const (
	// EventBatchCreated is emitted once per successful schedule call,
	// describing the whole committed batch.
	EventBatchCreated EventKind = "batch_created"
	// EventReservationApproved is emitted when a pending reservation is approved.
	EventReservationApproved EventKind = "reservation_approved"
	// EventReservationRejected is emitted when a reservation is rejected.
	EventReservationRejected EventKind = "reservation_rejected"
	// EventReservationCancelled is emitted when a reservation is cancelled.
	EventReservationCancelled EventKind = "reservation_cancelled"
)

// Event is the payload handed to the notification collaborator. The service
// only produces these; delivery is the sink's concern.
type Event struct {
	Kind            EventKind `json:"kind"`
	RoomID          string    `json:"room_id"`
	RequesterID     string    `json:"requester_id"`
	ReservationID   string    `json:"reservation_id,omitempty"`
	SeriesID        string    `json:"series_id,omitempty"`
	OccurrenceCount int       `json:"occurrence_count,omitempty"`
	FirstDate       string    `json:"first_date,omitempty"`
	LastDate        string    `json:"last_date,omitempty"`
	EmittedAt       time.Time `json:"emitted_at"`
}
