package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/notification"
)

type eventSource interface {
	RecentEvents(principal application.Principal) ([]notification.Event, error)
}

// EventsHandler exposes the recently emitted lifecycle events to
// administrators for inspection.
type EventsHandler struct {
	source    eventSource
	responder responder
}

func NewEventsHandler(source eventSource, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{source: source, responder: newResponder(defaultLogger(logger))}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.source == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	events, err := h.source.RecentEvents(principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, toEventDTO(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: dtos})
}

type eventDTO struct {
	Kind            string `json:"kind"`
	RoomID          string `json:"room_id"`
	RequesterID     string `json:"requester_id"`
	ReservationID   string `json:"reservation_id,omitempty"`
	SeriesID        string `json:"series_id,omitempty"`
	OccurrenceCount int    `json:"occurrence_count,omitempty"`
	FirstDate       string `json:"first_date,omitempty"`
	LastDate        string `json:"last_date,omitempty"`
	EmittedAt       string `json:"emitted_at"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

func toEventDTO(event notification.Event) eventDTO {
	return eventDTO{
		Kind:            string(event.Kind),
		RoomID:          event.RoomID,
		RequesterID:     event.RequesterID,
		ReservationID:   event.ReservationID,
		SeriesID:        event.SeriesID,
		OccurrenceCount: event.OccurrenceCount,
		FirstDate:       event.FirstDate,
		LastDate:        event.LastDate,
		EmittedAt:       event.EmittedAt.UTC().Format(time.RFC3339Nano),
	}
}
