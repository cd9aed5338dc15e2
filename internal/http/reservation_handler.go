package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/recurrence"
	"github.com/example/room-reservation/internal/timeslot"
)

type reservationService interface {
	Schedule(ctx context.Context, params application.ScheduleParams) ([]application.Reservation, error)
	CheckAvailability(ctx context.Context, params application.AvailabilityParams) ([]timeslot.Date, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	UpdateReservationStatus(ctx context.Context, params application.UpdateReservationStatusParams) (application.Reservation, error)
	CancelReservation(ctx context.Context, principal application.Principal, reservationID string) error
}

type ReservationHandler struct {
	service   reservationService
	responder responder
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// Create commits a booking request: the recurrence is expanded and every
// occurrence inserted atomically, or the request fails as a whole.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	committed, err := h.service.Schedule(r.Context(), application.ScheduleParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, listReservationsResponse{
		Reservations: toReservationDTOs(committed),
	})
}

// CheckAvailability probes a request without writing anything.
func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	conflicting, err := h.service.CheckAvailability(r.Context(), application.AvailabilityParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dates := make([]string, 0, len(conflicting))
	for _, date := range conflicting {
		dates = append(dates, date.String())
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Available:        len(dates) == 0,
		ConflictingDates: dates,
	})
}

// List enumerates reservations matching the query filters.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildListParams(r.URL.Query(), principal)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

// UpdateStatus applies an administrator approval or rejection.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	updated, err := h.service.UpdateReservationStatus(r.Context(), application.UpdateReservationStatusParams{
		Principal:     principal,
		ReservationID: reservationID,
		Status:        application.ReservationStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(updated))
}

// Delete cancels a reservation.
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.CancelReservation(r.Context(), principal, reservationID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type reservationRequest struct {
	RoomID     string         `json:"room_id"`
	Date       string         `json:"date"`
	StartTime  string         `json:"start_time"`
	EndTime    string         `json:"end_time"`
	Title      string         `json:"title"`
	Recurrence *recurrenceDTO `json:"recurrence,omitempty"`
}

type recurrenceDTO struct {
	Type    string               `json:"type"`
	Until   string               `json:"until,omitempty"`
	Windows map[string]windowDTO `json:"windows,omitempty"`
}

type windowDTO struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Enabled   bool   `json:"enabled"`
}

// toInput parses the wire representation. Malformed dates and times surface
// as field-level validation errors; the structural recurrence rules are left
// to the expander.
func (req reservationRequest) toInput() (application.BookingInput, error) {
	fieldErrors := make(map[string]string)

	date, err := timeslot.ParseDate(req.Date)
	if err != nil && strings.TrimSpace(req.Date) != "" {
		fieldErrors["date"] = "date must be in YYYY-MM-DD form"
	}

	start, err := timeslot.ParseTimeOfDay(req.StartTime)
	if err != nil {
		fieldErrors["start_time"] = "start time must be in HH:MM form"
	}
	end, err := timeslot.ParseTimeOfDay(req.EndTime)
	if err != nil {
		fieldErrors["end_time"] = "end time must be in HH:MM form"
	}

	spec, specErrors := parseRecurrence(req.Recurrence)
	for field, message := range specErrors {
		fieldErrors[field] = message
	}

	if len(fieldErrors) > 0 {
		return application.BookingInput{}, &application.ValidationError{FieldErrors: fieldErrors}
	}

	return application.BookingInput{
		RoomID:     strings.TrimSpace(req.RoomID),
		Date:       date,
		Start:      start,
		End:        end,
		Title:      req.Title,
		Recurrence: spec,
	}, nil
}

func parseRecurrence(dto *recurrenceDTO) (recurrence.Spec, map[string]string) {
	if dto == nil || dto.Type == "" || dto.Type == "none" {
		return recurrence.None(), nil
	}

	fieldErrors := make(map[string]string)

	until, err := timeslot.ParseDate(dto.Until)
	if err != nil {
		fieldErrors["recurrence.until"] = "until must be in YYYY-MM-DD form"
	}

	switch dto.Type {
	case "daily":
		if len(fieldErrors) > 0 {
			return recurrence.Spec{}, fieldErrors
		}
		return recurrence.Daily(until), nil
	case "weekly":
		if len(fieldErrors) > 0 {
			return recurrence.Spec{}, fieldErrors
		}
		return recurrence.Weekly(until), nil
	case "weekly_schedule":
		windows := make(map[time.Weekday]recurrence.Window, len(dto.Windows))
		for name, window := range dto.Windows {
			weekday, ok := parseWeekday(name)
			if !ok {
				fieldErrors["recurrence.windows"] = "unknown weekday: " + name
				continue
			}
			start, startErr := timeslot.ParseTimeOfDay(window.StartTime)
			end, endErr := timeslot.ParseTimeOfDay(window.EndTime)
			if window.Enabled && (startErr != nil || endErr != nil) {
				fieldErrors["recurrence.windows."+name] = "window times must be in HH:MM form"
				continue
			}
			windows[weekday] = recurrence.Window{Start: start, End: end, Enabled: window.Enabled}
		}
		if len(fieldErrors) > 0 {
			return recurrence.Spec{}, fieldErrors
		}
		return recurrence.WeeklySchedule(windows, until), nil
	default:
		fieldErrors["recurrence.type"] = "type must be none, daily, weekly, or weekly_schedule"
		return recurrence.Spec{}, fieldErrors
	}
}

func parseWeekday(name string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	default:
		return time.Sunday, false
	}
}

func buildListParams(query url.Values, principal application.Principal) (application.ListReservationsParams, error) {
	params := application.ListReservationsParams{
		Principal:   principal,
		RoomID:      strings.TrimSpace(query.Get("room_id")),
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
	}

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, err := timeslot.ParseDate(raw)
		if err != nil {
			return application.ListReservationsParams{}, errBadRequestBody
		}
		params.From = &from
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		to, err := timeslot.ParseDate(raw)
		if err != nil {
			return application.ListReservationsParams{}, errBadRequestBody
		}
		params.To = &to
	}
	return params, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

type reservationDTO struct {
	ID          string  `json:"id"`
	RoomID      string  `json:"room_id"`
	RequesterID string  `json:"requester_id"`
	SeriesID    *string `json:"series_id,omitempty"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type availabilityResponse struct {
	Available        bool     `json:"available"`
	ConflictingDates []string `json:"conflicting_dates"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:          reservation.ID,
		RoomID:      reservation.RoomID,
		RequesterID: reservation.RequesterID,
		SeriesID:    reservation.SeriesID,
		Date:        reservation.Date.String(),
		StartTime:   reservation.Start.String(),
		EndTime:     reservation.End.String(),
		Title:       reservation.Title,
		Status:      string(reservation.Status),
		CreatedAt:   reservation.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   reservation.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	dtos := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		dtos = append(dtos, toReservationDTO(reservation))
	}
	return dtos
}
