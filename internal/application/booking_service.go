package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/conflict"
	"github.com/example/room-reservation/internal/notification"
	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/recurrence"
	"github.com/example/room-reservation/internal/timeslot"
)

// ReservationStore captures the persistence interactions needed by the
// booking service. Lookups are point queries scoped by (room, date); the
// batch insert is atomic and re-checks overlap inside its transaction.
type ReservationStore interface {
	CreateReservationBatch(ctx context.Context, batch []persistence.Reservation) error
	GetReservation(ctx context.Context, id string) (persistence.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id, status string, updatedAt time.Time) (persistence.Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	ListReservationsForRoomDate(ctx context.Context, roomID string, date timeslot.Date) ([]persistence.Reservation, error)
	ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error)
}

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	RoomExists(ctx context.Context, id string) (bool, error)
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// EventPublisher delivers booking lifecycle events to the notification sink.
type EventPublisher interface {
	Publish(ctx context.Context, event notification.Event) error
}

// BookingService composes the recurrence expander and conflict checker to
// validate a booking request as a unit and, only when every occurrence is
// clear, commit the whole batch.
type BookingService struct {
	reservations ReservationStore
	rooms        RoomCatalog
	users        UserDirectory
	expander     *recurrence.Expander
	policy       ApprovalPolicy
	publisher    EventPublisher
	events       *eventLog
	locks        *slotLocks
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// BookingServiceConfig wires dependencies for the booking service. Expander
// defaults to the standard horizon; Policy defaults to DefaultApprovalPolicy;
// a nil Publisher drops events after recording them in the event log.
type BookingServiceConfig struct {
	Reservations ReservationStore
	Rooms        RoomCatalog
	Users        UserDirectory
	Expander     *recurrence.Expander
	Policy       ApprovalPolicy
	Publisher    EventPublisher
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewBookingService constructs a booking service.
func NewBookingService(cfg BookingServiceConfig) *BookingService {
	if cfg.Expander == nil {
		cfg.Expander = recurrence.NewExpander(0)
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultApprovalPolicy
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = func() string { return "" }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &BookingService{
		reservations: cfg.Reservations,
		rooms:        cfg.Rooms,
		users:        cfg.Users,
		expander:     cfg.Expander,
		policy:       cfg.Policy,
		publisher:    cfg.Publisher,
		events:       newEventLog(0, 0, cfg.Now),
		locks:        newSlotLocks(),
		idGenerator:  cfg.IDGenerator,
		now:          cfg.Now,
		logger:       defaultLogger(cfg.Logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Schedule validates and commits a booking request as a unit.
//
// The call runs in two phases. Expansion and validation happen before any
// write: every occurrence is checked in date order against the non-rejected
// reservations of its (room, date), and the first conflict aborts the whole
// request with a ConflictError naming the blocker. Only a fully clear batch
// reaches the commit phase, which inserts every occurrence in one storage
// transaction. Advisory locks on each (room, date) the batch touches span
// both phases, so concurrent requests for the same slots serialize while
// disjoint rooms and dates proceed in parallel.
func (s *BookingService) Schedule(ctx context.Context, params ScheduleParams) (committed []Reservation, err error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	input := params.Input
	principal := params.Principal

	logger := s.loggerWith(ctx, "Schedule",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
		"date", input.Date.String(),
		"recurrence", input.Recurrence.Kind.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "schedule failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "schedule committed", "occurrences", len(committed))
	}()

	if err := s.validateBookingInput(ctx, principal, input, true); err != nil {
		return nil, err
	}

	occurrences, err := s.expander.Expand(input.Date, input.Start, input.End, input.Recurrence)
	if err != nil {
		return nil, err
	}

	var seriesID *string
	if input.Recurrence.Repeats() {
		id := s.idGenerator()
		seriesID = &id
	}

	keys := make([]string, 0, len(occurrences))
	for _, occurrence := range occurrences {
		keys = append(keys, slotLockKey(input.RoomID, occurrence.Date))
	}
	held := s.locks.acquire(keys)
	defer s.locks.release(held)

	// Validate phase: no writes happen until every occurrence is clear.
	for _, occurrence := range occurrences {
		blocking, err := s.findBlocking(ctx, input.RoomID, occurrence)
		if err != nil {
			return nil, err
		}
		if blocking != nil {
			return nil, &ConflictError{Occurrence: occurrence, Blocking: *blocking}
		}
	}

	// The caller may cancel freely before the commit phase starts.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := s.policy(principal)
	if !status.valid() {
		return nil, fmt.Errorf("approval policy returned invalid status %q", status)
	}

	createdAt := s.now()
	batch := make([]persistence.Reservation, 0, len(occurrences))
	for _, occurrence := range occurrences {
		batch = append(batch, persistence.Reservation{
			ID:          s.idGenerator(),
			RoomID:      input.RoomID,
			RequesterID: principal.UserID,
			SeriesID:    seriesID,
			Date:        occurrence.Date,
			Start:       occurrence.Start,
			End:         occurrence.End,
			Title:       strings.TrimSpace(input.Title),
			Status:      string(status),
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		})
	}

	if err := s.reservations.CreateReservationBatch(ctx, batch); err != nil {
		var overlap *persistence.OverlapError
		if errors.As(err, &overlap) {
			// A concurrent writer won the slot between validation and
			// commit; the store treats that identically to a detected
			// conflict and nothing was inserted.
			blocking := toReservation(overlap.Blocking)
			return nil, &ConflictError{
				Occurrence: occurrenceFor(occurrences, overlap.Blocking.Date),
				Blocking:   blocking,
			}
		}
		return nil, storageError(err)
	}

	committed = make([]Reservation, 0, len(batch))
	for _, row := range batch {
		committed = append(committed, toReservation(row))
	}

	s.emit(ctx, logger, batchCreatedEvent(committed, seriesID))

	return committed, nil
}

// CheckAvailability expands a request and reports the dates whose occurrence
// would conflict with an existing reservation. It performs no writes and
// takes no locks; repeated probes with an unchanged store return identical
// results.
func (s *BookingService) CheckAvailability(ctx context.Context, params AvailabilityParams) ([]timeslot.Date, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	input := params.Input

	if err := s.validateBookingInput(ctx, params.Principal, input, false); err != nil {
		return nil, err
	}

	occurrences, err := s.expander.Expand(input.Date, input.Start, input.End, input.Recurrence)
	if err != nil {
		return nil, err
	}

	conflicting := make([]timeslot.Date, 0)
	for _, occurrence := range occurrences {
		blocking, err := s.findBlocking(ctx, input.RoomID, occurrence)
		if err != nil {
			return nil, err
		}
		if blocking != nil {
			conflicting = append(conflicting, occurrence.Date)
		}
	}

	if len(conflicting) == 0 {
		return nil, nil
	}
	return conflicting, nil
}

// UpdateReservationStatus applies a lifecycle transition. Only
// administrators may approve or reject, and transitions must follow the
// state machine: pending to approved or rejected, approved to rejected,
// nothing out of rejected.
func (s *BookingService) UpdateReservationStatus(ctx context.Context, params UpdateReservationStatusParams) (updated Reservation, err error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("BookingService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateReservationStatus",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
		"status", string(params.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "status update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "status updated")
	}()

	if !params.Principal.IsAdmin {
		return Reservation{}, ErrUnauthorized
	}
	if !params.Status.valid() || params.Status == StatusPending {
		vErr := &ValidationError{}
		vErr.add("status", "status must be approved or rejected")
		return Reservation{}, vErr
	}

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}

	current := ReservationStatus(existing.Status)
	if !current.canTransitionTo(params.Status) {
		return Reservation{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, params.Status)
	}

	row, err := s.reservations.UpdateReservationStatus(ctx, params.ReservationID, string(params.Status), s.now())
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}

	updated = toReservation(row)

	kind := notification.EventReservationApproved
	if params.Status == StatusRejected {
		kind = notification.EventReservationRejected
	}
	s.emit(ctx, logger, reservationEvent(kind, updated))

	return updated, nil
}

// CancelReservation removes a reservation. Requesters may cancel their own;
// administrators may cancel any.
func (s *BookingService) CancelReservation(ctx context.Context, principal Principal, reservationID string) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "cancel failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	existing, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return mapReservationRepoError(err)
	}

	if existing.RequesterID != principal.UserID && !principal.IsAdmin {
		return ErrUnauthorized
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		return mapReservationRepoError(err)
	}

	s.emit(ctx, logger, reservationEvent(notification.EventReservationCancelled, toReservation(existing)))

	return nil
}

// ListReservations enumerates reservations matching the filters, ordered by
// date, then start time, then identifier.
func (s *BookingService) ListReservations(ctx context.Context, params ListReservationsParams) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if s.reservations == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	rows, err := s.reservations.ListReservations(ctx, persistence.ReservationFilter{
		RoomID:      params.RoomID,
		RequesterID: params.RequesterID,
		From:        params.From,
		To:          params.To,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, storageError(err)
	}

	reservations := make([]Reservation, 0, len(rows))
	for _, row := range rows {
		reservations = append(reservations, toReservation(row))
	}
	sort.SliceStable(reservations, func(i, j int) bool {
		if c := reservations[i].Date.Compare(reservations[j].Date); c != 0 {
			return c < 0
		}
		if reservations[i].Start != reservations[j].Start {
			return reservations[i].Start < reservations[j].Start
		}
		return reservations[i].ID < reservations[j].ID
	})

	return reservations, nil
}

// RecentEvents returns the recently emitted lifecycle events, for
// administrator inspection.
func (s *BookingService) RecentEvents(principal Principal) ([]notification.Event, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	return s.events.Recent(), nil
}

// findBlocking looks up the non-rejected reservations for the occurrence's
// (room, date) and returns the first one overlapping it. The store is
// re-read on every call; no reservation state is cached.
func (s *BookingService) findBlocking(ctx context.Context, roomID string, occurrence recurrence.Occurrence) (*Reservation, error) {
	rows, err := s.reservations.ListReservationsForRoomDate(ctx, roomID, occurrence.Date)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, storageError(err)
	}

	byID := make(map[string]persistence.Reservation, len(rows))
	existing := make([]conflict.Booking, 0, len(rows))
	for _, row := range rows {
		if row.Status == persistence.StatusRejected {
			continue
		}
		byID[row.ID] = row
		existing = append(existing, conflict.Booking{
			ID:     row.ID,
			RoomID: row.RoomID,
			Slot:   row.Interval(),
		})
	}

	candidate := conflict.Booking{RoomID: roomID, Slot: occurrence.Interval()}
	found := conflict.FindConflict(existing, candidate)
	if found == nil {
		return nil, nil
	}

	blocking := toReservation(byID[found.BlockingID])
	return &blocking, nil
}

func (s *BookingService) validateBookingInput(ctx context.Context, principal Principal, input BookingInput, requireTitle bool) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if requireTitle && strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if principal.UserID == "" {
		vErr.add("requester", "requester is required")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if s.rooms != nil {
		exists, err := s.rooms.RoomExists(ctx, input.RoomID)
		if err != nil {
			return storageError(err)
		}
		if !exists {
			vErr.add("room_id", "room does not exist")
		}
	}
	if s.users != nil {
		exists, err := s.users.UserExists(ctx, principal.UserID)
		if err != nil {
			return storageError(err)
		}
		if !exists {
			vErr.add("requester", "requester does not exist")
		}
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func (s *BookingService) emit(ctx context.Context, logger *slog.Logger, event notification.Event) {
	event.EmittedAt = s.now()
	s.events.Record(event)
	if s.publisher == nil {
		return
	}
	// Event delivery is best effort; the committed batch stands either way.
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "event publish failed", "kind", string(event.Kind), "error", err)
	}
}

func batchCreatedEvent(committed []Reservation, seriesID *string) notification.Event {
	event := notification.Event{
		Kind:            notification.EventBatchCreated,
		OccurrenceCount: len(committed),
	}
	if seriesID != nil {
		event.SeriesID = *seriesID
	}
	if len(committed) > 0 {
		event.RoomID = committed[0].RoomID
		event.RequesterID = committed[0].RequesterID
		event.FirstDate = committed[0].Date.String()
		event.LastDate = committed[len(committed)-1].Date.String()
	}
	return event
}

func reservationEvent(kind notification.EventKind, reservation Reservation) notification.Event {
	event := notification.Event{
		Kind:          kind,
		RoomID:        reservation.RoomID,
		RequesterID:   reservation.RequesterID,
		ReservationID: reservation.ID,
		FirstDate:     reservation.Date.String(),
		LastDate:      reservation.Date.String(),
	}
	if reservation.SeriesID != nil {
		event.SeriesID = *reservation.SeriesID
	}
	return event
}

func occurrenceFor(occurrences []recurrence.Occurrence, date timeslot.Date) recurrence.Occurrence {
	for _, occurrence := range occurrences {
		if occurrence.Date == date {
			return occurrence
		}
	}
	if len(occurrences) > 0 {
		return occurrences[0]
	}
	return recurrence.Occurrence{}
}

func toReservation(row persistence.Reservation) Reservation {
	var seriesID *string
	if row.SeriesID != nil {
		id := *row.SeriesID
		seriesID = &id
	}
	return Reservation{
		ID:          row.ID,
		RoomID:      row.RoomID,
		RequesterID: row.RequesterID,
		SeriesID:    seriesID,
		Date:        row.Date,
		Start:       row.Start,
		End:         row.End,
		Title:       row.Title,
		Status:      ReservationStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return storageError(err)
}
