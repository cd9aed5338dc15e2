package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

// RoomStore captures the persistence operations needed by the room service.
type RoomStore interface {
	CreateRoom(ctx context.Context, room persistence.Room) error
	UpdateRoom(ctx context.Context, room persistence.Room) error
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// RoomService orchestrates validation, authorization, and persistence for the
// room catalog. It also answers existence probes for the booking service.
type RoomService struct {
	rooms       RoomStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomStore, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room store not configured")
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		return Room{}, ErrUnauthorized
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		return Room{}, vErr
	}

	now := s.now()
	row := persistence.Room{
		ID:         s.idGenerator(),
		Name:       strings.TrimSpace(params.Input.Name),
		Location:   strings.TrimSpace(params.Input.Location),
		Capacity:   params.Input.Capacity,
		Facilities: normalizeOptionalString(params.Input.Facilities),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.rooms.CreateRoom(ctx, row); err != nil {
		return Room{}, mapRoomRepoError(err)
	}

	return toRoom(row), nil
}

// UpdateRoom validates input and updates an existing room for administrators.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !params.Principal.IsAdmin {
		return Room{}, ErrUnauthorized
	}

	existing, err := s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		return Room{}, mapRoomRepoError(err)
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		return Room{}, vErr
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Location = strings.TrimSpace(params.Input.Location)
	updated.Capacity = params.Input.Capacity
	updated.Facilities = normalizeOptionalString(params.Input.Facilities)
	updated.UpdatedAt = s.now()

	if err := s.rooms.UpdateRoom(ctx, updated); err != nil {
		return Room{}, mapRoomRepoError(err)
	}

	return toRoom(updated), nil
}

// GetRoom returns a room by identifier.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil || s.rooms == nil {
		return Room{}, fmt.Errorf("room store not configured")
	}
	row, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return Room{}, mapRoomRepoError(err)
	}
	return toRoom(row), nil
}

// ListRooms returns the catalog sorted by name, then identifier.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room store not configured")
	}
	rows, err := s.rooms.ListRooms(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, storageError(err)
	}
	rooms := make([]Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, toRoom(row))
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms, nil
}

// DeleteRoom removes a room for administrators.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.rooms == nil {
		return fmt.Errorf("room store not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.rooms.DeleteRoom(ctx, id); err != nil {
		return mapRoomRepoError(err)
	}
	s.loggerWith(ctx, "DeleteRoom", "room_id", id).InfoContext(ctx, "room deleted")
	return nil
}

// RoomExists reports whether the identified room is in the catalog. It
// satisfies the booking service's catalog dependency.
func (s *RoomService) RoomExists(ctx context.Context, id string) (bool, error) {
	if s == nil || s.rooms == nil {
		return false, fmt.Errorf("room store not configured")
	}
	if _, err := s.rooms.GetRoom(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, storageError(err)
	}
	return true, nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	return vErr
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toRoom(row persistence.Room) Room {
	return Room{
		ID:         row.ID,
		Name:       row.Name,
		Location:   row.Location,
		Capacity:   row.Capacity,
		Facilities: row.Facilities,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	default:
		return storageError(err)
	}
}
