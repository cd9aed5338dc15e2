package sqlite

import (
	"context"
	"fmt"

	"github.com/example/room-reservation/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository on SQLite.
type RoomRepository struct {
	db *DB
}

var _ persistence.RoomRepository = (*RoomRepository)(nil)

// NewRoomRepository constructs a room repository.
func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO rooms (id, name, location, capacity, facilities, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Location,
		room.Capacity,
		room.Facilities,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapError(err)
}

func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	const query = `
		UPDATE rooms
		SET name = ?, location = ?, capacity = ?, facilities = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.db.ExecContext(ctx, query,
		room.Name,
		room.Location,
		room.Capacity,
		room.Facilities,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	const query = roomSelect + ` WHERE id = ?`
	return scanRoom(r.db.db.QueryRowContext(ctx, query, id))
}

func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	const query = roomSelect + ` ORDER BY name, id`
	rows, err := r.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	rooms := make([]persistence.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

const roomSelect = `
	SELECT id, name, location, capacity, facilities, created_at, updated_at
	FROM rooms`

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room      persistence.Room
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.Location, &room.Capacity, &room.Facilities, &createdAt, &updatedAt); err != nil {
		return persistence.Room{}, mapError(err)
	}

	var err error
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
