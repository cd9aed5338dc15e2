package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/timeslot"
)

// ReservationRepository implements persistence.ReservationRepository on
// SQLite.
type ReservationRepository struct {
	db *DB
}

var _ persistence.ReservationRepository = (*ReservationRepository)(nil)

// NewReservationRepository constructs a reservation repository.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// CreateReservationBatch inserts the batch inside one transaction. Before
// each insert the slot is re-checked against the non-rejected reservations
// already stored; the first taken slot rolls the whole batch back and is
// reported as *persistence.OverlapError.
func (r *ReservationRepository) CreateReservationBatch(ctx context.Context, batch []persistence.Reservation) error {
	if len(batch) == 0 {
		return nil
	}

	return r.db.withTransaction(ctx, func(tx *sql.Tx) error {
		const overlapQuery = reservationSelect + `
			WHERE room_id = ?
			  AND date = ?
			  AND status != 'rejected'
			  AND start_minutes < ?
			  AND end_minutes > ?
			LIMIT 1
		`
		const insertQuery = `
			INSERT INTO reservations
				(id, room_id, requester_id, series_id, date, start_minutes, end_minutes, title, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		for _, reservation := range batch {
			row := tx.QueryRowContext(ctx, overlapQuery,
				reservation.RoomID,
				reservation.Date.String(),
				int(reservation.End),
				int(reservation.Start),
			)
			blocking, err := scanReservation(row)
			switch {
			case err == nil:
				return &persistence.OverlapError{Blocking: blocking}
			case errors.Is(err, persistence.ErrNotFound):
				// Slot is free.
			default:
				return err
			}

			if _, err := tx.ExecContext(ctx, insertQuery,
				reservation.ID,
				reservation.RoomID,
				reservation.RequesterID,
				reservation.SeriesID,
				reservation.Date.String(),
				int(reservation.Start),
				int(reservation.End),
				reservation.Title,
				reservation.Status,
				formatTime(reservation.CreatedAt),
				formatTime(reservation.UpdatedAt),
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	const query = reservationSelect + ` WHERE id = ?`
	return scanReservation(r.db.db.QueryRowContext(ctx, query, id))
}

func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, id, status string, updatedAt time.Time) (persistence.Reservation, error) {
	const query = `
		UPDATE reservations
		SET status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.db.ExecContext(ctx, query, status, formatTime(updatedAt), id)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return r.GetReservation(ctx, id)
}

func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
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

func (r *ReservationRepository) ListReservationsForRoomDate(ctx context.Context, roomID string, date timeslot.Date) ([]persistence.Reservation, error) {
	const query = reservationSelect + `
		WHERE room_id = ? AND date = ?
		ORDER BY start_minutes, id
	`
	return r.queryReservations(ctx, query, roomID, date.String())
}

func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query := reservationSelect + ` WHERE 1 = 1`
	args := make([]any, 0, 6)

	if filter.RoomID != "" {
		query += ` AND room_id = ?`
		args = append(args, filter.RoomID)
	}
	if filter.RequesterID != "" {
		query += ` AND requester_id = ?`
		args = append(args, filter.RequesterID)
	}
	if filter.SeriesID != "" {
		query += ` AND series_id = ?`
		args = append(args, filter.SeriesID)
	}
	if filter.From != nil {
		query += ` AND date >= ?`
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		query += ` AND date <= ?`
		args = append(args, filter.To.String())
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Statuses)), ", ")
		query += ` AND status IN (` + placeholders + `)`
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY date, start_minutes, id`

	return r.queryReservations(ctx, query, args...)
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	reservations := make([]persistence.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

const reservationSelect = `
	SELECT id, room_id, requester_id, series_id, date, start_minutes, end_minutes, title, status, created_at, updated_at
	FROM reservations`

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation persistence.Reservation
		date        string
		start       int
		end         int
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.RequesterID,
		&reservation.SeriesID,
		&date,
		&start,
		&end,
		&reservation.Title,
		&reservation.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, mapError(err)
	}

	parsedDate, err := timeslot.ParseDate(date)
	if err != nil {
		return persistence.Reservation{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	reservation.Date = parsedDate
	reservation.Start = timeslot.TimeOfDay(start)
	reservation.End = timeslot.TimeOfDay(end)

	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
