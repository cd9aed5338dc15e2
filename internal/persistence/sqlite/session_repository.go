package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository on SQLite.
type SessionRepository struct {
	db *DB
}

var _ persistence.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	const query = `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		formatNullableTime(session.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return session, nil
}

func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	const query = sessionSelect + ` WHERE token = ?`
	return scanSession(r.db.db.QueryRowContext(ctx, query, token))
}

func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	const query = `
		UPDATE sessions
		SET token = ?, expires_at = ?, updated_at = ?, revoked_at = ?
		WHERE id = ?
	`
	result, err := r.db.db.ExecContext(ctx, query,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.UpdatedAt),
		formatNullableTime(session.RevokedAt),
		session.ID,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	const query = `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ?
	`
	result, err := r.db.db.ExecContext(ctx, query, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	if affected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return r.GetSession(ctx, token)
}

func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.db.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(reference))
	return mapError(err)
}

const sessionSelect = `
	SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
	FROM sessions`

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session   persistence.Session
		expiresAt string
		createdAt string
		updatedAt string
		revokedAt sql.NullString
	)
	if err := row.Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &createdAt, &updatedAt, &revokedAt); err != nil {
		return persistence.Session{}, mapError(err)
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, err
	}
	if revokedAt.Valid {
		t, err := parseTime(revokedAt.String)
		if err != nil {
			return persistence.Session{}, err
		}
		session.RevokedAt = &t
	}
	return session, nil
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
