package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

// UserRepository implements persistence.UserRepository on SQLite.
type UserRepository struct {
	db *DB
}

var _ persistence.UserRepository = (*UserRepository)(nil)

// NewUserRepository constructs a user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO users (id, email, display_name, is_admin, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		boolToInt(user.IsAdmin),
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	const query = `
		UPDATE users
		SET email = ?, display_name = ?, is_admin = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.db.ExecContext(ctx, query,
		user.Email,
		user.DisplayName,
		boolToInt(user.IsAdmin),
		user.PasswordHash,
		formatTime(user.UpdatedAt),
		user.ID,
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

func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	const query = userSelect + ` WHERE id = ?`
	return scanUser(r.db.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	const query = userSelect + ` WHERE email = ?`
	return scanUser(r.db.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	const query = userSelect + ` ORDER BY email`
	rows, err := r.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.db.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
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

const userSelect = `
	SELECT id, email, display_name, is_admin, password_hash, created_at, updated_at
	FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		isAdmin   int
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &isAdmin, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, mapError(err)
	}
	user.IsAdmin = isAdmin != 0

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", value, err)
	}
	return t, nil
}
