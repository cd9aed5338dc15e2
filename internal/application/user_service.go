package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

// UserStore captures the persistence operations needed by the user service.
type UserStore interface {
	CreateUser(ctx context.Context, user persistence.User) error
	UpdateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
	ListUsers(ctx context.Context) ([]persistence.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserService manages accounts. It also answers existence probes for the
// booking service.
type UserService struct {
	users       UserStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService constructs a user service with the provided dependencies.
func NewUserService(users UserStore, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a user service with a specified logger.
func NewUserServiceWithLogger(users UserStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser registers a new account. Only administrators may create users,
// and the password is hashed before it ever reaches the store.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user store not configured")
	}

	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := hashPassword(normalized.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	row := persistence.User{
		ID:           s.idGenerator(),
		Email:        normalized.Email,
		DisplayName:  normalized.DisplayName,
		IsAdmin:      normalized.IsAdmin,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, row); err != nil {
		return User{}, mapUserRepoError(err)
	}

	return toUser(row), nil
}

// UpdateUser edits account attributes. Administrators may edit anyone; users
// may edit their own display name and password but not their admin flag.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Principal.IsAdmin && params.Principal.UserID != params.UserID {
		return User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	updated := existing
	updated.Email = normalized.Email
	updated.DisplayName = normalized.DisplayName
	if params.Principal.IsAdmin {
		updated.IsAdmin = normalized.IsAdmin
	}
	if normalized.Password != "" {
		hash, err := hashPassword(normalized.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = hash
	}
	updated.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		return User{}, mapUserRepoError(err)
	}

	return toUser(updated), nil
}

// DeleteUser removes an account for administrators.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil || s.users == nil {
		return fmt.Errorf("user store not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return mapUserRepoError(err)
	}
	s.loggerWith(ctx, "DeleteUser", "user_id", userID).InfoContext(ctx, "user deleted")
	return nil
}

// GetUser returns an account by identifier.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user store not configured")
	}
	row, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return toUser(row), nil
}

// ListUsers enumerates accounts for administrators, sorted by email.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user store not configured")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	rows, err := s.users.ListUsers(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, storageError(err)
	}
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toUser(row))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// UserExists reports whether the identified account exists. It satisfies the
// booking service's directory dependency.
func (s *UserService) UserExists(ctx context.Context, id string) (bool, error) {
	if s == nil || s.users == nil {
		return false, fmt.Errorf("user store not configured")
	}
	if _, err := s.users.GetUser(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, storageError(err)
	}
	return true, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	return input
}

func validateUserInput(input UserInput, requirePassword bool) *ValidationError {
	vErr := &ValidationError{}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}
	if requirePassword && input.Password == "" {
		vErr.add("password", "password is required")
	}
	if input.Password != "" && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	return vErr
}

func toUser(row persistence.User) User {
	return User{
		ID:          row.ID,
		Email:       row.Email,
		DisplayName: row.DisplayName,
		IsAdmin:     row.IsAdmin,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func mapUserRepoError(err error) error {
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
