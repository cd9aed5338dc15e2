package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

// SessionStore captures the persistence operations needed by the auth
// service.
type SessionStore interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, token string) (persistence.Session, error)
	UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// CredentialStore is the slice of the user store the auth service needs to
// check a login.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
	GetUser(ctx context.Context, id string) (persistence.User, error)
}

// AuthService issues, validates, rotates, and revokes session tokens.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionStore
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an auth service with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionStore, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an auth service with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionStore, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		return AuthenticateResult{}, fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil || s.sessions == nil {
		return AuthenticateResult{}, fmt.Errorf("auth stores not configured")
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "session issued")
	}()

	if email == "" || params.Password == "" {
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	user, err := s.credentials.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, storageError(err)
	}

	if err := verifyPassword(user.PasswordHash, params.Password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrMalformedPasswordHash) {
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, err
	}

	now := s.now()
	session := persistence.Session{
		ID:        s.tokenGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if session.Token == "" {
		session.Token = session.ID
	}

	created, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return AuthenticateResult{}, storageError(err)
	}

	return AuthenticateResult{User: toUser(user), Session: toSession(created)}, nil
}

// ValidateSession verifies that a token names an active session and returns
// the principal it authenticates.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth stores not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrInvalidCredentials
	}

	session, err := s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, storageError(err)
	}

	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, storageError(err)
	}

	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// RefreshSession rotates an existing session token and extends its validity
// window. Expired and revoked sessions cannot be refreshed.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		return RefreshSessionResult{}, fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return RefreshSessionResult{}, fmt.Errorf("auth stores not configured")
	}

	token := strings.TrimSpace(params.Token)

	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session refresh failed", "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session refreshed")
	}()

	if token == "" {
		return RefreshSessionResult{}, ErrInvalidCredentials
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return RefreshSessionResult{}, ErrInvalidCredentials
		}
		return RefreshSessionResult{}, storageError(err)
	}

	if session.RevokedAt != nil {
		return RefreshSessionResult{}, ErrSessionRevoked
	}
	now := s.now()
	if !now.Before(session.ExpiresAt) {
		return RefreshSessionResult{}, ErrSessionExpired
	}

	if rotated := s.tokenGenerator(); rotated != "" {
		session.Token = rotated
	}
	session.ExpiresAt = now.Add(s.sessionTTL)
	session.UpdatedAt = now

	updated, err := s.sessions.UpdateSession(ctx, session)
	if err != nil {
		return RefreshSessionResult{}, storageError(err)
	}

	return RefreshSessionResult{Session: toSession(updated)}, nil
}

// RevokeSession invalidates an existing session token. Revoking an unknown
// token is not an error.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("auth stores not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", true)

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		return storageError(err)
	}

	logger.InfoContext(ctx, "session revoked")
	return nil
}

// PurgeExpiredSessions removes sessions whose expiry has passed.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth stores not configured")
	}
	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		return storageError(err)
	}
	return nil
}

func toSession(row persistence.Session) Session {
	return Session{
		ID:        row.ID,
		UserID:    row.UserID,
		Token:     row.Token,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		RevokedAt: row.RevokedAt,
	}
}
