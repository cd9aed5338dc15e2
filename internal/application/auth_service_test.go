package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

type sessionStoreStub struct {
	rows map[string]persistence.Session
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{rows: make(map[string]persistence.Session)}
}

func (s *sessionStoreStub) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.rows[session.Token] = session
	return session, nil
}

func (s *sessionStoreStub) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	session, ok := s.rows[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	for token, existing := range s.rows {
		if existing.ID == session.ID {
			delete(s.rows, token)
			s.rows[session.Token] = session
			return session, nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *sessionStoreStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, ok := s.rows[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.rows[token] = session
	return session, nil
}

func (s *sessionStoreStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	for token, session := range s.rows {
		if session.ExpiresAt.Before(reference) {
			delete(s.rows, token)
		}
	}
	return nil
}

type authHarness struct {
	service  *AuthService
	users    *userStoreStub
	sessions *sessionStoreStub
	clock    *movableClock
}

func newAuthHarness(t *testing.T) authHarness {
	t.Helper()

	users := newUserStoreStub()
	hash, err := hashPassword("correct horse")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	users.rows["user-1"] = persistence.User{
		ID: "user-1", Email: "alice@example.com", DisplayName: "Alice",
		PasswordHash: hash,
	}

	sessions := newSessionStoreStub()
	clock := &movableClock{now: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	service := NewAuthService(users, sessions, sequentialIDs("token"), clock.Now, time.Hour)
	return authHarness{service: service, users: users, sessions: sessions, clock: clock}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		result, err := h.service.Authenticate(ctx, AuthenticateParams{
			Email:    " Alice@Example.com ",
			Password: "correct horse",
		})
		if err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
		if result.User.ID != "user-1" {
			t.Errorf("user id = %q", result.User.ID)
		}
		if result.Session.Token == "" {
			t.Error("session has no token")
		}
		if got, want := result.Session.ExpiresAt, h.clock.Now().Add(time.Hour); !got.Equal(want) {
			t.Errorf("expiry = %v, want %v", got, want)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		_, err := h.service.Authenticate(ctx, AuthenticateParams{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email behaves like wrong password", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		_, err := h.service.Authenticate(ctx, AuthenticateParams{
			Email:    "nobody@example.com",
			Password: "correct horse",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	login := func(t *testing.T, h authHarness) Session {
		t.Helper()
		result, err := h.service.Authenticate(ctx, AuthenticateParams{
			Email:    "alice@example.com",
			Password: "correct horse",
		})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		return result.Session
	}

	t.Run("valid token yields the principal", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		session := login(t, h)

		principal, err := h.service.ValidateSession(ctx, session.Token)
		if err != nil {
			t.Fatalf("ValidateSession returned error: %v", err)
		}
		if principal.UserID != "user-1" || principal.IsAdmin {
			t.Errorf("unexpected principal: %+v", principal)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		session := login(t, h)

		h.clock.Advance(2 * time.Hour)
		if _, err := h.service.ValidateSession(ctx, session.Token); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		session := login(t, h)

		if err := h.service.RevokeSession(ctx, session.Token); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		if _, err := h.service.ValidateSession(ctx, session.Token); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()

		h := newAuthHarness(t)
		if _, err := h.service.ValidateSession(ctx, "no-such-token"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_RefreshSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newAuthHarness(t)

	result, err := h.service.Authenticate(ctx, AuthenticateParams{
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	oldToken := result.Session.Token

	h.clock.Advance(30 * time.Minute)
	refreshed, err := h.service.RefreshSession(ctx, RefreshSessionParams{Token: oldToken})
	if err != nil {
		t.Fatalf("RefreshSession returned error: %v", err)
	}
	if refreshed.Session.Token == oldToken {
		t.Error("token not rotated")
	}
	if got, want := refreshed.Session.ExpiresAt, h.clock.Now().Add(time.Hour); !got.Equal(want) {
		t.Errorf("expiry = %v, want %v", got, want)
	}

	// The old token is gone; the rotated one validates.
	if _, err := h.service.ValidateSession(ctx, oldToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old token still valid: %v", err)
	}
	if _, err := h.service.ValidateSession(ctx, refreshed.Session.Token); err != nil {
		t.Fatalf("rotated token rejected: %v", err)
	}
}

func TestAuthService_PurgeExpiredSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newAuthHarness(t)

	if _, err := h.service.Authenticate(ctx, AuthenticateParams{
		Email:    "alice@example.com",
		Password: "correct horse",
	}); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	h.clock.Advance(2 * time.Hour)
	if err := h.service.PurgeExpiredSessions(ctx); err != nil {
		t.Fatalf("PurgeExpiredSessions returned error: %v", err)
	}
	if len(h.sessions.rows) != 0 {
		t.Fatalf("expired sessions remain: %d", len(h.sessions.rows))
	}
}
