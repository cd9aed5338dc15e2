package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-reservation/internal/persistence"
)

type userStoreStub struct {
	rows map[string]persistence.User
}

func newUserStoreStub() *userStoreStub {
	return &userStoreStub{rows: make(map[string]persistence.User)}
}

func (s *userStoreStub) CreateUser(ctx context.Context, user persistence.User) error {
	for _, existing := range s.rows {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.rows[user.ID] = user
	return nil
}

func (s *userStoreStub) UpdateUser(ctx context.Context, user persistence.User) error {
	if _, ok := s.rows[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.rows[user.ID] = user
	return nil
}

func (s *userStoreStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, ok := s.rows[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userStoreStub) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	for _, user := range s.rows {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (s *userStoreStub) ListUsers(ctx context.Context) ([]persistence.User, error) {
	users := make([]persistence.User, 0, len(s.rows))
	for _, user := range s.rows {
		users = append(users, user)
	}
	return users, nil
}

func (s *userStoreStub) DeleteUser(ctx context.Context, id string) error {
	if _, ok := s.rows[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := Principal{UserID: "admin-1", IsAdmin: true}

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		t.Parallel()

		store := newUserStoreStub()
		service := NewUserService(store, sequentialIDs("user"), fixedNow)

		user, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input: UserInput{
				Email:       " Alice@Example.COM ",
				DisplayName: "Alice",
				Password:    "correct horse",
			},
		})
		if err != nil {
			t.Fatalf("CreateUser returned error: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("email = %q, want normalized", user.Email)
		}

		row := store.rows[user.ID]
		if row.PasswordHash == "" || row.PasswordHash == "correct horse" {
			t.Error("password must be stored hashed")
		}
		if err := verifyPassword(row.PasswordHash, "correct horse"); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
		if err := verifyPassword(row.PasswordHash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("wrong password verified: %v", err)
		}
	})

	t.Run("rejects non-administrators", func(t *testing.T) {
		t.Parallel()

		service := NewUserService(newUserStoreStub(), sequentialIDs("user"), fixedNow)
		_, err := service.CreateUser(ctx, CreateUserParams{
			Principal: Principal{UserID: "user-1"},
			Input:     UserInput{Email: "bob@example.com", DisplayName: "Bob", Password: "long enough"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates email and password", func(t *testing.T) {
		t.Parallel()

		service := NewUserService(newUserStoreStub(), sequentialIDs("user"), fixedNow)
		_, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "not-an-email", DisplayName: "X", Password: "short"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["email"]; !ok {
			t.Error("missing email field error")
		}
		if _, ok := vErr.FieldErrors["password"]; !ok {
			t.Error("missing password field error")
		}
	})

	t.Run("duplicate email maps to already exists", func(t *testing.T) {
		t.Parallel()

		store := newUserStoreStub()
		service := NewUserService(store, sequentialIDs("user"), fixedNow)
		input := UserInput{Email: "alice@example.com", DisplayName: "Alice", Password: "correct horse"}

		if _, err := service.CreateUser(ctx, CreateUserParams{Principal: admin, Input: input}); err != nil {
			t.Fatalf("first create failed: %v", err)
		}
		_, err := service.CreateUser(ctx, CreateUserParams{Principal: admin, Input: input})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	seed := func() (*userStoreStub, *UserService) {
		store := newUserStoreStub()
		store.rows["user-1"] = persistence.User{
			ID: "user-1", Email: "alice@example.com", DisplayName: "Alice",
			PasswordHash: "$argon2id$stub", CreatedAt: fixedNow(), UpdatedAt: fixedNow(),
		}
		return store, NewUserService(store, sequentialIDs("user"), fixedNow)
	}

	t.Run("users edit themselves but not their admin flag", func(t *testing.T) {
		t.Parallel()

		store, service := seed()
		user, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: Principal{UserID: "user-1"},
			UserID:    "user-1",
			Input:     UserInput{Email: "alice@example.com", DisplayName: "Alice B", IsAdmin: true},
		})
		if err != nil {
			t.Fatalf("UpdateUser returned error: %v", err)
		}
		if user.DisplayName != "Alice B" {
			t.Errorf("display name = %q", user.DisplayName)
		}
		if store.rows["user-1"].IsAdmin {
			t.Error("self-service update must not grant admin")
		}
	})

	t.Run("administrators may change the admin flag", func(t *testing.T) {
		t.Parallel()

		store, service := seed()
		_, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: Principal{UserID: "admin-1", IsAdmin: true},
			UserID:    "user-1",
			Input:     UserInput{Email: "alice@example.com", DisplayName: "Alice", IsAdmin: true},
		})
		if err != nil {
			t.Fatalf("UpdateUser returned error: %v", err)
		}
		if !store.rows["user-1"].IsAdmin {
			t.Error("admin flag not applied")
		}
	})

	t.Run("others may not edit", func(t *testing.T) {
		t.Parallel()

		_, service := seed()
		_, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: Principal{UserID: "user-2"},
			UserID:    "user-1",
			Input:     UserInput{Email: "alice@example.com", DisplayName: "Mallory"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("empty password keeps the existing hash", func(t *testing.T) {
		t.Parallel()

		store, service := seed()
		before := store.rows["user-1"].PasswordHash
		if _, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: Principal{UserID: "user-1"},
			UserID:    "user-1",
			Input:     UserInput{Email: "alice@example.com", DisplayName: "Alice"},
		}); err != nil {
			t.Fatalf("UpdateUser returned error: %v", err)
		}
		if store.rows["user-1"].PasswordHash != before {
			t.Error("password hash changed without a new password")
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newUserStoreStub()
	store.rows["u2"] = persistence.User{ID: "u2", Email: "b@example.com", DisplayName: "B"}
	store.rows["u1"] = persistence.User{ID: "u1", Email: "a@example.com", DisplayName: "A"}
	service := NewUserService(store, sequentialIDs("user"), fixedNow)

	if _, err := service.ListUsers(ctx, Principal{UserID: "user-1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}

	users, err := service.ListUsers(ctx, Principal{UserID: "admin-1", IsAdmin: true})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 2 || users[0].Email != "a@example.com" {
		t.Fatalf("unexpected listing: %+v", users)
	}
}

func TestUserService_UserExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newUserStoreStub()
	store.rows["user-1"] = persistence.User{ID: "user-1", Email: "a@example.com"}
	service := NewUserService(store, sequentialIDs("user"), fixedNow)

	exists, err := service.UserExists(ctx, "user-1")
	if err != nil || !exists {
		t.Fatalf("UserExists(user-1) = %v, %v", exists, err)
	}
	exists, err = service.UserExists(ctx, "missing")
	if err != nil || exists {
		t.Fatalf("UserExists(missing) = %v, %v", exists, err)
	}
}
