package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/store"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user, err := store.RegisterUser(ctx, db, "alice", "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register user: %v", err)
	}
	if user.ID == 0 {
		t.Error("User ID should not be 0")
	}

	authed, err := store.AuthenticateUser(ctx, db, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, authed.ID)
	}

	if _, err := store.AuthenticateUser(ctx, db, "alice@example.com", "wrong"); !errors.Is(err, database.ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials error, got: %v", err)
	}
	if _, err := store.AuthenticateUser(ctx, db, "nobody@example.com", "hunter22"); !errors.Is(err, database.ErrInvalidCredentials) {
		t.Errorf("Expected invalid credentials error, got: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	first, err := store.RegisterUser(ctx, db, "bob", "bob@example.com", "pw123456")
	if err != nil {
		t.Fatalf("Register user: %v", err)
	}

	_, err = store.RegisterUser(ctx, db, "bob2", "bob@example.com", "pw123456")
	if !errors.Is(err, database.ErrDuplicateUser) {
		t.Errorf("Expected duplicate user error, got: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = 'bob@example.com'`).Scan(&count); err != nil {
		t.Fatalf("Count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly one user row, got %d", count)
	}

	// Existing user unaffected.
	if _, err := store.AuthenticateUser(ctx, db, "bob@example.com", "pw123456"); err != nil {
		t.Errorf("Original user should still authenticate: %v", err)
	}
	if got, err := store.GetUser(ctx, db, first.ID); err != nil || got.Username != "bob" {
		t.Errorf("Original user changed: %v, %v", got, err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	if _, err := store.RegisterUser(ctx, db, "carol", "carol@example.com", "pw123456"); err != nil {
		t.Fatalf("Register user: %v", err)
	}

	_, err := store.RegisterUser(ctx, db, "carol", "carol2@example.com", "pw123456")
	if !errors.Is(err, database.ErrDuplicateUser) {
		t.Errorf("Expected duplicate user error, got: %v", err)
	}
}

func TestRegisterEmptyFields(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	cases := [][3]string{
		{"", "a@example.com", "pw"},
		{"a", "", "pw"},
		{"a", "a@example.com", ""},
		{"   ", "a@example.com", "pw"},
	}
	for _, c := range cases {
		if _, err := store.RegisterUser(ctx, db, c[0], c[1], c[2]); !errors.Is(err, database.ErrEmptyField) {
			t.Errorf("Register(%q, %q, %q): expected empty field error, got %v", c[0], c[1], c[2], err)
		}
	}
}
