package auth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks an administrative username/password pair. The
// two implementations let deployments pick between a configured pair and
// credentials stored on admin user rows without touching the handlers.
type CredentialVerifier interface {
	// Verify returns the admin's user id (0 when there is no user row)
	// and whether the pair is valid.
	Verify(ctx context.Context, username, password string) (int64, bool, error)
}

// FixedCredentials verifies against a single configured pair.
type FixedCredentials struct {
	Username string
	Password string
}

func (f FixedCredentials) Verify(_ context.Context, username, password string) (int64, bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(f.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(f.Password)) == 1
	return 0, userOK && passOK, nil
}

// StoredCredentials verifies against users flagged is_admin.
type StoredCredentials struct {
	DB *sql.DB
}

func (s StoredCredentials) Verify(ctx context.Context, username, password string) (int64, bool, error) {
	var (
		userID int64
		hash   string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = $1 AND is_admin`,
		username).Scan(&userID, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get admin user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return 0, false, nil
	}

	return userID, true, nil
}
