package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// Sessions issues and resolves opaque database-backed session tokens.
type Sessions struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSessions(db *sql.DB, ttl time.Duration) *Sessions {
	return &Sessions{db: db, ttl: ttl}
}

// CreateUser starts a session for a registered user.
func (s *Sessions) CreateUser(ctx context.Context, userID int64) (string, error) {
	return s.create(ctx, sql.NullInt64{Int64: userID, Valid: true}, false)
}

// CreateAdmin starts an administrative session. userID is zero when the
// admin authenticated against fixed credentials rather than a user row.
func (s *Sessions) CreateAdmin(ctx context.Context, userID int64) (string, error) {
	return s.create(ctx, sql.NullInt64{Int64: userID, Valid: userID != 0}, true)
}

func (s *Sessions) create(ctx context.Context, userID sql.NullInt64, isAdmin bool) (string, error) {
	token := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, is_admin, created_at, expires_at)
		 VALUES ($1, $2, $3, NOW(), NOW() + $4::interval)`,
		token, userID, isAdmin, fmt.Sprintf("%d seconds", int(s.ttl.Seconds())))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return token, nil
}

// Resolve maps a token to an identity. Expired or unknown tokens return
// ErrSessionNotFound.
func (s *Sessions) Resolve(ctx context.Context, token string) (Identity, error) {
	if _, err := uuid.Parse(token); err != nil {
		return Identity{}, ErrSessionNotFound
	}

	var (
		userID  sql.NullInt64
		isAdmin bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, is_admin
		 FROM sessions
		 WHERE token = $1 AND expires_at > NOW()`,
		token).Scan(&userID, &isAdmin)
	if err != nil {
		if err == sql.ErrNoRows {
			return Identity{}, ErrSessionNotFound
		}
		return Identity{}, fmt.Errorf("resolve session: %w", err)
	}

	return Identity{UserID: userID.Int64, IsAdmin: isAdmin}, nil
}

// Delete logs a session out. Deleting an unknown token is a no-op.
func (s *Sessions) Delete(ctx context.Context, token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes expired sessions; intended for a periodic sweep.
func (s *Sessions) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}
