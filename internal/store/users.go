package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lennartz/go-webshop/internal/database"
	"github.com/lennartz/go-webshop/internal/models"
)

// RegisterUser creates a user with a bcrypt password hash. A unique
// violation on username or email maps to ErrDuplicateUser and leaves the
// existing row untouched.
func RegisterUser(ctx context.Context, db *sql.DB, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, database.ErrEmptyField
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{}

	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, email, is_admin, created_at`

	err = db.QueryRowContext(ctx, query, username, email, string(hash)).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// AuthenticateUser checks an email/password pair against the stored hash.
// Unknown email and wrong password both return ErrInvalidCredentials.
func AuthenticateUser(ctx context.Context, db *sql.DB, email, password string) (*models.User, error) {
	user := &models.User{}
	var hash string

	query := `
		SELECT id, username, email, password_hash, is_admin, created_at
		FROM users
		WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&hash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, database.ErrInvalidCredentials
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	query := `
		SELECT id, username, email, is_admin, created_at
		FROM users
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
