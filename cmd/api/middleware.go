package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/lennartz/go-webshop/internal/auth"
	"github.com/lennartz/go-webshop/internal/database"
)

type application struct {
	db       *sql.DB
	sessions *auth.Sessions
	verifier auth.CredentialVerifier
}

const sessionCookie = "session"

func sessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// withIdentity resolves the session token, if any, and stores the identity
// on the request context. Requests without a valid session pass through
// unauthenticated; requireUser/requireAdmin decide whether that matters.
func (app *application) withIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next(w, r)
			return
		}

		identity, err := app.sessions.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrSessionNotFound) {
				next(w, r)
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}

func (app *application) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok || identity.UserID == 0 {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

func (app *application) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		if !identity.IsAdmin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

// respondStoreError maps store sentinels to HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrCartItemNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrDuplicateUser):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrEmptyCart):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, database.ErrCheckoutFailed):
		respondError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, database.ErrInvalidRating),
		errors.Is(err, database.ErrInvalidPrice),
		errors.Is(err, database.ErrEmptyField):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
