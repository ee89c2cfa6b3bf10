// Package auth carries request identity and credential verification for
// the storefront. Sessions live in the database; the HTTP layer resolves a
// token once per request and passes the identity down through the context.
package auth

import "context"

// Identity is the authenticated caller of the current request. Admin
// sessions issued against fixed credentials have no user row, so UserID
// may be zero while IsAdmin is true.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the request identity, if any. Callers must
// treat ok == false as unauthenticated, never as an anonymous user.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
