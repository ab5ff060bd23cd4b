package auth

import (
	"context"
	"time"
)

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID   string
	Email    string
	Username string
	// TokenID and ExpiresAt identify the presented token for revocation.
	TokenID   string
	ExpiresAt time.Time
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller identity, if the request was authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
