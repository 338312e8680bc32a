package auth

import (
	"context"

	"github.com/hersa37/kuenyawz-api/internal/domain"
)

// Identity is the authenticated caller of the current request. It is
// carried as a context value; services never consult global state.
type Identity struct {
	AccountID int64
	Phone     string
	Admin     bool
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// CurrentAccount returns the request identity or an unauthorized error.
func CurrentAccount(ctx context.Context) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Identity{}, domain.ErrIdentityRequired
	}
	return id, nil
}

func IsAdmin(ctx context.Context) bool {
	id, ok := IdentityFrom(ctx)
	return ok && id.Admin
}

// RequireAdmin fails unless the request identity carries the admin role.
func RequireAdmin(ctx context.Context) error {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return domain.ErrIdentityRequired
	}
	if !id.Admin {
		return domain.ErrAdminOnly
	}
	return nil
}
