package service

import (
	"context"

	"github.com/sproutapp/sprout/internal/model"
)

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated user. The
// transport adapters are the only writers: the HTTP middleware after a
// successful bearer resolution, the SSE message handler from its session,
// and the stdio server from the identity configured at startup.
func WithIdentity(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFromContext extracts the authenticated user from the context.
// Returns nil when the request is unauthenticated.
func IdentityFromContext(ctx context.Context) *model.User {
	if u, ok := ctx.Value(identityKey{}).(*model.User); ok {
		return u
	}
	return nil
}
