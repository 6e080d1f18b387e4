package auth

import (
	"context"
)

// use a struct to prevent conflicts
type contextKey struct {
	name string
}

var authProviderKey = contextKey{"auth-provider"}

func ContextWithAuthProvider(ctx context.Context, provider AuthProvider) context.Context {
	return context.WithValue(ctx, authProviderKey, provider)
}

func ContextAuthProvider(ctx context.Context) (AuthProvider, bool) {
	provider, ok := ctx.Value(authProviderKey).(AuthProvider)
	return provider, ok
}

// ContextSession returns the Session stored by ResolveSession, or an anonymous session
func ContextSession(ctx context.Context) *Session {
	if s, ok := ctx.Value(authProviderKey).(*Session); ok && s != nil {
		return s
	}
	return AnonymousSession()
}
