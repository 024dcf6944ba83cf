package identity

import (
	"context"
	"strings"

	"github.com/goliatone/go-ownership/core"
)

type principalContextKey struct{}

type bearerTokenContextKey struct{}

// WithPrincipal attaches the authenticated caller to ctx. Transports call it
// after they have authenticated the request.
func WithPrincipal(ctx context.Context, principal core.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func PrincipalFromContext(ctx context.Context) (core.Principal, bool) {
	if ctx == nil {
		return "", false
	}
	principal, ok := ctx.Value(principalContextKey{}).(core.Principal)
	if !ok || principal.IsZero() {
		return "", false
	}
	return principal, true
}

// WithBearerToken attaches a raw signed token to ctx. A leading "Bearer "
// prefix is stripped.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return context.WithValue(ctx, bearerTokenContextKey{}, token)
}

func BearerTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, ok := ctx.Value(bearerTokenContextKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
