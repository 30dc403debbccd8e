package httpx

import (
	"context"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across
// packages. Centralized here so all handlers/middleware use the same key.
type identityKey struct{}

// SetIdentityInContext returns a child context carrying the given identity.
func SetIdentityInContext(ctx context.Context, ident *domainauth.Identity) context.Context {
	if ident == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, ident)
}

// GetIdentityFromContext returns the identity from context and a boolean
// indicating presence.
func GetIdentityFromContext(ctx context.Context) (*domainauth.Identity, bool) {
	if ident, ok := ctx.Value(identityKey{}).(*domainauth.Identity); ok && ident != nil {
		return ident, true
	}
	return nil, false
}

// requestIDKey is an unexported context key type for the request id.
type requestIDKey struct{}

// GetRequestID returns the request id assigned by the RequestID middleware,
// or the empty string when the middleware was not used.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
