package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
)

// ErrTokenExpired is returned (wrapped) by IdentityProvider.VerifyToken when
// the credential failed verification specifically because it has expired.
// Callers distinguish it with errors.Is.
var ErrTokenExpired = errors.New("token expired")

// ErrUserNotFound is returned by GetUser/DeleteUser for unknown subjects.
var ErrUserNotFound = errors.New("user not found")

// IdentityProvider is the external identity service: it verifies bearer
// credentials and owns the user records. All calls are network-bound.
type IdentityProvider interface {
	// VerifyToken validates a raw bearer credential and returns the decoded
	// identity. Custom claims are NOT populated; use GetUser for those.
	VerifyToken(ctx context.Context, rawToken string) (domainauth.Identity, error)

	// GetUser fetches the provider-held user record, including custom claims.
	GetUser(ctx context.Context, subjectID string) (domainauth.UserRecord, error)

	// DeleteUser removes the user record. Used as a compensating action when
	// a newly created identity fails policy checks.
	DeleteUser(ctx context.Context, subjectID string) error
}

// HealthChecker reports whether the downstream data API can serve requests.
// Login fails fast when it cannot.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Denylist records subjects whose identity record was deleted by policy
// cleanup, so a still-valid credential cannot re-enter before the provider
// delete propagates. Deny-only: it can never grant access.
type Denylist interface {
	Deny(ctx context.Context, subjectID string, ttl time.Duration) error
	IsDenied(ctx context.Context, subjectID string) (bool, error)
}
