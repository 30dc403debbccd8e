package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	apperrors "github.com/jhmh/portal-api/internal/errors"
	mocks "github.com/jhmh/portal-api/internal/mocks/auth"
	"github.com/jhmh/portal-api/internal/ports"
)

func newTestService(provider *mocks.MockIdentityProvider, api *mocks.StubHealthChecker) *AuthService {
	return NewAuthService(AuthServiceOptions{
		Provider:      provider,
		API:           api,
		Denylist:      mocks.NewMemoryDenylist(),
		AllowedDomain: "jhmh.com",
	})
}

func TestLogin_Success(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.GetUserFunc = func(_ context.Context, subjectID string) (domainauth.UserRecord, error) {
		return domainauth.UserRecord{
			SubjectID:    subjectID,
			Email:        "mock.user@jhmh.com",
			CustomClaims: map[string]any{"roles": []any{"editor"}, "permissions": []any{"greg:write"}},
		}, nil
	}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	ident, err := svc.Login(context.Background(), "valid-token")

	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", ident.SubjectID)
	assert.Equal(t, "mock.user@jhmh.com", ident.Email)
	assert.Equal(t, []string{"editor"}, ident.Roles)
	assert.Equal(t, []string{"greg:write"}, ident.Permissions)
	assert.Equal(t, 1, provider.VerifyCalls)
	assert.Equal(t, 1, provider.GetUserCalls)
	assert.Zero(t, provider.DeleteCalls)
}

func TestLogin_EmptyToken(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.Login(context.Background(), "   ")

	assert.True(t, apperrors.IsKind(err, apperrors.KindMissingCredential))
	assert.Zero(t, provider.VerifyCalls)
}

func TestLogin_NilProvider(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{AllowedDomain: "jhmh.com"})

	_, err := svc.Login(context.Background(), "token")

	require.True(t, apperrors.IsKind(err, apperrors.KindServiceUnavailable))
	assert.Equal(t, "AUTH_UNAVAILABLE", apperrors.AsAuthError(err).Code)
}

func TestLogin_UnhealthyAPIShortCircuits(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	api := &mocks.StubHealthChecker{Err: errors.New("connection refused")}
	svc := newTestService(provider, api)

	_, err := svc.Login(context.Background(), "valid-token")

	require.True(t, apperrors.IsKind(err, apperrors.KindServiceUnavailable))
	assert.Equal(t, "API_UNAVAILABLE", apperrors.AsAuthError(err).Code)
	// The verifier must not be touched when the backend cannot serve anyway.
	assert.Zero(t, provider.VerifyCalls)
}

func TestLogin_VerificationFailureIsGeneric(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.VerifyTokenFunc = func(context.Context, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, fmt.Errorf("verify: %w", ports.ErrTokenExpired)
	}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.Login(context.Background(), "expired-token")

	// At login even an expired credential maps to the generic failure.
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidCredential))
}

func TestLogin_MissingEmailTriggersCleanup(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.DefaultIdentity = domainauth.Identity{SubjectID: "orphan-1"}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.Login(context.Background(), "valid-token")

	require.True(t, apperrors.IsKind(err, apperrors.KindEmailRequired))
	assert.Equal(t, 1, provider.DeleteCalls)
	assert.Equal(t, "orphan-1", provider.DeletedSubject)
}

func TestLogin_DisallowedDomainTriggersCleanup(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.DefaultIdentity = domainauth.Identity{SubjectID: "outsider-1", Email: "x@other.com"}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.Login(context.Background(), "valid-token")

	require.True(t, apperrors.IsKind(err, apperrors.KindDomainNotAllowed))
	authErr := apperrors.AsAuthError(err)
	assert.Equal(t, "x@other.com", authErr.Details["attempted_email"])
	assert.Equal(t, "jhmh.com", authErr.Details["allowed_domain"])
	assert.Equal(t, 1, provider.DeleteCalls)
	assert.Equal(t, "outsider-1", provider.DeletedSubject)
}

func TestLogin_CleanupFailureDoesNotChangeOutcome(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.DefaultIdentity = domainauth.Identity{SubjectID: "outsider-2", Email: "x@other.com"}
	provider.DeleteUserFunc = func(context.Context, string) error {
		return errors.New("provider unreachable")
	}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.Login(context.Background(), "valid-token")

	assert.True(t, apperrors.IsKind(err, apperrors.KindDomainNotAllowed))
	assert.Equal(t, 1, provider.DeleteCalls)
}

func TestVerifySession_RoundTrip(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	loggedIn, err := svc.Login(context.Background(), "valid-token")
	require.NoError(t, err)

	verified, err := svc.VerifySession(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, loggedIn.SubjectID, verified.SubjectID)
	assert.Equal(t, loggedIn.Email, verified.Email)
}

func TestVerifySession_Missing(t *testing.T) {
	svc := newTestService(mocks.NewMockIdentityProvider(), &mocks.StubHealthChecker{})

	_, err := svc.VerifySession(context.Background(), "")

	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidSession))
}

func TestVerifySession_NilProviderIs503(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{AllowedDomain: "jhmh.com"})

	_, err := svc.VerifySession(context.Background(), "some-cookie")

	require.True(t, apperrors.IsKind(err, apperrors.KindServiceUnavailable))
	assert.Equal(t, "AUTH_UNAVAILABLE", apperrors.AsAuthError(err).Code)
}

func TestVerifySession_ExpiredIsDistinguished(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.VerifyTokenFunc = func(context.Context, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, fmt.Errorf("verify: %w", ports.ErrTokenExpired)
	}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.VerifySession(context.Background(), "expired-cookie")

	require.True(t, apperrors.IsKind(err, apperrors.KindExpiredSession))
	assert.Equal(t, "TOKEN_EXPIRED", apperrors.AsAuthError(err).Code)
}

func TestVerifySession_MalformedHasNoExpiryCode(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.VerifyTokenFunc = func(context.Context, string) (domainauth.Identity, error) {
		return domainauth.Identity{}, errors.New("malformed jwt")
	}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	_, err := svc.VerifySession(context.Background(), "garbage")

	require.True(t, apperrors.IsKind(err, apperrors.KindInvalidSession))
	assert.Empty(t, apperrors.AsAuthError(err).Code)
}

func TestVerifySession_DeniedSubjectRejected(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.DefaultIdentity = domainauth.Identity{SubjectID: "outsider-1", Email: "x@other.com"}
	denylist := mocks.NewMemoryDenylist()
	svc := NewAuthService(AuthServiceOptions{
		Provider:      provider,
		API:           &mocks.StubHealthChecker{},
		Denylist:      denylist,
		AllowedDomain: "jhmh.com",
		DenyTTL:       time.Hour,
	})

	// Failed login records the subject on the denylist.
	_, err := svc.Login(context.Background(), "valid-token")
	require.True(t, apperrors.IsKind(err, apperrors.KindDomainNotAllowed))

	// The still-valid token can no longer pass session verification.
	_, err = svc.VerifySession(context.Background(), "valid-token")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidSession))
}

func TestVerifySession_DenylistFailureIsFailOpen(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	denylist := mocks.NewMemoryDenylist()
	denylist.ReadErr = errors.New("redis down")
	svc := NewAuthService(AuthServiceOptions{
		Provider:      provider,
		Denylist:      denylist,
		AllowedDomain: "jhmh.com",
	})

	_, err := svc.VerifySession(context.Background(), "valid-token")

	assert.NoError(t, err)
}

func TestResolveClaims(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	provider.GetUserFunc = func(_ context.Context, subjectID string) (domainauth.UserRecord, error) {
		return domainauth.UserRecord{
			SubjectID:    subjectID,
			CustomClaims: map[string]any{"roles": []any{"admin"}},
		}, nil
	}
	svc := newTestService(provider, &mocks.StubHealthChecker{})

	ident, err := svc.ResolveClaims(context.Background(), domainauth.Identity{SubjectID: "u1"})

	require.NoError(t, err)
	assert.True(t, ident.IsAdmin())
}
