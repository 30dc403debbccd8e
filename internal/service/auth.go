package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	apperrors "github.com/jhmh/portal-api/internal/errors"
	"github.com/jhmh/portal-api/internal/metrics"
	"github.com/jhmh/portal-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	// Provider is the identity provider. May be nil when auth is not
	// configured; every operation then fails with AUTH_UNAVAILABLE.
	Provider ports.IdentityProvider
	// API is the downstream data API health check consulted before login.
	API ports.HealthChecker
	// Denylist records cleaned-up subjects. Optional.
	Denylist ports.Denylist
	// Claims maps custom claims to roles/permissions. Defaults when nil.
	Claims *ClaimsMapper

	AllowedDomain string
	// DenyTTL bounds denylist entries; it should cover the maximum
	// credential lifetime.
	DenyTTL time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// AuthService orchestrates the login flow and the per-request session
// verification. It holds no cross-request state: every session check is an
// independent re-verification against the identity provider.
type AuthService struct {
	provider ports.IdentityProvider
	api      ports.HealthChecker
	denylist ports.Denylist
	claims   *ClaimsMapper

	allowedDomain string
	denyTTL       time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
}

const defaultDenyTTL = 2 * time.Hour

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	claims := opts.Claims
	if claims == nil {
		// Defaults cannot fail to compile.
		claims, _ = NewClaimsMapper("", "")
	}
	denyTTL := opts.DenyTTL
	if denyTTL <= 0 {
		denyTTL = defaultDenyTTL
	}
	return &AuthService{
		provider:      opts.Provider,
		api:           opts.API,
		denylist:      opts.Denylist,
		claims:        claims,
		allowedDomain: opts.AllowedDomain,
		denyTTL:       denyTTL,
		logger:        logger,
		metrics:       opts.Metrics,
	}
}

// AllowedDomain returns the configured organizational email domain.
func (s *AuthService) AllowedDomain() string { return s.allowedDomain }

// Login authenticates a bearer credential and returns the identity to bind
// to the session cookie. The ordering is deliberate: downstream health is
// checked before any identity work, so no verification cycle is wasted on a
// backend that cannot serve data anyway.
func (s *AuthService) Login(ctx context.Context, idToken string) (domainauth.Identity, error) {
	ident, err := s.login(ctx, idToken)
	if err != nil {
		s.metrics.ObserveLogin(string(apperrors.AsAuthError(err).Kind))
		return domainauth.Identity{}, err
	}
	s.metrics.ObserveLogin("success")
	return ident, nil
}

func (s *AuthService) login(ctx context.Context, idToken string) (domainauth.Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return domainauth.Identity{}, apperrors.MissingCredential("Un jeton d'identification est requis")
	}

	if s.provider == nil {
		return domainauth.Identity{}, apperrors.ServiceUnavailable(
			"AUTH_UNAVAILABLE", "Service d'authentification indisponible", nil)
	}

	if s.api != nil {
		if err := s.api.Health(ctx); err != nil {
			return domainauth.Identity{}, apperrors.ServiceUnavailable(
				"API_UNAVAILABLE", "API indisponible, veuillez réessayer plus tard", err)
		}
	}

	ident, err := s.provider.VerifyToken(ctx, idToken)
	if err != nil {
		// All verification failures look identical to the client at login;
		// provider detail stays server-side.
		return domainauth.Identity{}, apperrors.InvalidCredential(err)
	}

	if ident.Email == "" {
		s.cleanup(ctx, ident.SubjectID, "email missing")
		return domainauth.Identity{}, apperrors.EmailRequired()
	}

	if !domainauth.IsEmailAllowed(ident.Email, s.allowedDomain) {
		s.cleanup(ctx, ident.SubjectID, "domain not allowed")
		return domainauth.Identity{}, apperrors.DomainNotAllowed(ident.Email, s.allowedDomain)
	}

	record, err := s.provider.GetUser(ctx, ident.SubjectID)
	if err != nil {
		return domainauth.Identity{}, apperrors.InvalidCredential(fmt.Errorf("fetch user record: %w", err))
	}
	s.claims.Apply(&ident, record.CustomClaims)

	return ident, nil
}

// VerifySession re-validates a session cookie value against the identity
// provider and returns the current identity. The session artifact carries no
// independent trust; a failed re-verification invalidates it.
func (s *AuthService) VerifySession(ctx context.Context, cookieValue string) (domainauth.Identity, error) {
	ident, err := s.verifySession(ctx, cookieValue)
	if err != nil {
		s.metrics.ObserveSessionCheck(string(apperrors.AsAuthError(err).Kind))
		return domainauth.Identity{}, err
	}
	s.metrics.ObserveSessionCheck("success")
	return ident, nil
}

func (s *AuthService) verifySession(ctx context.Context, cookieValue string) (domainauth.Identity, error) {
	if cookieValue == "" {
		return domainauth.Identity{}, apperrors.MissingSession()
	}

	// Distinguish "backend misconfigured" from "not logged in".
	if s.provider == nil {
		return domainauth.Identity{}, apperrors.ServiceUnavailable(
			"AUTH_UNAVAILABLE", "Service d'authentification indisponible", nil)
	}

	ident, err := s.provider.VerifyToken(ctx, cookieValue)
	if err != nil {
		if errors.Is(err, ports.ErrTokenExpired) {
			return domainauth.Identity{}, apperrors.ExpiredSession(err)
		}
		return domainauth.Identity{}, apperrors.InvalidSession(err)
	}

	if s.denylist != nil {
		denied, denyErr := s.denylist.IsDenied(ctx, ident.SubjectID)
		if denyErr != nil {
			// Fail open: the provider already vouched for the token and the
			// denylist is only a propagation-delay safety net.
			s.logger.WarnContext(ctx, "denylist lookup failed", "error", denyErr)
		} else if denied {
			return domainauth.Identity{}, apperrors.InvalidSession(errors.New("subject is denied"))
		}
	}

	return ident, nil
}

// ResolveClaims augments a verified identity with the provider-held custom
// claims. Callers that only need authentication skip this extra round trip.
func (s *AuthService) ResolveClaims(ctx context.Context, ident domainauth.Identity) (domainauth.Identity, error) {
	if s.provider == nil {
		return ident, apperrors.ServiceUnavailable(
			"AUTH_UNAVAILABLE", "Service d'authentification indisponible", nil)
	}
	record, err := s.provider.GetUser(ctx, ident.SubjectID)
	if err != nil {
		return ident, apperrors.InvalidSession(fmt.Errorf("fetch user record: %w", err))
	}
	s.claims.Apply(&ident, record.CustomClaims)
	return ident, nil
}

// cleanup deletes an identity record that failed policy checks and records
// the subject on the denylist. Best-effort on both counts: failure is logged
// and swallowed, the denial itself is already achieved by not issuing a
// session.
func (s *AuthService) cleanup(ctx context.Context, subjectID, reason string) {
	if subjectID == "" {
		return
	}

	if err := s.provider.DeleteUser(ctx, subjectID); err != nil {
		s.metrics.ObserveCleanup("error")
		s.logger.ErrorContext(ctx, "identity cleanup failed",
			"subject_id", subjectID, "reason", reason, "error", err)
	} else {
		s.metrics.ObserveCleanup("ok")
		s.logger.InfoContext(ctx, "identity deleted after policy rejection",
			"subject_id", subjectID, "reason", reason)
	}

	if s.denylist != nil {
		if err := s.denylist.Deny(ctx, subjectID, s.denyTTL); err != nil {
			s.logger.WarnContext(ctx, "denylist record failed",
				"subject_id", subjectID, "error", err)
		}
	}
}
