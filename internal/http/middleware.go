package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	apperrors "github.com/jhmh/portal-api/internal/errors"
)

// AuthServiceInterface defines the auth service operations consumed by the
// HTTP layer.
type AuthServiceInterface interface {
	Login(ctx context.Context, idToken string) (domainauth.Identity, error)
	VerifySession(ctx context.Context, cookieValue string) (domainauth.Identity, error)
	ResolveClaims(ctx context.Context, ident domainauth.Identity) (domainauth.Identity, error)
	AllowedDomain() string
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", GetRequestID(r.Context())),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequestID returns a middleware that assigns each request an id, echoed in
// the X-Request-Id response header and available via GetRequestID.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AccessRequirements are the authorization checks applied by the access gate
// after successful session verification, in order: permissions (ALL of the
// set, bypassed by the admin role), then roles (ANY of the set), then the
// custom predicate.
type AccessRequirements struct {
	Permissions []string
	Roles       []string
	Check       func(domainauth.Identity) error
}

func (a AccessRequirements) needsClaims() bool {
	return len(a.Permissions) > 0 || len(a.Roles) > 0 || a.Check != nil
}

// RequireSession returns a middleware that requires a valid session and puts
// the resolved identity on the request context. No authorization checks.
func RequireSession(svc AuthServiceInterface, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireAccess(svc, AccessRequirements{}, logger)
}

// RequireAccess returns the access gate middleware: session verification
// followed by the given authorization requirements. On failure the downstream
// handler is never invoked and the session cookie is cleared on 401s.
func RequireAccess(svc AuthServiceInterface, reqs AccessRequirements, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "access gate panic",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()))
					WriteAuthError(w, r, apperrors.Middleware(errors.New("panic in access gate")), nil)
				}
			}()

			ident, err := resolveRequestIdentity(r, svc, reqs)
			if err != nil {
				if apperrors.AsAuthError(err).HTTPStatus() == http.StatusUnauthorized {
					clearSessionCookie(w)
				}
				WriteAuthError(w, r, err, logger)
				return
			}

			if authzErr := checkRequirements(ident, reqs); authzErr != nil {
				WriteAuthError(w, r, authzErr, logger)
				return
			}

			ctx := SetIdentityInContext(r.Context(), &ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveRequestIdentity verifies the session cookie and, when the gate has
// authorization requirements, augments the identity with custom claims.
func resolveRequestIdentity(
	r *http.Request,
	svc AuthServiceInterface,
	reqs AccessRequirements,
) (domainauth.Identity, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return domainauth.Identity{}, apperrors.MissingSession()
	}

	ident, err := svc.VerifySession(r.Context(), cookie.Value)
	if err != nil {
		return domainauth.Identity{}, err
	}

	if reqs.needsClaims() {
		ident, err = svc.ResolveClaims(r.Context(), ident)
		if err != nil {
			return domainauth.Identity{}, err
		}
	}

	return ident, nil
}

func checkRequirements(ident domainauth.Identity, reqs AccessRequirements) error {
	// Admins bypass permission checks, not role checks.
	if len(reqs.Permissions) > 0 && !ident.IsAdmin() {
		for _, perm := range reqs.Permissions {
			if !ident.HasPermission(perm) {
				return apperrors.InsufficientPermissions(reqs.Permissions, ident.Permissions)
			}
		}
	}

	if len(reqs.Roles) > 0 {
		anyRole := false
		for _, role := range reqs.Roles {
			if ident.HasRole(role) {
				anyRole = true
				break
			}
		}
		if !anyRole {
			return apperrors.InsufficientRole(reqs.Roles, ident.Roles)
		}
	}

	if reqs.Check != nil {
		if err := reqs.Check(ident); err != nil {
			return apperrors.CustomValidationFailed(err)
		}
	}

	return nil
}
