package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an authentication/authorization failure.
type Kind string

const (
	// KindMissingCredential indicates no bearer token was supplied.
	KindMissingCredential Kind = "missing_credential"
	// KindServiceUnavailable indicates the downstream API or the identity
	// provider client is not ready to serve requests.
	KindServiceUnavailable Kind = "service_unavailable"
	// KindInvalidCredential indicates a bearer token that failed verification.
	KindInvalidCredential Kind = "invalid_credential"
	// KindInvalidSession indicates a session cookie that failed re-verification.
	KindInvalidSession Kind = "invalid_session"
	// KindExpiredSession indicates a session whose credential has expired.
	KindExpiredSession Kind = "expired_session"
	// KindEmailRequired indicates a verified identity with no email attribute.
	KindEmailRequired Kind = "email_required"
	// KindDomainNotAllowed indicates an email outside the allowed domain.
	KindDomainNotAllowed Kind = "domain_not_allowed"
	// KindInsufficientPermissions indicates missing required permissions.
	KindInsufficientPermissions Kind = "insufficient_permissions"
	// KindInsufficientRole indicates none of the required roles are present.
	KindInsufficientRole Kind = "insufficient_role"
	// KindCustomValidationFailed indicates a custom identity predicate failed.
	KindCustomValidationFailed Kind = "custom_validation_failed"
	// KindMiddleware indicates an unexpected error inside the access gate.
	KindMiddleware Kind = "middleware_error"
)

// AuthError is a structured authentication error carrying a kind, a
// machine-checkable wire code, a human-readable message, and optional
// diagnostic details. It supports errors.Is/As through Unwrap.
type AuthError struct {
	Kind    Kind
	Message string
	// Code is the wire-level code exposed to clients (e.g. TOKEN_EXPIRED).
	// Empty for failures clients need not distinguish.
	Code string
	// Details is serialized into the response body. Never put secret
	// material or provider internals here.
	Details map[string]any
	// Cause is the underlying error. Logged server-side, never serialized.
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error { return e.Cause }

// HTTPStatus maps the error kind to an HTTP status code.
func (e *AuthError) HTTPStatus() int {
	switch e.Kind {
	case KindMissingCredential:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindInvalidCredential, KindInvalidSession, KindExpiredSession:
		return http.StatusUnauthorized
	case KindEmailRequired, KindDomainNotAllowed,
		KindInsufficientPermissions, KindInsufficientRole, KindCustomValidationFailed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// MissingCredential builds a KindMissingCredential error.
func MissingCredential(message string) *AuthError {
	return &AuthError{Kind: KindMissingCredential, Message: message}
}

// ServiceUnavailable builds a KindServiceUnavailable error with a wire code
// (API_UNAVAILABLE or AUTH_UNAVAILABLE).
func ServiceUnavailable(code, message string, cause error) *AuthError {
	return &AuthError{Kind: KindServiceUnavailable, Code: code, Message: message, Cause: cause}
}

// InvalidCredential builds a KindInvalidCredential error. The cause is kept
// for server-side logging only.
func InvalidCredential(cause error) *AuthError {
	return &AuthError{Kind: KindInvalidCredential, Message: "Identifiants invalides", Cause: cause}
}

// InvalidSession builds a KindInvalidSession error.
func InvalidSession(cause error) *AuthError {
	return &AuthError{Kind: KindInvalidSession, Message: "Session invalide", Cause: cause}
}

// MissingSession builds the 401 returned when no session cookie is present.
func MissingSession() *AuthError {
	return &AuthError{Kind: KindInvalidSession, Message: "Non autorisé"}
}

// ExpiredSession builds a KindExpiredSession error carrying the TOKEN_EXPIRED code.
func ExpiredSession(cause error) *AuthError {
	return &AuthError{
		Kind:    KindExpiredSession,
		Code:    "TOKEN_EXPIRED",
		Message: "Session expirée, veuillez vous reconnecter",
		Cause:   cause,
	}
}

// EmailRequired builds a KindEmailRequired error.
func EmailRequired() *AuthError {
	return &AuthError{
		Kind:    KindEmailRequired,
		Code:    "EMAIL_REQUIRED",
		Message: "Une adresse email est requise pour ce compte",
	}
}

// DomainNotAllowed builds a KindDomainNotAllowed error. The attempted email
// and the allowed domain ride in Details for client-side messaging.
func DomainNotAllowed(attemptedEmail, allowedDomain string) *AuthError {
	return &AuthError{
		Kind:    KindDomainNotAllowed,
		Code:    "DOMAIN_NOT_ALLOWED",
		Message: fmt.Sprintf("Seules les adresses @%s sont autorisées", allowedDomain),
		Details: map[string]any{
			"attempted_email": attemptedEmail,
			"allowed_domain":  allowedDomain,
		},
	}
}

// InsufficientPermissions builds a 403 carrying required-vs-actual sets.
func InsufficientPermissions(required, actual []string) *AuthError {
	return &AuthError{
		Kind:    KindInsufficientPermissions,
		Message: "Permissions insuffisantes",
		Details: map[string]any{
			"required_permissions": required,
			"actual_permissions":   actual,
		},
	}
}

// InsufficientRole builds a 403 carrying required-vs-actual sets.
func InsufficientRole(required, actual []string) *AuthError {
	return &AuthError{
		Kind:    KindInsufficientRole,
		Message: "Rôle insuffisant",
		Details: map[string]any{
			"required_roles": required,
			"actual_roles":   actual,
		},
	}
}

// CustomValidationFailed builds a 403 for a failed custom identity predicate.
func CustomValidationFailed(cause error) *AuthError {
	return &AuthError{Kind: KindCustomValidationFailed, Message: "Accès refusé", Cause: cause}
}

// Middleware builds a KindMiddleware error for unexpected gate failures.
func Middleware(cause error) *AuthError {
	return &AuthError{Kind: KindMiddleware, Message: "Erreur interne", Cause: cause}
}

// AsAuthError extracts an *AuthError from err, or wraps err as a middleware
// error when it is of any other type.
func AsAuthError(err error) *AuthError {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return Middleware(err)
}

// IsKind reports whether err is an AuthError of the given kind.
func IsKind(err error, kind Kind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}
