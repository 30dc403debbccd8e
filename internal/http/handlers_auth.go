package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jhmh/portal-api/internal/errors"
)

const sessionCookieName = "session"

// defaultSessionMaxAge bounds the session cookie lifetime. The credential
// inside expires on its own schedule; this only caps how long browsers keep
// the cookie around.
const defaultSessionMaxAge = 7 * 24 * time.Hour

// AuthHandlers serves the login, logout and current-user endpoints.
type AuthHandlers struct {
	Svc           AuthServiceInterface
	CookieDomain  string
	SessionMaxAge time.Duration
	// IsDev lets the session cookie follow the request scheme. Outside dev
	// mode the cookie is always Secure.
	IsDev  bool
	Logger *slog.Logger
}

type loginRequest struct {
	IDToken string `json:"idToken"`
}

// Login verifies the submitted credential, applies the email domain policy,
// and on success installs the session cookie carrying the raw credential.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.IDToken = strings.TrimSpace(req.IDToken)
	if req.IDToken == "" {
		WriteAuthError(w, r, apperrors.MissingCredential("Le jeton d'identification est requis"), h.Logger)
		return
	}

	ident, err := h.Svc.Login(r.Context(), req.IDToken)
	if err != nil {
		WriteAuthError(w, r, err, h.Logger)
		return
	}

	maxAge := h.SessionMaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    req.IDToken,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.sessionCookieSecure(r),
		SameSite: http.SameSiteLaxMode,
	})

	// Login already returns a claims-complete identity.
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userPayload(ident),
	})
}

// Logout clears the session cookie. Idempotent: succeeds with or without an
// existing session.
func (h *AuthHandlers) Logout(w http.ResponseWriter, _ *http.Request) {
	clearSessionCookie(w)
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Déconnexion réussie",
	})
}

// Me re-verifies the session and returns the current user. Any verification
// failure clears the cookie so clients do not retry a dead session.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		clearSessionCookie(w)
		WriteAuthError(w, r, apperrors.MissingSession(), h.Logger)
		return
	}

	ident, err := h.Svc.VerifySession(r.Context(), cookie.Value)
	if err != nil {
		clearSessionCookie(w)
		WriteAuthError(w, r, err, h.Logger)
		return
	}

	ident, err = h.Svc.ResolveClaims(r.Context(), ident)
	if err != nil {
		clearSessionCookie(w)
		WriteAuthError(w, r, err, h.Logger)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userPayload(ident),
	})
}

func (h *AuthHandlers) sessionCookieSecure(r *http.Request) bool {
	return !h.IsDev || requestIsSecure(r)
}

func requestIsSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// clearSessionCookie expires the session cookie. Always Secure: the clear
// must reach the same cookie the login set over HTTPS.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
