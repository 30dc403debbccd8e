package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	apperrors "github.com/jhmh/portal-api/internal/errors"
)

func postLogin(t *testing.T, h *AuthHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestLogin_Success(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}}

	rec := postLogin(t, h, `{"idToken":"good-token"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool           `json:"success"`
		User    map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "uid-123", body.User["uid"])
	assert.Equal(t, "marie@jhmh.com", body.User["email"])

	cookie := sessionCookie(t, rec)
	assert.Equal(t, "good-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Positive(t, cookie.MaxAge)
	// Outside dev mode the cookie is Secure even on a plain-HTTP request.
	assert.True(t, cookie.Secure)
}

func TestLogin_SecureCookieBehindTLSProxy(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}, IsDev: true}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"idToken":"good-token"}`))
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.True(t, sessionCookie(t, rec).Secure)
}

func TestLogin_DevModeCookieFollowsScheme(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}, IsDev: true}

	rec := postLogin(t, h, `{"idToken":"good-token"}`)

	// Dev mode over plain HTTP: a Secure cookie would never reach the
	// browser, so the attribute is dropped.
	assert.False(t, sessionCookie(t, rec).Secure)
}

func TestLogin_EmptyToken(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}}

	rec := postLogin(t, h, `{"idToken":"  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_MalformedBody(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}}

	rec := postLogin(t, h, `{"idToken":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_DomainRejected(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{
		loginFunc: func(_ context.Context, _ string) (domainauth.Identity, error) {
			return domainauth.Identity{}, apperrors.DomainNotAllowed("eve@gmail.com", "jhmh.com")
		},
	}}

	rec := postLogin(t, h, `{"idToken":"outsider-token"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	var body struct {
		Success bool           `json:"success"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "DOMAIN_NOT_ALLOWED", body.Code)
	assert.Equal(t, "eve@gmail.com", body.Details["attempted_email"])
	assert.Equal(t, "jhmh.com", body.Details["allowed_domain"])
}

func TestLogin_ProviderUnavailable(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{
		loginFunc: func(_ context.Context, _ string) (domainauth.Identity, error) {
			return domainauth.Identity{}, apperrors.ServiceUnavailable(
				"API_UNAVAILABLE", "Service temporairement indisponible", errors.New("health check failed"))
		},
	}}

	rec := postLogin(t, h, `{"idToken":"good-token"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"API_UNAVAILABLE"`)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "whatever"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
	// The clear carries Secure unconditionally so it matches the cookie a
	// login over HTTPS installed.
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestLogout_IdempotentWithoutSession(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Negative(t, sessionCookie(t, rec).MaxAge)
}

func TestMe_Success(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{
		resolveClaimsFunc: func(_ context.Context, ident domainauth.Identity) (domainauth.Identity, error) {
			ident.CustomClaims = map[string]any{"roles": []any{"staff"}}
			return ident, nil
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "valid-token"})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool           `json:"success"`
		User    map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "uid-123", body.User["uid"])
	assert.NotNil(t, body.User["customClaims"])
}

func TestMe_NoCookie(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Negative(t, sessionCookie(t, rec).MaxAge)
}

func TestMe_ExpiredSessionClearsCookie(t *testing.T) {
	h := &AuthHandlers{Svc: &mockAuthSvc{
		verifyFunc: func(_ context.Context, _ string) (domainauth.Identity, error) {
			return domainauth.Identity{}, apperrors.ExpiredSession(errors.New("token expired"))
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "stale-token"})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"TOKEN_EXPIRED"`)
	assert.Negative(t, sessionCookie(t, rec).MaxAge)
}
