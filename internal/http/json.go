package httpx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	domainauth "github.com/jhmh/portal-api/internal/domain/auth"
	apperrors "github.com/jhmh/portal-api/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination.
// Returns true if successful, false if an error response was already written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteAuthError(w, r, apperrors.MissingCredential("Requête invalide"), nil)
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// WriteAuthError writes the error envelope for an auth failure:
// {"success":false,"error":...,"code":...,"details":...}. Server-side causes
// are logged, never serialized.
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	authErr := apperrors.AsAuthError(err)

	if logger != nil && authErr.HTTPStatus() >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"kind", string(authErr.Kind),
			"error", err,
		)
	}

	body := map[string]any{
		"success": false,
		"error":   authErr.Message,
	}
	if authErr.Code != "" {
		body["code"] = authErr.Code
	}
	if len(authErr.Details) > 0 {
		body["details"] = authErr.Details
	}

	WriteJSON(w, authErr.HTTPStatus(), body)
}

// userPayload is the public view of an identity returned to clients.
func userPayload(ident domainauth.Identity) map[string]any {
	claims := ident.CustomClaims
	if claims == nil {
		claims = map[string]any{}
	}
	return map[string]any{
		"uid":           ident.SubjectID,
		"email":         ident.Email,
		"displayName":   ident.DisplayName,
		"photoURL":      ident.PictureURL,
		"emailVerified": ident.EmailVerified,
		"customClaims":  claims,
	}
}
