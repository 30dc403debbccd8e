package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jhmh/portal-api/internal/adapters/jhmh"
)

// ProxyHandlers forwards authenticated requests to the JHMH backend API.
// Route-level access requirements are applied by the router; handlers here
// only map portal paths onto backend paths.
type ProxyHandlers struct {
	Backend *jhmh.Client
	Logger  *slog.Logger
}

// Reservations proxies /api/reservations/* to the backend reservations API.
func (h *ProxyHandlers) Reservations(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, "/api/reservations", "/reservations")
}

// Guests proxies /api/guests/* to the backend guests API.
func (h *ProxyHandlers) Guests(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, "/api/guests", "/guests")
}

// GregDocuments proxies /api/greg/documents/* to the backend document store.
func (h *ProxyHandlers) GregDocuments(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, "/api/greg/documents", "/greg/documents")
}

// GregSpaces proxies /api/greg/spaces/* to the backend space registry.
func (h *ProxyHandlers) GregSpaces(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, "/api/greg/spaces", "/greg/spaces")
}

func (h *ProxyHandlers) forward(w http.ResponseWriter, r *http.Request, portalPrefix, backendPrefix string) {
	if h.Backend == nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Service temporairement indisponible",
			"code":    "API_UNAVAILABLE",
		})
		return
	}
	// The escaped form keeps percent-encoded separators inside resource ids
	// intact across the hop.
	rest := strings.TrimPrefix(r.URL.EscapedPath(), portalPrefix)
	h.Backend.Forward(w, r, backendPrefix+rest)
}
