package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhmh/portal-api/internal/adapters/jhmh"
)

// PermissionGregWrite guards mutations on the greg document/space routes.
const PermissionGregWrite = "greg:write"

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          AuthServiceInterface
	Backend       *jhmh.Client
	CookieDomain  string
	SessionMaxAge time.Duration
	IsDev         bool
	// Optional: prometheus registry for the /metrics endpoint. When nil the
	// endpoint is not registered.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewRouter creates and configures the HTTP router: auth endpoints, the
// protected proxy surface, health and metrics.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:           services.Auth,
		CookieDomain:  services.CookieDomain,
		SessionMaxAge: services.SessionMaxAge,
		IsDev:         services.IsDev,
		Logger:        services.Logger,
	}
	proxyHandlers := &ProxyHandlers{Backend: services.Backend, Logger: services.Logger}

	registerAuthRoutes(mux, authHandlers)
	registerProxyRoutes(mux, proxyHandlers, services.Auth, services.Logger)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/me", h.Me)
}

func registerProxyRoutes(
	mux *http.ServeMux,
	h *ProxyHandlers,
	auth AuthServiceInterface,
	logger *slog.Logger,
) {
	session := RequireSession(auth, logger)
	adminOnly := RequireAccess(auth, AccessRequirements{Roles: []string{"admin"}}, logger)
	gregWrite := RequireAccess(auth, AccessRequirements{Permissions: []string{PermissionGregWrite}}, logger)

	// Reservations: reads and writes for any authenticated user, deletion
	// restricted to admins.
	for _, method := range []string{"GET", "POST", "PUT", "PATCH"} {
		mux.Handle(method+" /api/reservations/", session(http.HandlerFunc(h.Reservations)))
	}
	mux.Handle("DELETE /api/reservations/", adminOnly(http.HandlerFunc(h.Reservations)))

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		mux.Handle(method+" /api/guests/", session(http.HandlerFunc(h.Guests)))
	}

	// Greg document store and space registry: reads for any authenticated
	// user, mutations behind the greg:write permission.
	mux.Handle("GET /api/greg/documents/", session(http.HandlerFunc(h.GregDocuments)))
	mux.Handle("GET /api/greg/spaces/", session(http.HandlerFunc(h.GregSpaces)))
	for _, method := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		mux.Handle(method+" /api/greg/documents/", gregWrite(http.HandlerFunc(h.GregDocuments)))
		mux.Handle(method+" /api/greg/spaces/", gregWrite(http.HandlerFunc(h.GregSpaces)))
	}
}
