package httpx

import (
	"io"
	"net/http"
)

// healthHandler answers load balancer liveness probes. Unauthenticated on
// purpose: a probe has no session and must never need one.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, `{"status":"ok","service":"portal-api"}`)
}
