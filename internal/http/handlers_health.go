package httpx

import "net/http"

// healthHandler reports process liveness. Registered outside the session
// middleware so probes don't mint sessions.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
