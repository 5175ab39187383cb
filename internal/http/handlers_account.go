package httpx

import "net/http"

// AccountHandler returns the authenticated identity snapshot.
// GET /api/account, behind the authentication guard.
func AccountHandler(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		// The guard should have rejected already; don't leak anything here.
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Message: "authentication required",
		})
		return
	}
	WriteJSON(w, http.StatusOK, identityPayload(id))
}
