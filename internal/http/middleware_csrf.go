package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/service"
)

const (
	// csrfFormField is the POST body field carrying the anti-forgery token.
	csrfFormField = "csrf_token"
	// csrfHeaderName is the header alternative for AJAX submissions (canonical form).
	csrfHeaderName = "X-Csrf-Token"
)

// CSRFGuard validates the session-bound anti-forgery token on state-changing
// requests. Safe methods pass through, but still ensure a token exists so
// pages rendered from them can embed it in forms. Validation uses a
// constant-time compare against the session's stored token.
func CSRFGuard(svc AuthServiceInterface) Guard {
	return func(r *http.Request) GuardResult {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			return RejectWith(http.StatusInternalServerError, "internal_error", "session not resolved")
		}

		if !requiresCSRFValidation(r.Method) {
			if sess.CSRFToken == "" {
				if _, err := service.EnsureCSRFToken(sess); err != nil {
					return RejectWith(http.StatusInternalServerError, "internal_error", "unable to generate CSRF token")
				}
				if err := svc.SaveSession(r.Context(), sess); err != nil {
					return RejectWith(http.StatusInternalServerError, "internal_error", "unable to persist session")
				}
			}
			return Continue()
		}

		supplied := suppliedCSRFToken(r)
		if supplied == "" {
			return RejectWith(http.StatusForbidden, "csrf_token_missing", domainauth.ErrMissingCSRFToken.Error())
		}
		if !service.ValidateCSRFToken(sess, supplied) {
			return RejectWith(http.StatusForbidden, "csrf_token_invalid", domainauth.ErrInvalidCSRFToken.Error())
		}
		return Continue()
	}
}

// requiresCSRFValidation returns true if the HTTP method requires CSRF
// validation. Safe methods (GET, HEAD, OPTIONS, TRACE) are exempt.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// suppliedCSRFToken reads the token from the X-Csrf-Token header (AJAX) or
// the csrf_token form field (standard form submissions).
func suppliedCSRFToken(r *http.Request) string {
	if token := r.Header.Get(csrfHeaderName); token != "" {
		return token
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.FormValue(csrfFormField)
	}

	return ""
}
