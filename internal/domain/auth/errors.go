package auth

import "errors"

// Sentinel errors for the auth core. All are recoverable at the request
// boundary: guards convert them into redirects or structured JSON errors and
// never let them propagate as uncaught faults.
var (
	// ErrInvalidCredentials is returned for both unknown emails and password
	// mismatches. The two cases must stay indistinguishable to prevent user
	// enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned when a remember token is absent or expired.
	ErrInvalidToken = errors.New("invalid or expired remember token")

	// ErrMissingCSRFToken indicates a state-changing request without a token.
	ErrMissingCSRFToken = errors.New("missing CSRF token")

	// ErrInvalidCSRFToken indicates a supplied token that failed validation.
	ErrInvalidCSRFToken = errors.New("invalid CSRF token")

	// ErrRateLimited indicates the request exceeded a rate-limit window.
	ErrRateLimited = errors.New("too many requests")

	// ErrUnauthenticated indicates a protected resource was requested without
	// an authenticated session.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates the authenticated identity lacks the required
	// role or permission.
	ErrForbidden = errors.New("insufficient permissions")
)
