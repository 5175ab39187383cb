package httpx

import (
	"context"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across
// packages. Centralized here so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context carrying the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, sess *domainauth.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session from context and whether one is present.
func SessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if sess, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && sess != nil {
		return sess, true
	}
	return nil, false
}

// IdentityFromContext returns the authenticated identity, or nil for
// anonymous requests.
func IdentityFromContext(ctx context.Context) *domainauth.Identity {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return nil
	}
	return sess.User
}

// CSRFTokenFromContext returns the session's CSRF token for embedding into
// forms, or empty when no session is present or no token has been issued yet.
func CSRFTokenFromContext(ctx context.Context) string {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ""
	}
	return sess.CSRFToken
}
