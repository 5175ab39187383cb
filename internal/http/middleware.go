package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	apperrors "github.com/copperline/storefront/internal/errors"
)

const (
	sessionCookieName  = "session_id"
	rememberCookieName = "remember_token"

	loginPath = "/login"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
// The client never sees internal diagnostic detail; that goes to the
// operator-facing log only.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionConfig groups dependencies for the WithSession middleware.
type SessionConfig struct {
	Svc          AuthServiceInterface
	CookieDomain string
	// IsDev relaxes cookie security for plain-HTTP local serving and surfaces
	// error detail in responses.
	IsDev  bool
	Logger *slog.Logger
}

// WithSession resolves the visitor's session before any guard runs: it loads
// the session named by the cookie, creates a fresh anonymous session when
// there is none, and attempts remember-token re-authentication for anonymous
// visitors presenting a remember cookie. The resolved session travels in the
// request context as an explicitly passed handle; guards and handlers mutate
// it through that pointer and persist it via the auth service.
func WithSession(cfg SessionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := resolveSession(w, r, cfg)
			if !ok {
				return
			}

			if !sess.Authenticated() {
				if ok := tryRememberLogin(w, r, cfg, sess); !ok {
					return
				}
			}

			// The cookie is written once, after remember-token resolution may
			// have rotated the session ID. Writing it earlier would deliver a
			// second session_id cookie naming the deleted pre-rotation record.
			if sess.ID != presentedSessionID(r) {
				setSessionCookie(w, r, cfg.CookieDomain, cfg.IsDev, sess)
			}

			ctx := SetSessionInContext(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveSession loads or creates the visitor session. A false return means a
// store failure was already rendered as a generic 500. The caller owns the
// cookie write; the session ID is not final until remember-token resolution
// has run.
func resolveSession(w http.ResponseWriter, r *http.Request, cfg SessionConfig) (*domainauth.Session, bool) {
	if id := presentedSessionID(r); id != "" {
		sess, getErr := cfg.Svc.GetSession(r.Context(), id)
		if getErr == nil {
			return sess, true
		}
		if !apperrors.IsNotFound(getErr) {
			renderStoreFailure(w, r, cfg, getErr)
			return nil, false
		}
	}

	sess, err := cfg.Svc.NewSession(r.Context())
	if err != nil {
		renderStoreFailure(w, r, cfg, err)
		return nil, false
	}
	return sess, true
}

// presentedSessionID returns the session ID from the request cookie, or "".
func presentedSessionID(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// tryRememberLogin upgrades an anonymous session when a valid remember cookie
// is presented. Invalid or expired tokens clear the cookie and the visitor
// stays anonymous.
func tryRememberLogin(w http.ResponseWriter, r *http.Request, cfg SessionConfig, sess *domainauth.Session) bool {
	cookie, err := r.Cookie(rememberCookieName)
	if err != nil || cookie.Value == "" {
		return true
	}

	id, authErr := cfg.Svc.AuthenticateByToken(r.Context(), cookie.Value)
	switch {
	case authErr == nil:
		if estErr := cfg.Svc.EstablishSession(r.Context(), sess, id); estErr != nil {
			renderStoreFailure(w, r, cfg, estErr)
			return false
		}
		return true
	case errors.Is(authErr, domainauth.ErrInvalidToken):
		clearCookie(w, r, cfg.CookieDomain, cfg.IsDev, rememberCookieName)
		return true
	default:
		renderStoreFailure(w, r, cfg, authErr)
		return false
	}
}

func renderStoreFailure(w http.ResponseWriter, r *http.Request, cfg SessionConfig, err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(r.Context(), "session resolution failed", "error", err)
	WriteError(w, ErrorParams{
		Code:    http.StatusInternalServerError,
		ErrCode: "internal_error",
		Message: internalErrorMessage(cfg.IsDev, err),
	})
}

// internalErrorMessage hides fault detail from clients in production; dev
// mode shows the underlying error for easier debugging.
func internalErrorMessage(isDev bool, err error) string {
	if isDev && err != nil {
		return err.Error()
	}
	return "an internal error occurred"
}

// AccessOptions controls where browser requests land after an authorization
// failure. Zero value falls back to the site root.
type AccessOptions struct {
	DeniedPath string
}

// RequireAuth is a guard that rejects unauthenticated requests. Browser
// requests are redirected to the login page with the current URL as the
// return path; API requests get 401 JSON.
func RequireAuth() Guard {
	return func(r *http.Request) GuardResult {
		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.Authenticated() {
			return RejectWith(http.StatusUnauthorized, "authentication_required", domainauth.ErrUnauthenticated.Error())
		}
		return Continue()
	}
}

// RequireRole is a guard requiring the identity to hold one of the given
// roles. It escalates to the authentication guard first, then evaluates the
// role predicate.
func RequireRole(opts AccessOptions, roleIDs ...int64) Guard {
	auth := RequireAuth()
	return func(r *http.Request) GuardResult {
		if res := auth(r); !res.proceed {
			return res
		}
		if !domainauth.HasRole(IdentityFromContext(r.Context()), roleIDs...) {
			return RejectWith(http.StatusForbidden, "insufficient_permissions", domainauth.ErrForbidden.Error()).
				WithFallback(opts.DeniedPath)
		}
		return Continue()
	}
}

// RequirePermission is a guard requiring the identity to hold one of the
// given permission codes (superusers always pass).
func RequirePermission(opts AccessOptions, perms ...string) Guard {
	auth := RequireAuth()
	return func(r *http.Request) GuardResult {
		if res := auth(r); !res.proceed {
			return res
		}
		if !domainauth.HasPermission(IdentityFromContext(r.Context()), perms...) {
			return RejectWith(http.StatusForbidden, "insufficient_permissions", domainauth.ErrForbidden.Error()).
				WithFallback(opts.DeniedPath)
		}
		return Continue()
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that classifies requests as browser
// or API. Downstream guards and handlers use the classification to choose
// between redirects and JSON error bodies.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest classifies by path prefix and Accept header: /api/ routes
// are API, everything else with an HTML-accepting (or absent) Accept header
// is a browser request.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// redirectToLogin redirects browser requests to the login page with the
// current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	http.Redirect(w, r, loginPath+"?redirect_uri="+url.QueryEscape(redirectPath), http.StatusSeeOther)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative
// path starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// clientAddr extracts the client network address for shared rate limiting,
// preferring the first X-Forwarded-For hop.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// isSecureRequest checks whether the request arrived over HTTPS, accounting
// for proxies.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// cookieSecure decides the Secure attribute: always set outside dev mode, so
// the cookies never travel over plain HTTP in production even behind a proxy
// that drops X-Forwarded-Proto. Dev mode falls back to per-request detection
// so local plain-HTTP serving keeps working.
func cookieSecure(r *http.Request, isDev bool) bool {
	if !isDev {
		return true
	}
	return isSecureRequest(r)
}

// setSessionCookie writes the session cookie based on the session's expiry.
func setSessionCookie(w http.ResponseWriter, r *http.Request, domain string, isDev bool, sess *domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   cookieSecure(r, isDev),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
	})
}

// setRememberCookie delivers the raw remember-token secret: 30-day expiry,
// HTTP-only, secure, path "/".
func setRememberCookie(w http.ResponseWriter, r *http.Request, domain string, isDev bool, secret string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    secret,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   cookieSecure(r, isDev),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearCookie expires a cookie immediately, mirroring the attributes used
// when setting it so deletion works across browsers.
func clearCookie(w http.ResponseWriter, r *http.Request, domain string, isDev bool, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   cookieSecure(r, isDev),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
