package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/copperline/storefront/internal/ports"
	"github.com/copperline/storefront/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth    AuthServiceInterface
	Limiter *service.RateLimiter

	// SharedWindows, when set, moves rate limiting from per-session buckets to
	// the shared address-keyed store.
	SharedWindows ports.WindowStore
	LoginPolicy   service.Policy

	CookieDomain string
	RememberTTL  time.Duration
	// IsDev relaxes cookie security for plain-HTTP local serving and surfaces
	// error detail in responses.
	IsDev  bool
	Logger *slog.Logger
}

// NewRouter wires the guard pipeline and the auth surface. Out-of-scope
// collaborators (storefront pages, admin CRUD) mount their handlers the same
// way: register under the session-wrapped mux and compose Chain with the
// exported guards.
func NewRouter(services RouterServices) http.Handler {
	limiter := services.Limiter
	if limiter == nil {
		limiter = service.NewRateLimiter(nil)
	}
	loginPolicy := services.LoginPolicy
	if loginPolicy.Max <= 0 {
		loginPolicy = service.Policy{Max: 5, Window: time.Minute}
	}

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		RememberTTL:  services.RememberTTL,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	}

	csrf := CSRFGuard(services.Auth)
	loginRate := RateLimitGuard(RateLimitConfig{
		Svc:     services.Auth,
		Limiter: limiter,
		Bucket:  "login",
		Policy:  loginPolicy,
		Shared:  services.SharedWindows,
		Logger:  services.Logger,
	})

	mux := http.NewServeMux()
	mux.Handle("POST /auth/login", Chain(loginRate, csrf)(http.HandlerFunc(authHandlers.Login)))
	mux.Handle("POST /auth/logout", Chain(csrf)(http.HandlerFunc(authHandlers.Logout)))
	mux.Handle("GET /auth/status", Chain(csrf)(http.HandlerFunc(authHandlers.Status)))
	mux.Handle("GET /api/account", Chain(RequireAuth())(http.HandlerFunc(AccountHandler)))

	sessioned := WithSession(SessionConfig{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	})(mux)

	root := http.NewServeMux()
	root.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	root.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	root.Handle("/", sessioned)

	return BrowserDetection()(root)
}
