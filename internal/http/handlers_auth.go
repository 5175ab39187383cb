package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
)

// AuthServiceInterface defines the auth service operations the HTTP layer
// consumes.
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error)
	AuthenticateByToken(ctx context.Context, secret string) (domainauth.Identity, error)
	NewSession(ctx context.Context) (*domainauth.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	SaveSession(ctx context.Context, sess *domainauth.Session) error
	EstablishSession(ctx context.Context, sess *domainauth.Session, id domainauth.Identity) error
	IssueRememberToken(ctx context.Context, userID int64) (string, error)
	InvalidateRememberToken(ctx context.Context, userID int64, secret string) error
	Logout(ctx context.Context, sess *domainauth.Session, rememberSecret string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	RememberTTL  time.Duration
	// IsDev relaxes cookie security for plain-HTTP local serving and surfaces
	// error detail in responses.
	IsDev  bool
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login authenticates an email/password pair and establishes the session.
// POST /auth/login with form fields email, password, remember ("1" opts into
// a remember-me token) and an optional redirect_uri.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Message: "session not resolved"})
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Message: "unable to parse form"})
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	id, err := h.Svc.Authenticate(r.Context(), email, password)
	if err != nil {
		h.renderLoginFailure(w, r, err)
		return
	}

	if err := h.Svc.EstablishSession(r.Context(), sess, id); err != nil {
		h.logger().ErrorContext(r.Context(), "establish session failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Message: internalErrorMessage(h.IsDev, err)})
		return
	}
	setSessionCookie(w, r, h.CookieDomain, h.IsDev, sess)

	if r.PostFormValue("remember") == "1" {
		secret, tokenErr := h.Svc.IssueRememberToken(r.Context(), id.UserID)
		if tokenErr != nil {
			// The login itself succeeded; log and continue without the cookie.
			h.logger().ErrorContext(r.Context(), "issue remember token failed", "error", tokenErr, "user_id", id.UserID)
		} else {
			setRememberCookie(w, r, h.CookieDomain, h.IsDev, secret, h.rememberTTL())
		}
	}

	if IsBrowserRequest(r) {
		http.Redirect(w, r, safeRedirectPath(r.PostFormValue("redirect_uri")), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"user":   identityPayload(&id),
	})
}

func (h *AuthHandlers) renderLoginFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domainauth.ErrInvalidCredentials) {
		// One message for unknown email and wrong password alike.
		if IsBrowserRequest(r) {
			http.Redirect(w, r, loginPath+"?error=invalid_credentials", http.StatusSeeOther)
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_credentials",
			Message: domainauth.ErrInvalidCredentials.Error(),
		})
		return
	}

	h.logger().ErrorContext(r.Context(), "login failed", "error", err)
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Message: internalErrorMessage(h.IsDev, err)})
}

// Logout destroys the session, invalidates the presented remember token, and
// clears both cookies.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())

	var rememberSecret string
	if cookie, err := r.Cookie(rememberCookieName); err == nil {
		rememberSecret = cookie.Value
	}

	if err := h.Svc.Logout(r.Context(), sess, rememberSecret); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}

	clearCookie(w, r, h.CookieDomain, h.IsDev, sessionCookieName)
	clearCookie(w, r, h.CookieDomain, h.IsDev, rememberCookieName)

	if IsBrowserRequest(r) {
		redirectURI := r.FormValue("redirect_uri")
		if redirectURI == "" {
			redirectURI = r.URL.Query().Get("redirect_uri")
		}
		http.Redirect(w, r, safeRedirectPath(redirectURI), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Status returns the current authentication state.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok || !sess.Authenticated() {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          identityPayload(sess.User),
		"expires_at":    sess.ExpiresAt,
	})
}

func (h *AuthHandlers) rememberTTL() time.Duration {
	if h.RememberTTL > 0 {
		return h.RememberTTL
	}
	return 30 * 24 * time.Hour
}

func identityPayload(id *domainauth.Identity) map[string]any {
	return map[string]any{
		"id":          id.UserID,
		"email":       id.Email,
		"name":        id.Name,
		"roles":       id.RoleIDs,
		"permissions": id.Permissions,
	}
}
