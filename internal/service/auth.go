package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/domain/model"
	apperrors "github.com/copperline/storefront/internal/errors"
	"github.com/copperline/storefront/internal/ports"
)

const (
	// DefaultSessionTTL bounds how long an idle session record survives.
	DefaultSessionTTL = 12 * time.Hour
	// DefaultRememberTTL is the remember-token lifetime.
	DefaultRememberTTL = 30 * 24 * time.Hour

	rememberSecretBytes = 32
)

// dummyPasswordHash is compared against when the email is unknown so the
// unknown-email and wrong-password paths take comparable time.
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Credentials ports.CredentialStore
	Sessions    ports.SessionStore
	Clock       ports.Clock
	SessionTTL  time.Duration
	RememberTTL time.Duration
}

// AuthService orchestrates credential and remember-token authentication,
// session establishment and teardown, and remember-token lifecycle.
//
// State machine per session: Anonymous → Authenticated (password or valid
// remember token) → Anonymous (logout or session destroy). Authentication is
// atomic per request; there are no intermediate states.
type AuthService struct {
	creds       ports.CredentialStore
	sessions    ports.SessionStore
	clock       ports.Clock
	sessionTTL  time.Duration
	rememberTTL time.Duration
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	clock := opts.Clock
	if clock == nil {
		clock = ports.RealClock{}
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	rememberTTL := opts.RememberTTL
	if rememberTTL <= 0 {
		rememberTTL = DefaultRememberTTL
	}
	return &AuthService{
		creds:       opts.Credentials,
		sessions:    opts.Sessions,
		clock:       clock,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
	}
}

// IsAuthenticated reports whether the session carries an identity.
func (s *AuthService) IsAuthenticated(sess *domainauth.Session) bool {
	return sess.Authenticated()
}

// Authenticate verifies the email/password pair against the credential store.
// Unknown emails and hash mismatches both return ErrInvalidCredentials with an
// identical message; a dummy hash comparison runs on the unknown-email path so
// the two cases stay indistinguishable by timing as well.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error) {
	user, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Burn comparable time before rejecting.
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return domainauth.Identity{}, domainauth.ErrInvalidCredentials
		}
		return domainauth.Identity{}, fmt.Errorf("find user by email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domainauth.Identity{}, domainauth.ErrInvalidCredentials
	}

	return identityFromUser(user), nil
}

// NewSession creates and persists an anonymous session.
func (s *AuthService) NewSession(ctx context.Context) (*domainauth.Session, error) {
	sess := &domainauth.Session{
		ID:        uuid.NewString(),
		ExpiresAt: s.clock.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by its opaque identifier.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotFound("session not found")
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s.clock.Now().After(sess.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, fmt.Errorf("delete expired session: %w", deleteErr)
		}
		return nil, apperrors.NotFound("session expired")
	}
	return &sess, nil
}

// SaveSession persists the current state of the session (identity, CSRF
// token, rate-limit buckets). Call after mutating the session in a request.
func (s *AuthService) SaveSession(ctx context.Context, sess *domainauth.Session) error {
	if err := s.sessions.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// EstablishSession writes the identity snapshot into the session and rotates
// the session identifier so a pre-login id cannot be replayed into an
// authenticated one. Must be called only after successful authentication.
func (s *AuthService) EstablishSession(ctx context.Context, sess *domainauth.Session, id domainauth.Identity) error {
	oldID := sess.ID
	sess.ID = uuid.NewString()
	sess.User = &id
	sess.ExpiresAt = s.clock.Now().Add(s.sessionTTL)

	if err := s.sessions.Save(ctx, *sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if oldID != "" {
		if err := s.sessions.Delete(ctx, oldID); err != nil {
			return fmt.Errorf("delete pre-login session: %w", err)
		}
	}
	return nil
}

// IssueRememberToken generates a 256-bit random secret, persists it with a
// 30-day expiry keyed to the user, and returns the raw secret for cookie
// delivery. The raw secret (not a hash) is stored server-side.
func (s *AuthService) IssueRememberToken(ctx context.Context, userID int64) (string, error) {
	raw := make([]byte, rememberSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate remember token: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)

	expiresAt := s.clock.Now().Add(s.rememberTTL)
	if err := s.creds.SaveRememberToken(ctx, userID, secret, expiresAt); err != nil {
		return "", fmt.Errorf("save remember token: %w", err)
	}
	return secret, nil
}

// AuthenticateByToken resolves a remember-token secret into an identity.
// Absent and expired tokens both return ErrInvalidToken; expired rows are
// deleted on sight. The caller is responsible for calling EstablishSession.
func (s *AuthService) AuthenticateByToken(ctx context.Context, secret string) (domainauth.Identity, error) {
	if secret == "" {
		return domainauth.Identity{}, domainauth.ErrInvalidToken
	}

	user, token, err := s.creds.FindByRememberToken(ctx, secret)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domainauth.Identity{}, domainauth.ErrInvalidToken
		}
		return domainauth.Identity{}, fmt.Errorf("find user by remember token: %w", err)
	}

	if token.Expired(s.clock.Now()) {
		if deleteErr := s.creds.DeleteRememberToken(ctx, token.UserID, secret); deleteErr != nil {
			return domainauth.Identity{}, fmt.Errorf("delete expired remember token: %w", deleteErr)
		}
		return domainauth.Identity{}, domainauth.ErrInvalidToken
	}

	return identityFromUser(user), nil
}

// InvalidateRememberToken deletes the specific token record. Already-absent
// records are not an error.
func (s *AuthService) InvalidateRememberToken(ctx context.Context, userID int64, secret string) error {
	if err := s.creds.DeleteRememberToken(ctx, userID, secret); err != nil {
		return fmt.Errorf("delete remember token: %w", err)
	}
	return nil
}

// Logout clears the session's identity and CSRF token, deletes the remember
// token presented by the current cookie (if any), and destroys the session
// record so its identifier cannot be reused.
func (s *AuthService) Logout(ctx context.Context, sess *domainauth.Session, rememberSecret string) error {
	if sess == nil {
		return nil
	}

	if rememberSecret != "" && sess.User != nil {
		if err := s.creds.DeleteRememberToken(ctx, sess.User.UserID, rememberSecret); err != nil {
			return fmt.Errorf("delete remember token: %w", err)
		}
	}

	sess.ClearIdentity()

	if sess.ID != "" {
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		sess.ID = ""
	}
	return nil
}

// identityFromUser takes the immutable identity snapshot cached in the session.
func identityFromUser(u *model.User) domainauth.Identity {
	perms := append([]string(nil), u.Permissions...)
	return domainauth.Identity{
		UserID:      u.ID,
		Email:       u.Email,
		Name:        u.DisplayName(),
		RoleIDs:     u.RoleIDs(),
		Permissions: perms,
	}
}
