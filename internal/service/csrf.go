package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
)

// csrfTokenBytes yields a 256-bit token before encoding.
const csrfTokenBytes = 32

// EnsureCSRFToken returns the session's anti-forgery token, generating and
// storing one on first use. Tokens live for the session's lifetime and are
// not rotated per request. The caller persists the session after a new token
// is generated.
func EnsureCSRFToken(sess *domainauth.Session) (string, error) {
	if sess.CSRFToken != "" {
		return sess.CSRFToken, nil
	}
	raw := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		// Fail closed rather than fall back to a predictable token.
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	sess.CSRFToken = base64.RawURLEncoding.EncodeToString(raw)
	return sess.CSRFToken, nil
}

// ValidateCSRFToken reports whether the supplied token matches the session's
// stored token. False when either is empty. The comparison is constant-time
// so neither the token length nor the position of the first mismatched byte
// leaks through timing.
func ValidateCSRFToken(sess *domainauth.Session, supplied string) bool {
	if sess == nil || sess.CSRFToken == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(sess.CSRFToken)) == 1
}
