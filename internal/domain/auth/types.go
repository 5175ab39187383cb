package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// SuperuserRoleID is the fixed role identifier that bypasses permission
// checks. Isolated behind IsSuperuser so the sentinel is changeable in one
// place; flagged to reviewers as a privilege-escalation risk if role ids are
// ever renumbered.
const SuperuserRoleID int64 = 1

// Identity is the immutable snapshot of an authenticated user taken at
// authentication time and cached in the session. It is not re-fetched per
// request unless re-authentication occurs.
type Identity struct {
	UserID      int64    `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	RoleIDs     []int64  `json:"role_ids"`
	Permissions []string `json:"permissions"`
}

// Session is the server-side record persisted per visitor, keyed by an opaque
// identifier delivered via cookie. It owns its CSRF token and rate-limit
// buckets; neither is shared between sessions.
type Session struct {
	ID        string                 `json:"id"`
	User      *Identity              `json:"user,omitempty"`
	CSRFToken string                 `json:"csrf_token,omitempty"`
	Buckets   map[string][]time.Time `json:"buckets,omitempty"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// Authenticated reports whether the session carries an identity.
func (s *Session) Authenticated() bool { return s != nil && s.User != nil }

// Bucket returns the timestamp sequence for the given composite rate-limit key.
func (s *Session) Bucket(key string) []time.Time {
	if s.Buckets == nil {
		return nil
	}
	return s.Buckets[key]
}

// SetBucket replaces the timestamp sequence for the given composite key.
// An empty sequence removes the bucket.
func (s *Session) SetBucket(key string, entries []time.Time) {
	if len(entries) == 0 {
		delete(s.Buckets, key)
		return
	}
	if s.Buckets == nil {
		s.Buckets = make(map[string][]time.Time)
	}
	s.Buckets[key] = entries
}

// ClearIdentity removes the identity snapshot and CSRF token, returning the
// session to the anonymous state. Rate-limit buckets survive so logout cannot
// be used to reset throttling.
func (s *Session) ClearIdentity() {
	s.User = nil
	s.CSRFToken = ""
}

// RememberToken is a long-lived secret enabling re-authentication without a
// password. The raw secret is stored server-side.
type RememberToken struct {
	UserID    int64     `json:"user_id"`
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expires_at"`
}
