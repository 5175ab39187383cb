package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/domain/model"
	apperrors "github.com/copperline/storefront/internal/errors"
	"github.com/copperline/storefront/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialStore = (*MemoryCredentialStore)(nil)
	_ ports.SessionStore    = (*MemorySessionStore)(nil)
	_ ports.Clock           = (*FakeClock)(nil)
)

// MemoryCredentialStore is an in-memory credential store for unit tests.
// Per-method Func hooks override the default map-backed behavior.
type MemoryCredentialStore struct {
	FindByEmailFunc func(ctx context.Context, email string) (*model.User, error)

	users  map[string]*model.User
	tokens map[string]*model.RememberTokenRecord
	nextID int64
}

// NewMemoryCredentialStore creates an empty MemoryCredentialStore.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		users:  make(map[string]*model.User),
		tokens: make(map[string]*model.RememberTokenRecord),
	}
}

// AddUser registers a user for lookup by email.
func (m *MemoryCredentialStore) AddUser(u *model.User) {
	m.users[u.Email] = u
}

// AddToken registers a pre-existing remember token record.
func (m *MemoryCredentialStore) AddToken(rec *model.RememberTokenRecord) {
	m.tokens[rec.Secret] = rec
}

// TokenCount reports the number of stored remember tokens.
func (m *MemoryCredentialStore) TokenCount() int {
	return len(m.tokens)
}

func (m *MemoryCredentialStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	u, ok := m.users[email]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return u, nil
}

func (m *MemoryCredentialStore) FindByRememberToken(_ context.Context, secret string) (*model.User, *model.RememberTokenRecord, error) {
	rec, ok := m.tokens[secret]
	if !ok {
		return nil, nil, apperrors.NotFound("remember token not found")
	}
	for _, u := range m.users {
		if u.ID == rec.UserID {
			return u, rec, nil
		}
	}
	return nil, nil, apperrors.NotFound("user not found")
}

func (m *MemoryCredentialStore) SaveRememberToken(_ context.Context, userID int64, secret string, expiresAt time.Time) error {
	if secret == "" {
		return errors.New("token secret cannot be empty")
	}
	m.nextID++
	m.tokens[secret] = &model.RememberTokenRecord{
		ID:        m.nextID,
		UserID:    userID,
		Secret:    secret,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *MemoryCredentialStore) DeleteRememberToken(_ context.Context, userID int64, secret string) error {
	rec, ok := m.tokens[secret]
	if ok && rec.UserID == userID {
		delete(m.tokens, secret)
	}
	return nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	sessions map[string]domainauth.Session

	// SaveErr, when set, is returned by Save to simulate store failures.
	SaveErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, apperrors.NotFound("session not found")
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	return len(m.sessions)
}

// FakeClock is a settable clock for deterministic window and expiry tests.
type FakeClock struct {
	T time.Time
}

// NewFakeClock creates a FakeClock pinned to the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{T: t}
}

// Now returns the pinned time.
func (c *FakeClock) Now() time.Time { return c.T }

// Advance moves the pinned time forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
