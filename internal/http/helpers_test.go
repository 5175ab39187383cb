package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/domain/model"
	mocks "github.com/copperline/storefront/internal/mocks/auth"
	"github.com/copperline/storefront/internal/service"
)

// testAuthStack bundles a real auth service with its in-memory backing stores
// so middleware tests exercise actual session semantics.
type testAuthStack struct {
	Svc      *service.AuthService
	Creds    *mocks.MemoryCredentialStore
	Sessions *mocks.MemorySessionStore
	Clock    *mocks.FakeClock
}

func newTestAuthStack(t *testing.T) *testAuthStack {
	t.Helper()
	creds := mocks.NewMemoryCredentialStore()
	sessions := mocks.NewMemorySessionStore()
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := service.NewAuthService(service.AuthServiceOptions{
		Credentials: creds,
		Sessions:    sessions,
		Clock:       clock,
	})
	return &testAuthStack{Svc: svc, Creds: creds, Sessions: sessions, Clock: clock}
}

// seedUser registers a user with the given password and returns it.
func (s *testAuthStack) seedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		ID:           7,
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		FirstName:    "Jane",
		LastName:     "Doe",
		Roles:        []model.Role{{ID: 2, Code: "customer"}},
		Permissions:  []string{"orders.read"},
	}
	s.Creds.AddUser(u)
	return u
}

// newSession mints a persisted session for direct middleware tests.
func (s *testAuthStack) newSession(t *testing.T) *domainauth.Session {
	t.Helper()
	sess, err := s.Svc.NewSession(context.Background())
	require.NoError(t, err)
	return sess
}

// requestWithSession returns an API-flavored request carrying the session in
// its context, bypassing the WithSession middleware.
func requestWithSession(method, target string, sess *domainauth.Session) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	return req.WithContext(SetSessionInContext(req.Context(), sess))
}

// memoryWindowStore is an in-process stand-in for the shared Redis window
// store.
type memoryWindowStore struct {
	windows map[string][]time.Time
}

func (m *memoryWindowStore) Record(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	entries := m.prune(key, now, window)
	entries = append(entries, now)
	m.windows[key] = entries
	return len(entries), nil
}

func (m *memoryWindowStore) Count(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	entries := m.prune(key, now, window)
	m.windows[key] = entries
	return len(entries), nil
}

func (m *memoryWindowStore) prune(key string, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	var kept []time.Time
	for _, ts := range m.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

// okHandler writes 200 so tests can tell whether the pipeline let the
// request through.
func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
