package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/domain/model"
	mocks "github.com/copperline/storefront/internal/mocks/auth"
)

func newTestUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &model.User{
		ID:           7,
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		FirstName:    "Jane",
		LastName:     "Doe",
		Roles:        []model.Role{{ID: 2, Code: "customer"}},
		Permissions:  []string{"orders.read"},
	}
}

func newTestAuthService(creds *mocks.MemoryCredentialStore, sessions *mocks.MemorySessionStore, clock *mocks.FakeClock) *AuthService {
	return NewAuthService(AuthServiceOptions{
		Credentials: creds,
		Sessions:    sessions,
		Clock:       clock,
	})
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	creds.AddUser(newTestUser(t, "hunter2!"))
	svc := newTestAuthService(creds, mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))

	id, err := svc.Authenticate(context.Background(), "jane@example.com", "hunter2!")

	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, "Jane Doe", id.Name)
	assert.Equal(t, []int64{2}, id.RoleIDs)
	assert.Equal(t, []string{"orders.read"}, id.Permissions)
}

func TestAuthService_Authenticate_UniformFailure(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	creds.AddUser(newTestUser(t, "hunter2!"))
	svc := newTestAuthService(creds, mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))

	_, wrongPassErr := svc.Authenticate(context.Background(), "jane@example.com", "wrong")
	_, unknownErr := svc.Authenticate(context.Background(), "nobody@example.com", "wrong")

	// Unknown email and wrong password are indistinguishable to the caller.
	require.ErrorIs(t, wrongPassErr, domainauth.ErrInvalidCredentials)
	require.ErrorIs(t, unknownErr, domainauth.ErrInvalidCredentials)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
}

func TestAuthService_Authenticate_StoreFailurePropagates(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	storeErr := errors.New("connection refused")
	creds.FindByEmailFunc = func(context.Context, string) (*model.User, error) {
		return nil, storeErr
	}
	svc := newTestAuthService(creds, mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))

	_, err := svc.Authenticate(context.Background(), "jane@example.com", "hunter2!")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domainauth.ErrInvalidCredentials)
	assert.ErrorIs(t, err, storeErr)
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(mocks.NewMemoryCredentialStore(), sessions, clock)
	ctx := context.Background()

	sess, err := svc.NewSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, clock.Now().Add(DefaultSessionTTL), sess.ExpiresAt)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(mocks.NewMemoryCredentialStore(), sessions, clock)
	ctx := context.Background()

	sess, err := svc.NewSession(ctx)
	require.NoError(t, err)

	clock.Advance(DefaultSessionTTL + time.Minute)

	_, err = svc.GetSession(ctx, sess.ID)
	require.Error(t, err)
	assert.Equal(t, 0, sessions.Len(), "expired session record is deleted on sight")
}

func TestAuthService_GetSession_EmptyID(t *testing.T) {
	svc := newTestAuthService(mocks.NewMemoryCredentialStore(), mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))

	_, err := svc.GetSession(context.Background(), "")
	require.Error(t, err)
}

func TestAuthService_EstablishSession_RotatesID(t *testing.T) {
	sessions := mocks.NewMemorySessionStore()
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(mocks.NewMemoryCredentialStore(), sessions, clock)
	ctx := context.Background()

	sess, err := svc.NewSession(ctx)
	require.NoError(t, err)
	preLoginID := sess.ID

	err = svc.EstablishSession(ctx, sess, domainauth.Identity{UserID: 7, Email: "jane@example.com"})
	require.NoError(t, err)

	assert.NotEqual(t, preLoginID, sess.ID, "session id rotates at login")
	assert.True(t, sess.Authenticated())

	_, err = svc.GetSession(ctx, preLoginID)
	require.Error(t, err, "pre-login id is no longer valid")

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.User.UserID)
}

func TestAuthService_RememberToken_RoundTrip(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	creds.AddUser(newTestUser(t, "hunter2!"))
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(creds, mocks.NewMemorySessionStore(), clock)
	ctx := context.Background()

	secret, err := svc.IssueRememberToken(ctx, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)

	id, err := svc.AuthenticateByToken(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)

	secret2, err := svc.IssueRememberToken(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, secret, secret2, "each issuance yields a distinct secret")
}

func TestAuthService_AuthenticateByToken_Invalid(t *testing.T) {
	svc := newTestAuthService(mocks.NewMemoryCredentialStore(), mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))

	_, err := svc.AuthenticateByToken(context.Background(), "")
	assert.ErrorIs(t, err, domainauth.ErrInvalidToken)

	_, err = svc.AuthenticateByToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domainauth.ErrInvalidToken)
}

func TestAuthService_AuthenticateByToken_ExpiredDeletesRecord(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	creds.AddUser(newTestUser(t, "hunter2!"))
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(creds, mocks.NewMemorySessionStore(), clock)
	ctx := context.Background()

	secret, err := svc.IssueRememberToken(ctx, 7)
	require.NoError(t, err)

	clock.Advance(DefaultRememberTTL + time.Hour)

	_, err = svc.AuthenticateByToken(ctx, secret)
	assert.ErrorIs(t, err, domainauth.ErrInvalidToken)
	assert.Equal(t, 0, creds.TokenCount(), "expired record is deleted on sight")
}

func TestAuthService_InvalidateRememberToken(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	creds.AddUser(newTestUser(t, "hunter2!"))
	svc := newTestAuthService(creds, mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))
	ctx := context.Background()

	secret, err := svc.IssueRememberToken(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateRememberToken(ctx, 7, secret))

	_, err = svc.AuthenticateByToken(ctx, secret)
	assert.ErrorIs(t, err, domainauth.ErrInvalidToken)

	// Deleting again is a no-op, not an error.
	require.NoError(t, svc.InvalidateRememberToken(ctx, 7, secret))
}

func TestAuthService_Logout(t *testing.T) {
	creds := mocks.NewMemoryCredentialStore()
	creds.AddUser(newTestUser(t, "hunter2!"))
	sessions := mocks.NewMemorySessionStore()
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := newTestAuthService(creds, sessions, clock)
	ctx := context.Background()

	sess, err := svc.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.EstablishSession(ctx, sess, domainauth.Identity{UserID: 7}))

	secret, err := svc.IssueRememberToken(ctx, 7)
	require.NoError(t, err)

	sessID := sess.ID
	require.NoError(t, svc.Logout(ctx, sess, secret))

	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.ID)
	assert.Equal(t, 0, creds.TokenCount(), "presented remember token is invalidated")

	_, err = svc.GetSession(ctx, sessID)
	require.Error(t, err, "session record is destroyed")
}

func TestAuthService_Logout_NilSession(t *testing.T) {
	svc := newTestAuthService(mocks.NewMemoryCredentialStore(), mocks.NewMemorySessionStore(), mocks.NewFakeClock(time.Now()))
	require.NoError(t, svc.Logout(context.Background(), nil, "whatever"))
}
