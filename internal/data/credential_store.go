package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/copperline/storefront/internal/domain/model"
	"github.com/copperline/storefront/internal/ports"
)

// CredentialStore bundles the user and remember-token repositories behind the
// single port the auth service consumes.
type CredentialStore struct {
	Users  *UserRepo
	Tokens *RememberTokenRepo
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore creates a CredentialStore over the shared database pool.
func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{
		Users:  NewUserRepo(db),
		Tokens: NewRememberTokenRepo(db),
	}
}

// FindByEmail returns the user with the given email including roles and
// permissions, or a not-found error.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.Users.FindByEmail(ctx, email)
}

// FindByRememberToken resolves the raw token secret to its record and the
// owning user. Expiry is the caller's concern; the row is returned as stored.
func (s *CredentialStore) FindByRememberToken(ctx context.Context, secret string) (*model.User, *model.RememberTokenRecord, error) {
	rec, err := s.Tokens.FindBySecret(ctx, secret)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.Users.FindByID(ctx, rec.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, rec, nil
}

// SaveRememberToken persists a new remember token for the user.
func (s *CredentialStore) SaveRememberToken(ctx context.Context, userID int64, secret string, expiresAt time.Time) error {
	return s.Tokens.Save(ctx, userID, secret, expiresAt)
}

// DeleteRememberToken removes the token record if present.
func (s *CredentialStore) DeleteRememberToken(ctx context.Context, userID int64, secret string) error {
	return s.Tokens.Delete(ctx, userID, secret)
}
