package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/data and internal/adapters; orchestration
// in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/domain/model"
)

// CredentialStore is the narrow query surface the core consumes from the
// relational user store. Implementations must treat each call as atomic;
// consistency across calls is out of scope for the core.
type CredentialStore interface {
	// FindByEmail returns the user with the given email, including roles and
	// permissions, or a not-found error. Lookup is case-sensitive as stored.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByRememberToken returns the user owning the given raw token secret
	// together with the token record, or a not-found error.
	FindByRememberToken(ctx context.Context, secret string) (*model.User, *model.RememberTokenRecord, error)

	// SaveRememberToken persists a new remember token for the user.
	SaveRememberToken(ctx context.Context, userID int64, secret string, expiresAt time.Time) error

	// DeleteRememberToken removes the token record; it is a no-op (not an
	// error) when the record is already absent.
	DeleteRememberToken(ctx context.Context, userID int64, secret string) error
}

// SessionStore persists and retrieves per-visitor sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// WindowStore records and counts timestamps for sliding rate-limit windows,
// keyed by a composite bucket+client key.
type WindowStore interface {
	// Record prunes entries older than window, appends now, and returns the
	// resulting count.
	Record(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)

	// Count prunes entries older than window and returns the count without
	// appending.
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)
}

// Clock abstracts time so rate-limit windows and token expiries are testable.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time { return time.Now() }
