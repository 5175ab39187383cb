package service

import (
	"context"
	"fmt"
	"time"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	"github.com/copperline/storefront/internal/ports"
)

// Decision is the outcome of a rate-limit check.
type Decision int

const (
	// Allow means the request is within budget.
	Allow Decision = iota
	// Reject means the request exceeded the window budget.
	Reject
)

// Policy describes one sliding-window budget.
type Policy struct {
	Max    int
	Window time.Duration
}

// BucketKey composes the limiter's storage key from the bucket name (e.g.
// "login") and the client identity (session id or remote address).
func BucketKey(bucket, client string) string {
	return bucket + ":" + client
}

// RateLimiter evaluates sliding-window budgets against a WindowStore.
//
// Every check prunes expired entries, appends the current timestamp, and then
// compares the count. A rejected attempt's timestamp is not rolled back, so a
// client hammering at the boundary stays rejected until older entries age out
// rather than recovering immediately.
type RateLimiter struct {
	clock ports.Clock
}

// NewRateLimiter constructs a RateLimiter. A nil clock uses system time.
func NewRateLimiter(clock ports.Clock) *RateLimiter {
	if clock == nil {
		clock = ports.RealClock{}
	}
	return &RateLimiter{clock: clock}
}

// Check records the current attempt in the window and decides.
func (l *RateLimiter) Check(ctx context.Context, store ports.WindowStore, key string, p Policy) (Decision, error) {
	count, err := store.Record(ctx, key, l.clock.Now(), p.Window)
	if err != nil {
		return Reject, fmt.Errorf("record rate-limit entry: %w", err)
	}
	if count > p.Max {
		return Reject, nil
	}
	return Allow, nil
}

// Peek reports whether the next Check for the key would be rejected, without
// consuming a slot.
func (l *RateLimiter) Peek(ctx context.Context, store ports.WindowStore, key string, p Policy) (bool, error) {
	count, err := store.Count(ctx, key, l.clock.Now(), p.Window)
	if err != nil {
		return false, fmt.Errorf("count rate-limit entries: %w", err)
	}
	return count >= p.Max, nil
}

// SessionWindows is the default WindowStore: buckets embedded in the
// visitor's session record. The limiter is therefore only effective within a
// single browser session; the Redis window store is the shared alternative
// for address-scoped limiting (see internal/adapters/redis).
//
// Mutations happen in memory; the caller persists the session afterwards.
type SessionWindows struct {
	Session *domainauth.Session
}

// Record prunes expired entries, appends now, and returns the new count.
func (w SessionWindows) Record(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	entries := pruneWindow(w.Session.Bucket(key), now, window)
	entries = append(entries, now)
	w.Session.SetBucket(key, entries)
	return len(entries), nil
}

// Count prunes expired entries and returns the count without appending.
func (w SessionWindows) Count(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	entries := pruneWindow(w.Session.Bucket(key), now, window)
	w.Session.SetBucket(key, entries)
	return len(entries), nil
}

// pruneWindow drops entries at or beyond the window's age. Entries are
// appended in order, so the first survivor bounds the rest.
func pruneWindow(entries []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
