package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/copperline/storefront/internal/domain/auth"
	mocks "github.com/copperline/storefront/internal/mocks/auth"
)

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "login:sess-1", BucketKey("login", "sess-1"))
	assert.Equal(t, "contact:10.0.0.1", BucketKey("contact", "10.0.0.1"))
}

func TestRateLimiter_Check_AllowsUpToMax(t *testing.T) {
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(clock)
	sess := &domainauth.Session{ID: "s1"}
	store := SessionWindows{Session: sess}
	policy := Policy{Max: 3, Window: time.Minute}
	ctx := context.Background()
	key := BucketKey("login", sess.ID)

	for i := 0; i < 3; i++ {
		decision, err := limiter.Check(ctx, store, key, policy)
		require.NoError(t, err)
		assert.Equal(t, Allow, decision, "attempt %d within budget", i+1)
		clock.Advance(time.Second)
	}

	decision, err := limiter.Check(ctx, store, key, policy)
	require.NoError(t, err)
	assert.Equal(t, Reject, decision, "fourth attempt inside the window is rejected")
}

func TestRateLimiter_Check_RecoversAfterWindow(t *testing.T) {
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(clock)
	sess := &domainauth.Session{ID: "s1"}
	store := SessionWindows{Session: sess}
	policy := Policy{Max: 3, Window: time.Minute}
	ctx := context.Background()
	key := BucketKey("login", sess.ID)

	for i := 0; i < 4; i++ {
		_, err := limiter.Check(ctx, store, key, policy)
		require.NoError(t, err)
	}

	// 61 seconds after the burst every entry has aged out.
	clock.Advance(61 * time.Second)

	decision, err := limiter.Check(ctx, store, key, policy)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
}

func TestRateLimiter_Check_RejectedAttemptStillCounts(t *testing.T) {
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(clock)
	sess := &domainauth.Session{ID: "s1"}
	store := SessionWindows{Session: sess}
	policy := Policy{Max: 2, Window: time.Minute}
	ctx := context.Background()
	key := BucketKey("login", sess.ID)

	for i := 0; i < 3; i++ {
		_, err := limiter.Check(ctx, store, key, policy)
		require.NoError(t, err)
	}

	// The rejected third attempt stays in the window, so a client retrying
	// just after the first entry expires is still over budget.
	assert.Len(t, sess.Bucket(key), 3)
}

func TestRateLimiter_Peek(t *testing.T) {
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(clock)
	sess := &domainauth.Session{ID: "s1"}
	store := SessionWindows{Session: sess}
	policy := Policy{Max: 2, Window: time.Minute}
	ctx := context.Background()
	key := BucketKey("login", sess.ID)

	limited, err := limiter.Peek(ctx, store, key, policy)
	require.NoError(t, err)
	assert.False(t, limited)

	for i := 0; i < 2; i++ {
		_, err = limiter.Check(ctx, store, key, policy)
		require.NoError(t, err)
	}

	// Peek reports limited at the boundary without consuming a slot.
	limited, err = limiter.Peek(ctx, store, key, policy)
	require.NoError(t, err)
	assert.True(t, limited)
	assert.Len(t, sess.Bucket(key), 2)
}

func TestRateLimiter_IndependentKeys(t *testing.T) {
	clock := mocks.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(clock)
	sess := &domainauth.Session{ID: "s1"}
	store := SessionWindows{Session: sess}
	policy := Policy{Max: 1, Window: time.Minute}
	ctx := context.Background()

	decision, err := limiter.Check(ctx, store, BucketKey("login", sess.ID), policy)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	// A different bucket has its own budget.
	decision, err = limiter.Check(ctx, store, BucketKey("contact", sess.ID), policy)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
}

func TestSessionWindows_PruneOrder(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sess := &domainauth.Session{ID: "s1"}
	sess.SetBucket("k", []time.Time{
		now.Add(-2 * time.Minute),
		now.Add(-30 * time.Second),
		now.Add(-5 * time.Second),
	})
	store := SessionWindows{Session: sess}

	count, err := store.Count(context.Background(), "k", now, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "entries older than the window are dropped")
}
