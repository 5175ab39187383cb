package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WindowStore is a shared sliding-window store backed by Redis sorted sets,
// scored by timestamp. Unlike the per-session default it limits across
// browser sessions, so keying it by client network address yields an
// address-scoped limiter.
type WindowStore struct {
	client redis.UniversalClient
	prefix string
}

// NewWindowStore creates a WindowStore with the default key prefix.
func NewWindowStore(client redis.UniversalClient) *WindowStore {
	return &WindowStore{client: client, prefix: "rl:"}
}

// Record prunes entries older than the window, appends the current timestamp,
// and returns the resulting count. The set's TTL is refreshed to the window
// so idle keys evict themselves.
func (s *WindowStore) Record(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	rkey := s.prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "-inf", cutoff)
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score: float64(now.UnixNano()),
		// Unique member so simultaneous hits in the same nanosecond both count.
		Member: strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString(),
	})
	card := pipe.ZCard(ctx, rkey)
	pipe.Expire(ctx, rkey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis window record: %w", err)
	}
	return int(card.Val()), nil
}

// Count prunes entries older than the window and returns the count without
// appending.
func (s *WindowStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	rkey := s.prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "-inf", cutoff)
	card := pipe.ZCard(ctx, rkey)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis window count: %w", err)
	}
	return int(card.Val()), nil
}
