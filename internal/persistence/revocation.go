package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sip-gateway/internal/auth"
)

const revokedKeyPrefix = "revoked_token:"

// redisRevocationStore implements auth.RevocationStore on Redis. Entries
// expire with the token they replace, so the set never needs sweeping.
type redisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore builds a Redis-backed revocation store.
func NewRedisRevocationStore(r *Redis) auth.RevocationStore {
	return &redisRevocationStore{client: r.Client}
}

func (s *redisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
