package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix = "refresh_"

	// 40 bytes of CSPRNG output, hex encoded. Far above the 160-bit
	// guessing floor.
	refreshTokenRawSize = 40
)

// RefreshStore keeps opaque refresh tokens in redis, keyed by the token
// string itself and expiring after the configured session length. The
// token carries no structure; the mapping is the only source of truth.
type RefreshStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRefreshStore(rdb *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{rdb: rdb, ttl: ttl}
}

func (s *RefreshStore) Issue(ctx context.Context, userID string) (string, error) {
	raw := make([]byte, refreshTokenRawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	tok := hex.EncodeToString(raw)

	if err := s.rdb.Set(ctx, refreshKeyPrefix+tok, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return tok, nil
}

// Resolve returns the owning user id, or "" when the token is unknown or
// expired. Absence is not an error.
func (s *RefreshStore) Resolve(ctx context.Context, tok string) (string, error) {
	userID, err := s.rdb.Get(ctx, refreshKeyPrefix+tok).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// Revoke deletes the mapping. Deleting a token that was never issued, or
// was already revoked, is a no-op.
func (s *RefreshStore) Revoke(ctx context.Context, tok string) error {
	return s.rdb.Del(ctx, refreshKeyPrefix+tok).Err()
}
