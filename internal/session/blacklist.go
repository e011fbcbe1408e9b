package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklisted_"

// Blacklist marks access tokens as revoked before their natural expiry.
// Entries carry the token's remaining lifetime as TTL, so they disappear
// exactly when the token would have died anyway and need no sweeping.
type Blacklist struct {
	rdb *redis.Client
}

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

// Add inserts a revocation marker. A non-positive ttl means the token is
// already invalid on its own; nothing is written.
func (b *Blacklist) Add(ctx context.Context, tok string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, blacklistKeyPrefix+tok, "1", ttl).Err()
}

func (b *Blacklist) Contains(ctx context.Context, tok string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistKeyPrefix+tok).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
