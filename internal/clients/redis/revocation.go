package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/aria-backend/internal/platform/envutil"
	"github.com/yungbote/aria-backend/internal/platform/logger"
)

// RevocationList tracks access tokens invalidated before expiry (logout,
// account deactivation). Entries carry the remaining token TTL so the
// list cleans itself up.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

type revocationList struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewRevocationList(log *logger.Logger) (RevocationList, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := envutil.Str("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := envutil.Str("REDIS_REVOKE_PREFIX", "revoked_token")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &revocationList{
		log:    log.With("service", "RedisRevocationList"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (r *revocationList) key(tokenID string) string {
	return r.prefix + ":" + strings.TrimSpace(tokenID)
}

func (r *revocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("missing token id")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return r.rdb.Set(ctx, r.key(tokenID), "1", ttl).Err()
}

func (r *revocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revocationList) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *revocationList) Close() error {
	return r.rdb.Close()
}
