package caching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "catalogsync:"

type CacheService interface {
	// Image asset ids keyed by remote source URL. A miss returns 0 and no error.
	GetImageAssetID(ctx context.Context, sourceURL string) (int64, error)
	SetImageAssetID(ctx context.Context, sourceURL string, assetID int64, ttl time.Duration) error
	DeleteImageAssetID(ctx context.Context, sourceURL string) error

	// AcquireLock takes a named lock for ttl. When the lock is held elsewhere
	// acquired is false. release is nil unless acquired.
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCacheService connects to redis. Keys live under
// "catalogsync:<namespace>:" so several catalogs can share one server.
func NewRedisCacheService(addr, password string, db int, namespace string, logger *slog.Logger) CacheService {
	// Parse Redis URL to extract host:port if protocol is included
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	// Test initial connectivity
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", "address", parsedAddr, "error", pingErr)
	} else {
		logger.Debug("redis connection established", "address", parsedAddr)
	}

	return &redisCacheService{client: client, prefix: namespacedPrefix(namespace), logger: logger}
}

func namespacedPrefix(namespace string) string {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return keyPrefix
	}
	return keyPrefix + namespace + ":"
}

func (r *redisCacheService) assetKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return r.prefix + "asset:" + hex.EncodeToString(sum[:])
}

func (r *redisCacheService) lockKey(name string) string {
	return r.prefix + "lock:" + name
}

func (r *redisCacheService) rateLimitKey(key string) string {
	return r.prefix + "ratelimit:" + key
}

func (r *redisCacheService) GetImageAssetID(ctx context.Context, sourceURL string) (int64, error) {
	val, err := r.client.Get(ctx, r.assetKey(sourceURL)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil // cache miss
		}
		return 0, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt asset cache entry: %w", err)
	}
	return id, nil
}

func (r *redisCacheService) SetImageAssetID(ctx context.Context, sourceURL string, assetID int64, ttl time.Duration) error {
	return r.client.Set(ctx, r.assetKey(sourceURL), strconv.FormatInt(assetID, 10), ttl).Err()
}

func (r *redisCacheService) DeleteImageAssetID(ctx context.Context, sourceURL string) error {
	return r.client.Del(ctx, r.assetKey(sourceURL)).Err()
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *redisCacheService) AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := r.lockKey(name)
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}
	return release, true, nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := r.rateLimitKey(key)

	// EXPIRE NX re-arms a window whose first expiry was lost.
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, cacheKey)
	pipe.ExpireNX(ctx, cacheKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() > int64(limit), nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
