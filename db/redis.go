// db/redis.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/securenet/dyngroups/config"
	"github.com/securenet/dyngroups/model"
)

// RedisStore wraps the Redis client used for attribute caching, rate
// limiting and the reconciliation lock.
type RedisStore struct {
	client     *redis.Client
	defaultTTL time.Duration
	log        *zap.Logger
}

func NewRedisStore(cfg config.RedisConfiguration, log *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Successfully connected to Redis", zap.String("addr", cfg.Addr))
	return &RedisStore{client: client, defaultTTL: cfg.DefaultCacheTTL, log: log}, nil
}

func (s *RedisStore) Close() {
	if err := s.client.Close(); err != nil {
		s.log.Error("Error closing Redis connection", zap.Error(err))
	}
}

func attributesKey(userID string) string {
	return fmt.Sprintf("attributes:%s", userID)
}

func (s *RedisStore) CacheAttributes(ctx context.Context, userID string, attrs model.AttributeMap) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	if err := s.client.Set(ctx, attributesKey(userID), data, s.defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache attributes: %w", err)
	}

	s.log.Debug("Attributes cached successfully", zap.String("userID", userID))
	return nil
}

// GetCachedAttributes returns nil, nil on a cache miss.
func (s *RedisStore) GetCachedAttributes(ctx context.Context, userID string) (model.AttributeMap, error) {
	data, err := s.client.Get(ctx, attributesKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.log.Debug("Attributes not found in cache", zap.String("userID", userID))
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get attributes from cache: %w", err)
	}

	var attrs model.AttributeMap
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	return attrs.Normalize(), nil
}

func (s *RedisStore) DeleteCachedAttributes(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, attributesKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete attributes from cache: %w", err)
	}
	s.log.Debug("Attributes deleted from cache", zap.String("userID", userID))
	return nil
}

func (s *RedisStore) RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := s.client.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := card.Val()
	allowed := count <= int64(limit)
	s.log.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}

// unlockScript deletes the lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(resourceName string) string {
	return fmt.Sprintf("lock:%s", resourceName)
}

// LockResource takes the lock on resourceName for ttl, recording token as
// the holder.
func (s *RedisStore) LockResource(ctx context.Context, resourceName, token string, ttl time.Duration) (bool, error) {
	locked, err := s.client.SetNX(ctx, lockKey(resourceName), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	s.log.Debug("Lock acquisition attempt",
		zap.String("resource", resourceName),
		zap.Bool("locked", locked))
	return locked, nil
}

// UnlockResource releases the lock if token still holds it. It reports
// false when the lock expired or was taken over by another holder.
func (s *RedisStore) UnlockResource(ctx context.Context, resourceName, token string) (bool, error) {
	deleted, err := unlockScript.Run(ctx, s.client, []string{lockKey(resourceName)}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to release lock: %w", err)
	}
	s.log.Debug("Lock release attempt",
		zap.String("resource", resourceName),
		zap.Bool("released", deleted == 1))
	return deleted == 1, nil
}
