// util/cache_service.go

package util

import (
	"context"

	"github.com/securenet/dyngroups/db"
	"github.com/securenet/dyngroups/model"
)

// CacheService exposes the Redis attribute cache to the resolver.
type CacheService struct {
	store *db.RedisStore
}

func NewCacheService(store *db.RedisStore) *CacheService {
	return &CacheService{store: store}
}

func (c *CacheService) GetAttributes(ctx context.Context, userID string) (model.AttributeMap, error) {
	return c.store.GetCachedAttributes(ctx, userID)
}

func (c *CacheService) SetAttributes(ctx context.Context, userID string, attrs model.AttributeMap) error {
	return c.store.CacheAttributes(ctx, userID, attrs)
}

func (c *CacheService) InvalidateAttributes(ctx context.Context, userID string) error {
	return c.store.DeleteCachedAttributes(ctx, userID)
}
