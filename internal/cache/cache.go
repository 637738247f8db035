package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/asset-service/internal/storage"
	"github.com/princekumarofficial/asset-service/internal/types"
)

// CacheService wraps storage with a Redis read-through cache for single
// assets and the action list. Every write invalidates what it touches.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	AssetKey   = "asset:%d"       // asset:assetID
	ActionsKey = "assets:actions" // distinct action_1 values
)

// Cache durations
const (
	AssetCacheDuration   = 10 * time.Minute
	ActionsCacheDuration = 5 * time.Minute
)

func (c *CacheService) getJSON(ctx context.Context, key string, dest interface{}) bool {
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(cached, dest) == nil
}

func (c *CacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("Failed to write cache", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *CacheService) invalidate(ctx context.Context, keys ...string) {
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Failed to invalidate cache", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// GetAsset returns the cached asset or fetches it from the store
func (c *CacheService) GetAsset(ctx context.Context, id int64) (*types.Asset, error) {
	key := fmt.Sprintf(AssetKey, id)

	var asset types.Asset
	if c.getJSON(ctx, key, &asset) {
		return &asset, nil
	}

	fetched, err := c.storage.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	c.setJSON(ctx, key, fetched, AssetCacheDuration)
	return fetched, nil
}

// DistinctActions returns the cached action list or fetches it from the store
func (c *CacheService) DistinctActions(ctx context.Context) ([]string, error) {
	var actions []string
	if c.getJSON(ctx, ActionsKey, &actions) {
		return actions, nil
	}

	actions, err := c.storage.DistinctActions(ctx)
	if err != nil {
		return nil, err
	}

	c.setJSON(ctx, ActionsKey, actions, ActionsCacheDuration)
	return actions, nil
}

func (c *CacheService) CreateAsset(ctx context.Context, asset *types.Asset) (int64, error) {
	id, err := c.storage.CreateAsset(ctx, asset)
	if err != nil {
		return 0, err
	}

	if asset.Action1 != nil {
		c.invalidate(ctx, ActionsKey)
	}
	return id, nil
}

func (c *CacheService) SoftDeleteAsset(ctx context.Context, id int64) (*types.Asset, error) {
	asset, err := c.storage.SoftDeleteAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, fmt.Sprintf(AssetKey, id))
	return asset, nil
}

func (c *CacheService) HardDeleteAsset(ctx context.Context, id int64) error {
	if err := c.storage.HardDeleteAsset(ctx, id); err != nil {
		return err
	}

	c.invalidate(ctx, fmt.Sprintf(AssetKey, id), ActionsKey)
	return nil
}

// Search results are paginated views over a changing table, they always
// go to the store.
func (c *CacheService) SearchAssets(ctx context.Context, params types.SearchParams) (int64, []types.Asset, error) {
	return c.storage.SearchAssets(ctx, params)
}

func (c *CacheService) DeletedBefore(ctx context.Context, cutoff time.Time) ([]types.Asset, error) {
	return c.storage.DeletedBefore(ctx, cutoff)
}

func (c *CacheService) Close() error {
	return c.storage.Close()
}

var _ storage.Storage = (*CacheService)(nil)
