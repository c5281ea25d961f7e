// backend-go/internal/cache/forecast.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glowmart/storesight/backend-go/internal/config"
	"github.com/glowmart/storesight/backend-go/internal/domain"
)

const (
	forecastKeyPrefix = "forecast:points"
	landingKeyPrefix  = "forecast:landing"
)

// ForecastCache holds per-store projections. Simulation responses are never
// cached: re-running an unseeded simulation is supposed to give fresh draws.
type ForecastCache interface {
	GetForecast(ctx context.Context, storeID int64, horizon int) (*domain.ForecastResponse, bool, error)
	SetForecast(ctx context.Context, storeID int64, horizon int, resp *domain.ForecastResponse) error
	GetLanding(ctx context.Context, storeID int64, year int) (*domain.LandingResponse, bool, error)
	SetLanding(ctx context.Context, storeID int64, year int, resp *domain.LandingResponse) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg, cfg.ForecastTTLSeconds)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) GetForecast(ctx context.Context, storeID int64, horizon int) (*domain.ForecastResponse, bool, error) {
	key := buildForecastKey(storeID, horizon)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var resp domain.ForecastResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return &resp, true, nil
}

func (c *redisForecastCache) SetForecast(ctx context.Context, storeID int64, horizon int, resp *domain.ForecastResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(storeID, horizon), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) GetLanding(ctx context.Context, storeID int64, year int) (*domain.LandingResponse, bool, error) {
	key := buildLandingKey(storeID, year)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var resp domain.LandingResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, false, fmt.Errorf("decode landing cache: %w", err)
	}

	return &resp, true, nil
}

func (c *redisForecastCache) SetLanding(ctx context.Context, storeID int64, year int, resp *domain.LandingResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode landing cache: %w", err)
	}

	if err := c.client.Set(ctx, buildLandingKey(storeID, year), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, scanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, landingKeyPrefix, scanBatchSize)
}

func (n *noopForecastCache) GetForecast(ctx context.Context, storeID int64, horizon int) (*domain.ForecastResponse, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetForecast(ctx context.Context, storeID int64, horizon int, resp *domain.ForecastResponse) error {
	return nil
}

func (n *noopForecastCache) GetLanding(ctx context.Context, storeID int64, year int) (*domain.LandingResponse, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) SetLanding(ctx context.Context, storeID int64, year int, resp *domain.LandingResponse) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(storeID int64, horizon int) string {
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, hashParts([]string{
		fmt.Sprintf("store_id=%d", storeID),
		fmt.Sprintf("horizon=%d", horizon),
	}))
}

func buildLandingKey(storeID int64, year int) string {
	return fmt.Sprintf("%s:%s", landingKeyPrefix, hashParts([]string{
		fmt.Sprintf("store_id=%d", storeID),
		fmt.Sprintf("year=%d", year),
	}))
}
