// backend-go/internal/cache/overview.go
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
	overviewKeyPrefix      = "analytics:overview"
	concentrationKeyPrefix = "analytics:concentration"
)

type AnalyticsCache interface {
	GetOverview(ctx context.Context, year int) (*domain.ChainOverview, bool, error)
	SetOverview(ctx context.Context, year int, overview *domain.ChainOverview) error
	GetConcentration(ctx context.Context, year, topN int) (*domain.ConcentrationSummary, bool, error)
	SetConcentration(ctx context.Context, year, topN int, summary *domain.ConcentrationSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopAnalyticsCache struct{}

func NewAnalyticsCache(cfg config.CacheConfig) (AnalyticsCache, error) {
	if !cfg.Enabled {
		return &noopAnalyticsCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg, cfg.OverviewTTLSeconds)
	if err != nil {
		return nil, err
	}

	return &redisAnalyticsCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopAnalyticsCache() AnalyticsCache {
	return &noopAnalyticsCache{}
}

func (c *redisAnalyticsCache) GetOverview(ctx context.Context, year int) (*domain.ChainOverview, bool, error) {
	key := buildOverviewKey(year)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var overview domain.ChainOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil, false, fmt.Errorf("decode overview cache: %w", err)
	}

	return &overview, true, nil
}

func (c *redisAnalyticsCache) SetOverview(ctx context.Context, year int, overview *domain.ChainOverview) error {
	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("encode overview cache: %w", err)
	}

	if err := c.client.Set(ctx, buildOverviewKey(year), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalyticsCache) GetConcentration(ctx context.Context, year, topN int) (*domain.ConcentrationSummary, bool, error) {
	key := buildConcentrationKey(year, topN)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.ConcentrationSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode concentration cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisAnalyticsCache) SetConcentration(ctx context.Context, year, topN int, summary *domain.ConcentrationSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode concentration cache: %w", err)
	}

	if err := c.client.Set(ctx, buildConcentrationKey(year, topN), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisAnalyticsCache) InvalidateAll(ctx context.Context) error {
	if err := deleteKeysWithPrefix(ctx, c.client, overviewKeyPrefix, scanBatchSize); err != nil {
		return err
	}
	return deleteKeysWithPrefix(ctx, c.client, concentrationKeyPrefix, scanBatchSize)
}

func (n *noopAnalyticsCache) GetOverview(ctx context.Context, year int) (*domain.ChainOverview, bool, error) {
	return nil, false, nil
}

func (n *noopAnalyticsCache) SetOverview(ctx context.Context, year int, overview *domain.ChainOverview) error {
	return nil
}

func (n *noopAnalyticsCache) GetConcentration(ctx context.Context, year, topN int) (*domain.ConcentrationSummary, bool, error) {
	return nil, false, nil
}

func (n *noopAnalyticsCache) SetConcentration(ctx context.Context, year, topN int, summary *domain.ConcentrationSummary) error {
	return nil
}

func (n *noopAnalyticsCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildOverviewKey(year int) string {
	return fmt.Sprintf("%s:%s", overviewKeyPrefix, hashParts([]string{
		fmt.Sprintf("year=%d", year),
	}))
}

func buildConcentrationKey(year, topN int) string {
	return fmt.Sprintf("%s:%s", concentrationKeyPrefix, hashParts([]string{
		fmt.Sprintf("year=%d", year),
		fmt.Sprintf("top_n=%d", topN),
	}))
}
