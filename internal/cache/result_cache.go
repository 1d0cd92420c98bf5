package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/domain"
)

const resultKeyPrefix = "recommendation:report"

// ResultCache memoizes finished recommendation reports. Keys bucket by
// calendar day, so repeated requests for the same customer-facility pair
// within a day are served from cache. Concurrent writers to the same key may
// race; last write wins.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.RecommendationReport, bool, error)
	Put(ctx context.Context, key string, report *domain.RecommendationReport) error
}

// Key derives the deterministic cache key for a customer-facility pair and a
// day-level time bucket.
func Key(customerID, facilityID string, day time.Time) string {
	parts := []string{
		"customer_id=" + strings.TrimSpace(customerID),
		"facility_id=" + strings.TrimSpace(facilityID),
		"day=" + day.UTC().Format("2006-01-02"),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return resultKeyPrefix + ":" + hex.EncodeToString(sum[:])
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

// NewResultCache builds the configured cache. Disabled config yields a noop
// cache, so callers never branch on availability.
func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisResultCache{client: client, ttl: ttl}, nil
}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

func (c *redisResultCache) Get(ctx context.Context, key string) (*domain.RecommendationReport, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis get: %s", domain.ErrCacheUnavailable, err)
	}

	var report domain.RecommendationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *redisResultCache) Put(ctx context.Context, key string, report *domain.RecommendationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report for cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %s", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (n *noopResultCache) Get(ctx context.Context, key string) (*domain.RecommendationReport, bool, error) {
	return nil, false, nil
}

func (n *noopResultCache) Put(ctx context.Context, key string, report *domain.RecommendationReport) error {
	return nil
}
