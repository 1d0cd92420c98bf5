package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryResultCache is an in-process ResultCache for development and tests.
// Reports round-trip through JSON like the redis variant, so callers get an
// independent copy on every hit. The clock is injectable so expiry can be
// tested without sleeping.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryResultCache(ttl time.Duration) *MemoryResultCache {
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &MemoryResultCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Test hook.
func (c *MemoryResultCache) WithClock(now func() time.Time) *MemoryResultCache {
	c.now = now
	return c
}

func (c *MemoryResultCache) Get(ctx context.Context, key string) (*domain.RecommendationReport, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	var report domain.RecommendationReport
	if err := json.Unmarshal(entry.payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *MemoryResultCache) Put(ctx context.Context, key string, report *domain.RecommendationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report for cache: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{payload: payload, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
