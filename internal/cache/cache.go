// Package cache provides caching for rendered heatmaps and API responses.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	HeatmapCacheSizeMB int
	HeatmapTTL         time.Duration
	ResponseCacheSize  int
}

// Manager manages heatmap and response caches. Rendered PNGs are large
// and short lived so they go through bigcache, while small JSON
// responses sit in an LRU.
type Manager struct {
	heatmapCache  *bigcache.BigCache
	responseCache *lru.Cache[string, []byte]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	heatmapCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.HeatmapTTL,
		CleanWindow:        cfg.HeatmapTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       512 * 1024, // 512KB per heatmap
		HardMaxCacheSize:   cfg.HeatmapCacheSizeMB,
		Verbose:            false,
	}

	heatmapCache, err := bigcache.New(context.Background(), heatmapCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create heatmap cache: %w", err)
	}

	responseCache, err := lru.New[string, []byte](cfg.ResponseCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	return &Manager{
		heatmapCache:  heatmapCache,
		responseCache: responseCache,
	}, nil
}

// GetHeatmap retrieves a rendered heatmap from cache.
func (m *Manager) GetHeatmap(key string) ([]byte, bool) {
	data, err := m.heatmapCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetHeatmap stores a rendered heatmap in cache.
func (m *Manager) SetHeatmap(key string, data []byte) error {
	return m.heatmapCache.Set(key, data)
}

// GetResponse retrieves a cached API response.
func (m *Manager) GetResponse(key string) ([]byte, bool) {
	return m.responseCache.Get(key)
}

// SetResponse stores an API response in cache.
func (m *Manager) SetResponse(key string, data []byte) {
	m.responseCache.Add(key, data)
}

// HeatmapKey generates a cache key for a rendered heatmap.
func HeatmapKey(colormap string, folded bool) string {
	return fmt.Sprintf("heatmap:%s:folded=%t", colormap, folded)
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"heatmap_cache_len":  m.heatmapCache.Len(),
		"heatmap_cache_cap":  m.heatmapCache.Capacity(),
		"response_cache_len": m.responseCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.heatmapCache.Close()
}
