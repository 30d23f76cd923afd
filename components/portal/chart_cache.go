package portal

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
)

const defaultChartCacheBytes = 4 * 1024 * 1024

// RenderCache memoizes rendered chart HTML so repeated page loads are cheap.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache is a freecache-backed TTL cache for rendered charts.
type ChartCache struct {
	ttl   time.Duration
	store *freecache.Cache
}

// ChartCacheOption customizes a ChartCache.
type ChartCacheOption func(*chartCacheConfig)

type chartCacheConfig struct {
	size  int
	timer freecache.Timer
}

// WithChartCacheSize sets the cache capacity in bytes.
func WithChartCacheSize(size int) ChartCacheOption {
	return func(c *chartCacheConfig) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithChartCacheTimer injects the clock freecache uses for expiry.
func WithChartCacheTimer(timer freecache.Timer) ChartCacheOption {
	return func(c *chartCacheConfig) {
		c.timer = timer
	}
}

// NewChartCache builds a cache with the provided TTL. A TTL under one second
// disables caching.
func NewChartCache(ttl time.Duration, opts ...ChartCacheOption) *ChartCache {
	cfg := chartCacheConfig{size: defaultChartCacheBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &ChartCache{ttl: ttl}
	if ttl < time.Second {
		return c
	}
	if cfg.timer != nil {
		c.store = freecache.NewCacheCustomTimer(cfg.size, cfg.timer)
	} else {
		c.store = freecache.NewCache(cfg.size)
	}
	return c
}

// GetOrRender returns a cached entry or renders and stores a new one.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.store == nil {
		return render()
	}
	if cached, err := c.store.Get([]byte(key)); err == nil {
		return string(cached), nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	// Entries larger than the cache segment are served uncached.
	_ = c.store.Set([]byte(key), []byte(html), int(c.ttl/time.Second))
	return html, nil
}

// chartKey returns a deterministic key for a chart kind and its inputs.
func chartKey(kind string, payload any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return kind + ":invalid"
	}
	sum := sha1.Sum(b)
	return kind + ":" + hex.EncodeToString(sum[:])
}
