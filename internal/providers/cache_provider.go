package providers

import (
	"time"

	"github.com/coocood/freecache"
	"github.com/dustin/go-humanize"

	"memoriesbot/internal/structures"
)

// CacheProviderInterface is a bounded byte cache. Entries expire after the
// configured TTL and may be evicted earlier when the cache is full.
type CacheProviderInterface interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte)
}

type FreeCacheProvider struct {
	cache *freecache.Cache
	ttl   int
}

// NewCacheProvider sizes the cache in megabytes. freecache counts TTLs in
// whole seconds, so shorter TTLs are raised to one second.
func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Member cache disabled")
		return disabledCache{}
	}

	ttl := max(int(conf.Cache.TTL/time.Second), 1)
	size := conf.Cache.Size << 20
	logger.Infof(TypeApp, "Member cache: %s, entries expire after %s", humanize.IBytes(uint64(size)), time.Duration(ttl)*time.Second)

	return &FreeCacheProvider{
		cache: freecache.NewCache(size),
		ttl:   ttl,
	}
}

func (c *FreeCacheProvider) Get(key []byte) ([]byte, bool) {
	val, err := c.cache.Get(key)
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set drops entries larger than 1/1024 of the cache; they show up as misses.
func (c *FreeCacheProvider) Set(key, value []byte) {
	_ = c.cache.Set(key, value, c.ttl)
}

type disabledCache struct{}

func (disabledCache) Get([]byte) ([]byte, bool) { return nil, false }
func (disabledCache) Set(_, _ []byte)           {}
