package repository

import (
	"strings"
	"time"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"

	"github.com/patrickmn/go-cache"
)

// MemoryAnalysisCache keeps outcomes in process memory. Uploads are never
// rewritten, so a filename plus the scoring options identify an outcome.
type MemoryAnalysisCache struct {
	items *cache.Cache
}

// NewMemoryAnalysisCache creates a cache whose entries expire after ttl.
// A zero ttl disables expiry.
func NewMemoryAnalysisCache(ttl time.Duration) *MemoryAnalysisCache {
	expiration := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
		cleanup = 0
	}
	return &MemoryAnalysisCache{items: cache.New(expiration, cleanup)}
}

func (c *MemoryAnalysisCache) Get(filename string, options analyzer.AnalysisOptions) (CachedAnalysis, bool) {
	v, ok := c.items.Get(cacheKey(filename, options))
	if !ok {
		return CachedAnalysis{}, false
	}
	entry, ok := v.(CachedAnalysis)
	return entry, ok
}

func (c *MemoryAnalysisCache) Set(filename string, options analyzer.AnalysisOptions, entry CachedAnalysis) {
	c.items.SetDefault(cacheKey(filename, options), entry)
}

func (c *MemoryAnalysisCache) ItemCount() int {
	return c.items.ItemCount()
}

func cacheKey(filename string, options analyzer.AnalysisOptions) string {
	return strings.Join([]string{filename, options.Criteria.Key(), string(options.Locale)}, "|")
}
