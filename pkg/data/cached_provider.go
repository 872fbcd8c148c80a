package data

import (
	"sync"

	"github.com/tradelab/crypto-risk-engine/pkg/types"
)

// MemoryCache is a thread-safe in-memory candle cache.
type MemoryCache struct {
	mu    sync.RWMutex
	cache map[string][]types.OHLCV
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string][]types.OHLCV)}
}

func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.cache[key]
	return data, ok
}

func (c *MemoryCache) Set(key string, data []types.OHLCV) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = data
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string][]types.OHLCV)
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// CachedProvider wraps a Provider with a cache so repeated loads of the same
// source hit memory.
type CachedProvider struct {
	provider Provider
	cache    Cache
}

// NewCachedProvider wraps a provider with an in-memory cache.
func NewCachedProvider(provider Provider) *CachedProvider {
	return &CachedProvider{provider: provider, cache: NewMemoryCache()}
}

// GetName returns the wrapped provider's name.
func (p *CachedProvider) GetName() string {
	return p.provider.GetName()
}

// LoadData returns cached data when available, loading through otherwise.
func (p *CachedProvider) LoadData(source string) ([]types.OHLCV, error) {
	if data, ok := p.cache.Get(source); ok {
		return data, nil
	}

	data, err := p.provider.LoadData(source)
	if err != nil {
		return nil, err
	}
	p.cache.Set(source, data)
	return data, nil
}

// ValidateData delegates to the wrapped provider.
func (p *CachedProvider) ValidateData(data []types.OHLCV) error {
	return p.provider.ValidateData(data)
}
