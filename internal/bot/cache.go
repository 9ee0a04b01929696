package bot

import (
	"sync"

	"arbitrage/internal/models"
)

// cacheKey identifies a (venue, pair) slot in the Price Cache.
type cacheKey struct {
	venue  models.Venue
	symbol string
}

// PriceCache is the concurrent last-write-wins map of the most recent Ticker
// per (venue, pair). Every subscription task writes its own key and the
// detector reads every key on each tick, so reads must never block on
// writes to unrelated keys. A single coarse mutex would serialize the whole
// hot path; sharding by key keeps contention local to one (venue, pair)
// bucket.
type PriceCache struct {
	shards [cacheShardCount]*cacheShard
}

const cacheShardCount = 32

type cacheShard struct {
	mu sync.RWMutex
	m  map[cacheKey]models.Ticker
}

// NewPriceCache builds an empty cache ready for concurrent use.
func NewPriceCache() *PriceCache {
	c := &PriceCache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{m: make(map[cacheKey]models.Ticker)}
	}
	return c
}

func (c *PriceCache) shardFor(key cacheKey) *cacheShard {
	h := fnv32(key.symbol) ^ uint32(key.venue)
	return c.shards[h%cacheShardCount]
}

// Put overwrites the cached Ticker for (t.Venue, t.Pair). No versioning and
// no monotonicity check on Timestamp: a late-arriving frame still replaces
// whatever is there, because liveness matters more than strict ordering
// across independently-clocked venues.
func (c *PriceCache) Put(t models.Ticker) {
	key := cacheKey{venue: t.Venue, symbol: t.Pair.String()}
	shard := c.shardFor(key)
	shard.mu.Lock()
	shard.m[key] = t
	shard.mu.Unlock()
}

// Get returns the most recently cached Ticker for (venue, pair), if any.
func (c *PriceCache) Get(venue models.Venue, pair models.TradingPair) (models.Ticker, bool) {
	key := cacheKey{venue: venue, symbol: pair.String()}
	shard := c.shardFor(key)
	shard.mu.RLock()
	t, ok := shard.m[key]
	shard.mu.RUnlock()
	return t, ok
}

// Snapshot returns every cached Ticker, used to seed a newly connected /ws
// client and to answer GET /api/prices.
func (c *PriceCache) Snapshot() []models.Ticker {
	var out []models.Ticker
	for _, shard := range c.shards {
		shard.mu.RLock()
		for _, t := range shard.m {
			out = append(out, t)
		}
		shard.mu.RUnlock()
	}
	return out
}

// fnv32 is a tiny non-cryptographic string hash, good enough to spread keys
// across shards without pulling in hash/fnv for one call site.
func fnv32(s string) uint32 {
	const prime = 16777619
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
