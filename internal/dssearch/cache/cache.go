// Package cache implements the three-tier Cache (spec.md §4.2): an
// in-memory LRU, a sharded file tier, and an optional persistent (Redis)
// tier, keyed by md5(lowercase(trim(query))).
package cache

import (
	"container/list"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dssahayak/search/internal/dssearch/model"
)

// RedisClient is the minimal interface the persistent tier depends on,
// patterned on internal/fabric.RedisClient so the Cache never imports a
// concrete Redis driver directly.
type RedisClient interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
}

// Cache is the three-tier store described in spec.md §4.2.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element // hash -> element wrapping *memEntry
	order      *list.List               // front = most recently used
	memoryMax  int
	dir        string
	defaultTTL time.Duration
	redis      RedisClient
	keyPrefix  string
}

type memEntry struct {
	hash  string
	entry model.CacheEntry
}

// New builds a Cache. redis may be nil, in which case the persistent tier
// is skipped entirely (spec.md §7 StorageUnavailable).
func New(dir string, memoryMax int, defaultTTL time.Duration, redis RedisClient) *Cache {
	if memoryMax <= 0 {
		memoryMax = 500
	}
	if defaultTTL <= 0 {
		defaultTTL = 6 * time.Hour
	}
	return &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		memoryMax:  memoryMax,
		dir:        dir,
		defaultTTL: defaultTTL,
		redis:      redis,
		keyPrefix:  "dssearch:cache:",
	}
}

// HashQuery computes the cache key for a query string.
func HashQuery(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) filePath(hash string) string {
	return filepath.Join(c.dir, hash[:2], hash+".json")
}

// Get performs the tiered lookup described in spec.md §4.2: memory, then
// file (promoting to memory on hit), then persistent (promoting to both).
// Any expired entry found at a lower tier is treated as a miss.
func (c *Cache) Get(ctx context.Context, query string) (*model.CacheEntry, bool) {
	hash := HashQuery(query)
	now := time.Now()

	if entry, ok := c.getMemory(hash, now); ok {
		return entry, true
	}

	if entry, ok := c.getFile(hash, now); ok {
		c.putMemory(hash, *entry)
		return entry, true
	}

	if c.redis != nil {
		if entry, ok := c.getRedis(ctx, hash, now); ok {
			c.putMemory(hash, *entry)
			c.writeFile(hash, *entry)
			return entry, true
		}
	}

	return nil, false
}

func (c *Cache) getMemory(hash string, now time.Time) (*model.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	me := el.Value.(*memEntry)
	if me.entry.Expired(now) {
		c.order.Remove(el)
		delete(c.entries, hash)
		return nil, false
	}
	c.order.MoveToFront(el)
	me.entry.HitCount++
	cp := me.entry
	return &cp, true
}

func (c *Cache) putMemory(hash string, entry model.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[hash]; ok {
		c.order.MoveToFront(el)
		el.Value.(*memEntry).entry = entry
		return
	}

	el := c.order.PushFront(&memEntry{hash: hash, entry: entry})
	c.entries[hash] = el

	for c.order.Len() > c.memoryMax {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memEntry).hash)
	}
}

type fileEntry struct {
	QueryHash string            `json:"query_hash"`
	Query     string            `json:"query"`
	Results   []model.RawResult `json:"results"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
	HitCount  int               `json:"hit_count"`
	Source    string            `json:"source"`
}

func toFileEntry(e model.CacheEntry) fileEntry {
	return fileEntry{
		QueryHash: e.QueryHash,
		Query:     e.Query,
		Results:   e.Results,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
		HitCount:  e.HitCount,
		Source:    string(e.Source),
	}
}

func fromFileEntry(fe fileEntry) model.CacheEntry {
	return model.CacheEntry{
		QueryHash: fe.QueryHash,
		Query:     fe.Query,
		Results:   fe.Results,
		CreatedAt: fe.CreatedAt,
		ExpiresAt: fe.ExpiresAt,
		HitCount:  fe.HitCount,
		Source:    model.CacheSource(fe.Source),
	}
}

func (c *Cache) getFile(hash string, now time.Time) (*model.CacheEntry, bool) {
	if c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.filePath(hash))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("cache: file tier read failed", "hash", hash, "error", err)
		}
		return nil, false
	}
	var fe fileEntry
	if err := json.Unmarshal(data, &fe); err != nil {
		slog.Warn("cache: file tier corrupt entry", "hash", hash, "error", err)
		return nil, false
	}
	entry := fromFileEntry(fe)
	if entry.Expired(now) {
		_ = os.Remove(c.filePath(hash))
		return nil, false
	}
	return &entry, true
}

func (c *Cache) writeFile(hash string, entry model.CacheEntry) {
	if c.dir == "" {
		return
	}
	path := c.filePath(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Warn("cache: file tier mkdir failed", "hash", hash, "error", err)
		return
	}
	data, err := json.Marshal(toFileEntry(entry))
	if err != nil {
		slog.Warn("cache: file tier marshal failed", "hash", hash, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("cache: file tier write failed", "hash", hash, "error", err)
	}
}

func (c *Cache) getRedis(ctx context.Context, hash string, now time.Time) (*model.CacheEntry, bool) {
	data, err := c.redis.Get(ctx, c.keyPrefix+hash)
	if err != nil {
		return nil, false
	}
	var fe fileEntry
	if err := json.Unmarshal(data, &fe); err != nil {
		slog.Warn("cache: persistent tier corrupt entry", "hash", hash, "error", err)
		return nil, false
	}
	entry := fromFileEntry(fe)
	if entry.Expired(now) {
		return nil, false
	}
	return &entry, true
}

func (c *Cache) writeRedis(ctx context.Context, hash string, entry model.CacheEntry, ttl time.Duration) {
	data, err := json.Marshal(toFileEntry(entry))
	if err != nil {
		slog.Warn("cache: persistent tier marshal failed", "hash", hash, "error", err)
		return
	}
	if err := c.redis.Set(ctx, c.keyPrefix+hash, data, ttl); err != nil {
		slog.Warn("cache: persistent tier write failed", "hash", hash, "error", err)
	}
}

// Put writes an entry to every available tier. A zero ttl uses the
// cache's configured default (spec.md §4.2).
func (c *Cache) Put(ctx context.Context, query string, results []model.RawResult, ttl time.Duration, source model.CacheSource) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	hash := HashQuery(query)
	now := time.Now()
	entry := model.CacheEntry{
		QueryHash: hash,
		Query:     query,
		Results:   results,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Source:    source,
	}

	c.putMemory(hash, entry)
	c.writeFile(hash, entry)
	if c.redis != nil {
		c.writeRedis(ctx, hash, entry, ttl)
	}
}

// Invalidate removes an entry from every tier.
func (c *Cache) Invalidate(ctx context.Context, query string) {
	hash := HashQuery(query)

	c.mu.Lock()
	if el, ok := c.entries[hash]; ok {
		c.order.Remove(el)
		delete(c.entries, hash)
	}
	c.mu.Unlock()

	if c.dir != "" {
		_ = os.Remove(c.filePath(hash))
	}
	if c.redis != nil {
		_ = c.redis.Del(ctx, c.keyPrefix+hash)
	}
}

// CleanupExpired sweeps the memory and file tiers for expired entries.
// Intended to be run periodically (spec.md §4.2); see cmd/server's
// runCleanupTicker for the default in-process ticker and orchestrator's
// CleanupScheduler for the optional Cloud Tasks–driven alternative.
func (c *Cache) CleanupExpired() int {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	for hash, el := range c.entries {
		if el.Value.(*memEntry).entry.Expired(now) {
			c.order.Remove(el)
			delete(c.entries, hash)
			removed++
		}
	}
	c.mu.Unlock()

	if c.dir != "" {
		entries, err := os.ReadDir(c.dir)
		if err == nil {
			for _, shard := range entries {
				if !shard.IsDir() {
					continue
				}
				shardPath := filepath.Join(c.dir, shard.Name())
				files, err := os.ReadDir(shardPath)
				if err != nil {
					continue
				}
				for _, f := range files {
					path := filepath.Join(shardPath, f.Name())
					data, err := os.ReadFile(path)
					if err != nil {
						continue
					}
					var fe fileEntry
					if err := json.Unmarshal(data, &fe); err != nil {
						continue
					}
					if now.After(fe.ExpiresAt) {
						_ = os.Remove(path)
						removed++
					}
				}
			}
		}
	}

	return removed
}

// Stats reports basic occupancy for the admin status operation.
func (c *Cache) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]any{
		"memory_entries": c.order.Len(),
		"memory_max":     c.memoryMax,
		"dir":            c.dir,
		"persistent":     c.redis != nil,
	}
}

// ClearMemory empties the memory tier only.
func (c *Cache) ClearMemory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}
