package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dssahayak/search/internal/dssearch/model"
)

// fakeRedis is an in-process stand-in for the persistent tier, so the
// round-trip/promotion tests don't need a live Redis.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, assert.AnError
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestCache_GetPutRoundTrip(t *testing.T) {
	c := New(t.TempDir(), 10, time.Hour, nil)
	ctx := context.Background()

	results := []model.RawResult{{URL: "https://ssc.nic.in/cgl", Title: "SSC CGL"}}
	c.Put(ctx, "ssc cgl vacancy", results, 0, model.ResultSourceCrawler)

	entry, ok := c.Get(ctx, "SSC CGL Vacancy  ")
	require.True(t, ok, "lookup must be case/whitespace-insensitive, same as the write key")
	require.Len(t, entry.Results, 1)
	assert.Equal(t, "https://ssc.nic.in/cgl", entry.Results[0].URL)
	assert.Equal(t, model.ResultSourceCrawler, entry.Source)
}

func TestCache_GetMiss(t *testing.T) {
	c := New(t.TempDir(), 10, time.Hour, nil)
	_, ok := c.Get(context.Background(), "never written")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(t.TempDir(), 10, time.Hour, nil)
	ctx := context.Background()

	c.Put(ctx, "ssc cgl", []model.RawResult{{URL: "https://ssc.nic.in/cgl"}}, time.Nanosecond, model.ResultSourceCrawler)
	time.Sleep(time.Millisecond)

	_, ok := c.Get(ctx, "ssc cgl")
	assert.False(t, ok, "an entry past its ExpiresAt must be treated as a miss")
}

func TestCache_FileTierPromotesToMemoryOnHit(t *testing.T) {
	c := New(t.TempDir(), 10, time.Hour, nil)
	ctx := context.Background()

	c.Put(ctx, "railway rrb ntpc", []model.RawResult{{URL: "https://rrb.gov.in/ntpc"}}, 0, model.ResultSourceCrawler)

	c.ClearMemory()
	_, ok := c.entries[HashQuery("railway rrb ntpc")]
	require.False(t, ok, "memory tier must be empty before the file-tier read")

	entry, ok := c.Get(ctx, "railway rrb ntpc")
	require.True(t, ok, "a file-tier hit must still be returned")
	assert.Equal(t, "https://rrb.gov.in/ntpc", entry.Results[0].URL)

	_, promoted := c.entries[HashQuery("railway rrb ntpc")]
	assert.True(t, promoted, "a file-tier hit must be promoted back into memory")
}

func TestCache_RedisTierPromotesToMemoryAndFile(t *testing.T) {
	redis := newFakeRedis()
	dir := t.TempDir()
	c := New(dir, 10, time.Hour, redis)
	ctx := context.Background()

	c.Put(ctx, "pm kisan yojana", []model.RawResult{{URL: "https://pmkisan.gov.in"}}, 0, model.ResultSourceAPI)

	// Wipe memory and file tiers so only the persistent (Redis) copy remains.
	c.ClearMemory()
	if err := os.Remove(c.filePath(HashQuery("pm kisan yojana"))); err != nil && !os.IsNotExist(err) {
		require.NoError(t, err)
	}

	entry, ok := c.Get(ctx, "pm kisan yojana")
	require.True(t, ok, "a persistent-tier hit must still be returned")
	assert.Equal(t, "https://pmkisan.gov.in", entry.Results[0].URL)

	_, promotedMemory := c.entries[HashQuery("pm kisan yojana")]
	assert.True(t, promotedMemory, "a Redis-tier hit must be promoted into memory")

	_, fileOK := c.getFile(HashQuery("pm kisan yojana"), time.Now())
	assert.True(t, fileOK, "a Redis-tier hit must also be promoted into the file tier")
}

func TestCache_InvalidateRemovesEveryTier(t *testing.T) {
	redis := newFakeRedis()
	c := New(t.TempDir(), 10, time.Hour, redis)
	ctx := context.Background()

	c.Put(ctx, "ctet admit card", []model.RawResult{{URL: "https://ctet.nic.in"}}, 0, model.ResultSourceCrawler)
	c.Invalidate(ctx, "ctet admit card")

	_, ok := c.Get(ctx, "ctet admit card")
	assert.False(t, ok)
}

func TestCache_MemoryTierEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(t.TempDir(), 2, time.Hour, nil)
	ctx := context.Background()

	c.Put(ctx, "query one", []model.RawResult{{URL: "https://a.gov.in"}}, 0, model.ResultSourceCrawler)
	c.Put(ctx, "query two", []model.RawResult{{URL: "https://b.gov.in"}}, 0, model.ResultSourceCrawler)
	c.Put(ctx, "query three", []model.RawResult{{URL: "https://c.gov.in"}}, 0, model.ResultSourceCrawler)

	assert.Equal(t, 2, c.order.Len(), "memory tier must stay bounded at memoryMax")
	_, ok := c.entries[HashQuery("query one")]
	assert.False(t, ok, "the least recently used entry must be evicted first")
}
