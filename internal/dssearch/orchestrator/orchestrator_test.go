package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dssahayak/search/internal/dssearch/cache"
	"github.com/dssahayak/search/internal/dssearch/crawler"
	"github.com/dssahayak/search/internal/dssearch/evidence"
	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/policy"
	"github.com/dssahayak/search/internal/dssearch/querygen"
	"github.com/dssahayak/search/internal/dssearch/ranker"
	"github.com/dssahayak/search/internal/dssearch/searchapi"
	"github.com/dssahayak/search/internal/dssearch/trust"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	registry := trust.New(nil)
	rl := policy.NewRateLimiter(policy.RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 5}, nil)
	engine := policy.NewEngine(registry, rl, nil, policy.SearchScoreThreshold)
	qg := querygen.New(2026)
	c := crawler.New(crawler.Config{Timeout: 2 * time.Second}, registry)
	rk := ranker.New(registry)
	ev := evidence.New()
	ch := cache.New(t.TempDir(), 100, time.Hour, nil)
	apiMgr, err := searchapi.NewManager(searchapi.Config{})
	require.NoError(t, err)

	return New(Config{
		Policy:      engine,
		QueryGen:    qg,
		Crawler:     c,
		SearchAPI:   apiMgr,
		Ranker:      rk,
		Evidence:    ev,
		Cache:       ch,
		RateLimiter: rl,
	})
}

func TestAsk_GreetingNeverSearches(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.Ask(context.Background(), "namaste", "user-1", model.LangHindi, false)

	assert.False(t, resp.Success)
	assert.Equal(t, model.ResultSourceNone, resp.Source)
	assert.Empty(t, resp.Results)
}

func TestAsk_BlockedQueryRefused(t *testing.T) {
	o := newTestOrchestrator(t)
	resp := o.Ask(context.Background(), "how to make a bomb", "user-1", model.LangEnglish, false)

	assert.False(t, resp.Success)
	assert.Equal(t, model.IntentBlocked, resp.Intent)
}

func TestAsk_LogsOutcomeForEveryCall(t *testing.T) {
	o := newTestOrchestrator(t)
	o.Ask(context.Background(), "namaste", "user-1", model.LangHindi, false)
	o.Ask(context.Background(), "how to make a bomb", "user-2", model.LangEnglish, false)

	logs := o.RecentLogs(10)
	require.Len(t, logs, 2)
	assert.NotEqual(t, "user-2", logs[0].UserIDHash)
	assert.NotEmpty(t, logs[0].UserIDHash)
}

func TestFetchUrl_UnreachableURLFails(t *testing.T) {
	o := newTestOrchestrator(t)
	result := o.FetchUrl(context.Background(), "http://169.254.0.1/unreachable", "user-1")
	assert.False(t, result.Success)
}
