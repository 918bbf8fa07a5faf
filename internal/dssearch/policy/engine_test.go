package policy

import (
	"context"
	"testing"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/trust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	registry := trust.New(nil)
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 5}, nil)
	return NewEngine(registry, rl, nil, SearchScoreThreshold)
}

func TestEngine_Evaluate_GreetingNeverSearches(t *testing.T) {
	e := newTestEngine()
	decision, plan := e.Evaluate(context.Background(), model.Query{Text: "hello", UserID: "u1"})

	assert.False(t, decision.ShouldSearch)
	assert.Equal(t, model.TierNone, decision.SearchTier)
	assert.Equal(t, model.IntentGreeting, decision.Intent)
	assert.Empty(t, plan.Domains)
}

func TestEngine_Evaluate_BlockedQueryRefused(t *testing.T) {
	e := newTestEngine()
	decision, _ := e.Evaluate(context.Background(), model.Query{Text: "account hack kaise kare", UserID: "u1"})

	assert.False(t, decision.ShouldSearch)
	assert.Equal(t, model.IntentBlocked, decision.Intent)
	assert.Equal(t, "blocked_pattern", decision.Reason)
}

func TestEngine_Evaluate_JobQueryAuthorisesSearchWithPlan(t *testing.T) {
	e := newTestEngine()
	decision, plan := e.Evaluate(context.Background(), model.Query{Text: "ssc cgl 2026 latest vacancy notification", UserID: "u1"})

	require.True(t, decision.ShouldSearch)
	assert.Equal(t, model.IntentJobQuery, decision.Intent)
	assert.Equal(t, model.TierCrawler, decision.SearchTier)
	assert.NotEmpty(t, plan.Domains)
	assert.Greater(t, plan.MaxPages, 0)
}

func TestEngine_Evaluate_UrlFetchUsesSpecificURL(t *testing.T) {
	e := newTestEngine()
	decision, plan := e.Evaluate(context.Background(), model.Query{Text: "check https://ssc.nic.in/notice for details", UserID: "u1"})

	require.True(t, decision.ShouldSearch)
	assert.Equal(t, model.IntentUrlFetch, decision.Intent)
	assert.Equal(t, "https://ssc.nic.in/notice", plan.SpecificURL)
}

func TestEngine_Evaluate_RateLimitedAfterCap(t *testing.T) {
	registry := trust.New(nil)
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 1}, nil)
	e := NewEngine(registry, rl, nil, SearchScoreThreshold)

	q := model.Query{Text: "ssc cgl 2026 latest vacancy notification", UserID: "u1"}
	first, _ := e.Evaluate(context.Background(), q)
	require.True(t, first.ShouldSearch)

	// Evaluate itself never consumes quota (spec.md:280); only the
	// orchestrator's post-retrieval Increment does, mirrored here.
	rl.IncrementDistributed(context.Background(), "u1")

	second, _ := e.Evaluate(context.Background(), q)
	assert.False(t, second.ShouldSearch)
	assert.True(t, second.RateLimited)
}

func TestEngine_Evaluate_RepeatedEvaluateDoesNotConsumeQuota(t *testing.T) {
	registry := trust.New(nil)
	rl := NewRateLimiter(RateLimitConfig{MaxPerDay: 50, MaxPerMinute: 1}, nil)
	e := NewEngine(registry, rl, nil, SearchScoreThreshold)

	q := model.Query{Text: "ssc cgl 2026 latest vacancy notification", UserID: "u1"}
	for i := 0; i < 5; i++ {
		decision, _ := e.Evaluate(context.Background(), q)
		require.True(t, decision.ShouldSearch, "policy evaluation alone (e.g. repeated cache hits) must never consume rate-limit quota")
	}
}
