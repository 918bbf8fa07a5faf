// Package policy implements the Policy Engine (spec.md §4.3): intent
// detection, the additive search-score heuristic, per-user rate limiting,
// and crawl-plan selection.
package policy

import (
	"context"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/trust"
)

// SearchScoreThreshold is the normative cutoff above which a query
// authorises external search (spec.md §4.3), matching
// policy.py's SEARCH_THRESHOLD.
const SearchScoreThreshold = 0.55

// InternalIndex is the narrow interface the engine uses to weigh how many
// results the internal (Supabase-backed) job/scheme index already has for
// a query, so well-covered queries don't trigger unnecessary crawling.
type InternalIndex interface {
	CountMatches(ctx context.Context, query string) (int, error)
}

// Engine ties the pattern catalogues, rate limiter and trust registry
// together into a single per-request decision.
type Engine struct {
	registry    *trust.Registry
	rateLimiter *RateLimiter
	index       InternalIndex // optional; nil skips the internal-hit signal
	threshold   float64
}

// NewEngine builds a Policy Engine. index may be nil.
func NewEngine(registry *trust.Registry, rateLimiter *RateLimiter, index InternalIndex, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = SearchScoreThreshold
	}
	return &Engine{registry: registry, rateLimiter: rateLimiter, index: index, threshold: threshold}
}

// Evaluate produces the PolicyDecision for one query, per spec.md §4.3's
// evaluate() pipeline: detect intent, count internal hits, score, check
// rate limits, then pick a tier.
func (e *Engine) Evaluate(ctx context.Context, q model.Query) (model.PolicyDecision, CrawlPlan) {
	intent := DetectIntent(q.Text)

	if intent == model.IntentBlocked {
		return model.PolicyDecision{
			ShouldSearch: false,
			Score:        0,
			Intent:       intent,
			SearchTier:   model.TierNone,
			Reason:       "blocked_pattern",
		}, CrawlPlan{}
	}

	internalHits := 0
	if e.index != nil {
		if n, err := e.index.CountMatches(ctx, q.Text); err == nil {
			internalHits = n
		}
	}

	score := CalculateSearchScore(q.Text, intent, internalHits)

	if intent == model.IntentGreeting || intent == model.IntentSmallTalk || intent == model.IntentPersonalStatus {
		return model.PolicyDecision{
			ShouldSearch: false,
			Score:        score,
			Intent:       intent,
			SearchTier:   model.TierNone,
			Reason:       "conversational_intent",
		}, CrawlPlan{}
	}

	if score < e.threshold {
		return model.PolicyDecision{
			ShouldSearch: false,
			Score:        score,
			Intent:       intent,
			SearchTier:   model.TierInternalOnly,
			Reason:       "below_threshold",
		}, CrawlPlan{}
	}

	if q.UserID != "" && !e.rateLimiter.AllowDistributed(ctx, q.UserID) {
		return model.PolicyDecision{
			ShouldSearch: false,
			Score:        score,
			Intent:       intent,
			SearchTier:   model.TierInternalOnly,
			Reason:       "rate_limited",
			RateLimited:  true,
		}, CrawlPlan{}
	}

	queryType := queryTypeForIntent(intent)
	specificURL := ""
	if intent == model.IntentUrlFetch {
		specificURL, _ = ExtractURL(q.Text)
	}
	plan := ChoosePlan(e.registry, intent, queryType, specificURL)

	tier := model.TierCrawler
	if intent == model.IntentUrlFetch {
		tier = model.TierCrawler
	}

	return model.PolicyDecision{
		ShouldSearch: true,
		Score:        score,
		Intent:       intent,
		SearchTier:   tier,
		Reason:       "search_authorised",
	}, plan
}

func queryTypeForIntent(intent model.Intent) model.QueryType {
	switch intent {
	case model.IntentJobQuery:
		return model.TypeJob
	case model.IntentSchemeQuery:
		return model.TypeScheme
	case model.IntentResultQuery:
		return model.TypeResult
	case model.IntentDateQuery:
		return model.TypeCutoff
	case model.IntentDocumentQuery:
		return model.TypeSyllabus
	default:
		return model.TypeGeneral
	}
}
