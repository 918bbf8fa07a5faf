// Package orchestrator implements the Orchestrator (spec.md §4.9): the
// single entry point that sequences Policy, Cache, Query Generator,
// Crawler, Paid API Adapter, Ranker, and Evidence Extractor into one
// Ask call, grounded on original_source/backend/ai/search/ds_search.py's
// DSSearch.search flow.
package orchestrator

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/dssahayak/search/internal/dssearch/cache"
	"github.com/dssahayak/search/internal/dssearch/crawler"
	"github.com/dssahayak/search/internal/dssearch/evidence"
	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/policy"
	"github.com/dssahayak/search/internal/dssearch/querygen"
	"github.com/dssahayak/search/internal/dssearch/ranker"
	"github.com/dssahayak/search/internal/dssearch/searchapi"
)

const (
	topResultMinScore = 0.40
	topResultMax      = 5
	maxSearchLogs     = 1000
	defaultCacheTTL   = 6 * time.Hour
)

// Response is what Ask returns to callers, mirroring SearchResponse.to_dict.
type Response struct {
	Success   bool
	Query     string
	Results   []model.RankedResult
	Formatted string
	Source    model.CacheSource
	Score     float64
	Intent    model.Intent
	Metadata  map[string]string
}

// FetchResult is what FetchUrl returns for a specific-URL crawl.
type FetchResult struct {
	Success   bool
	Title     string
	Summary   string
	Content   string
	KeyPoints []string
	Links     []string
}

// EventPublisher fans an outcome log entry out to a durable event bus.
// Satisfied by pubsubPublisher; nil means no publishing.
type EventPublisher interface {
	Publish(ctx context.Context, payload []byte)
}

// LogStore durably persists outcome log entries, an alternative to the
// bounded in-memory ring when StorageConfig.Spanner is configured.
// Satisfied by storage.SpannerLogStore; nil means memory-only.
type LogStore interface {
	Append(ctx context.Context, entry model.SearchLogEntry) error
}

// Orchestrator wires every pipeline stage together behind one Ask call.
type Orchestrator struct {
	policy    *policy.Engine
	querygen  *querygen.Generator
	crawler   *crawler.Crawler
	searchAPI *searchapi.Manager
	ranker    *ranker.Ranker
	evidence  *evidence.Extractor
	cache     *cache.Cache
	rateLim   *policy.RateLimiter
	events    EventPublisher // optional
	logStore  LogStore       // optional

	mu   sync.Mutex
	logs []model.SearchLogEntry
}

// Config bundles every collaborator Ask needs.
type Config struct {
	Policy      *policy.Engine
	QueryGen    *querygen.Generator
	Crawler     *crawler.Crawler
	SearchAPI   *searchapi.Manager
	Ranker      *ranker.Ranker
	Evidence    *evidence.Extractor
	Cache       *cache.Cache
	RateLimiter *policy.RateLimiter
	Events      EventPublisher
	LogStore    LogStore
}

// New builds an Orchestrator from its collaborators.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		policy:    cfg.Policy,
		querygen:  cfg.QueryGen,
		crawler:   cfg.Crawler,
		searchAPI: cfg.SearchAPI,
		ranker:    cfg.Ranker,
		evidence:  cfg.Evidence,
		cache:     cfg.Cache,
		rateLim:   cfg.RateLimiter,
		events:    cfg.Events,
		logStore:  cfg.LogStore,
	}
}

// Ask runs one query through the full pipeline per spec.md §4.9's
// numbered steps, never raising to the caller on stage failure.
func (o *Orchestrator) Ask(ctx context.Context, query, userID string, language model.Language, wantFacts bool) Response {
	start := time.Now()
	q := model.Query{Text: query, UserID: userID, Language: language}

	// Step 1: policy evaluation.
	decision, plan := o.policy.Evaluate(ctx, q)
	if !decision.ShouldSearch {
		o.logOutcome(query, userID, decision, "blocked", model.ResultSourceNone, 0, time.Since(start))
		return Response{
			Success:   false,
			Query:     query,
			Formatted: noSearchResponse(decision, language),
			Source:    model.ResultSourceNone,
			Score:     decision.Score,
			Intent:    decision.Intent,
			Metadata:  map[string]string{"reason": decision.Reason},
		}
	}

	// Step 2: cache lookup.
	if entry, hit := o.cache.Get(ctx, query); hit {
		ranked := o.ranker.Rank(entry.Results, query, nil)
		top := ranker.GetTopResults(ranked, topResultMinScore, topResultMax)
		o.logOutcome(query, userID, decision, "cache_hit", model.ResultSourceCache, len(top), time.Since(start))
		return Response{
			Success:   len(top) > 0,
			Query:     query,
			Results:   top,
			Formatted: ranker.FormatForResponse(top, string(language)),
			Source:    model.ResultSourceCache,
			Score:     decision.Score,
			Intent:    decision.Intent,
			Metadata:  map[string]string{"cache_hit": "true"},
		}
	}

	// Step 3: generate queries.
	queryType := queryTypeForIntent(decision.Intent)
	generated := o.querygen.Generate(query, queryType)
	primary := query
	if len(generated) > 0 {
		primary = generated[0].Text
	}

	// Step 4/5: discover candidate URLs for up to the first 3 generated
	// queries via the free DuckDuckGo discovery pass, then crawl per the
	// chosen plan, mirroring search_and_crawl's multi-query fan-in.
	var discovered []crawler.SearchResult
	if plan.SpecificURL == "" {
		queries := generated
		if len(queries) > 3 {
			queries = queries[:3]
		}
		for _, gq := range queries {
			discovered = append(discovered, o.crawler.DiscoverDuckDuckGo(ctx, gq.Text, plan.MaxPages)...)
		}
	}
	rawResults := o.crawler.SearchAndCrawl(ctx, plan.SpecificURL, plan.Domains, plan.MaxPages, discovered)
	source := model.ResultSourceCrawler

	// Step 6: fall back to the Paid API Adapter when the crawler found
	// nothing and a provider is enabled.
	if len(rawResults) == 0 && o.searchAPI != nil && o.searchAPI.IsEnabled() {
		apiHits, err := o.searchAPI.Search(ctx, primary, 5)
		if err == nil && len(apiHits) > 0 {
			rawResults = o.crawler.SearchAndCrawl(ctx, "", plan.Domains, plan.MaxPages, apiHits)
			source = model.ResultSourceAPI
		}
	}

	// Step 7: rank.
	keywords := queryKeywords(generated)
	ranked := o.ranker.Rank(rawResults, query, keywords)
	top := ranker.GetTopResults(ranked, topResultMinScore, topResultMax)

	// Step 8: evidence extraction, only when requested.
	var facts *model.Facts
	if wantFacts {
		facts = o.evidence.Extract(top, queryType)
	}

	// Step 9: cache write.
	if len(top) > 0 {
		rawTop := make([]model.RawResult, len(top))
		for i, r := range top {
			rawTop[i] = r.RawResult
		}
		o.cache.Put(ctx, query, rawTop, defaultCacheTTL, source)
	}

	// Step 10: rate-limit increment, only on external success. Cache hits
	// return before this point (Step 2) and never reach it, but the
	// source check is kept explicit to match spec.md:116/280.
	if userID != "" && len(top) > 0 && source != model.ResultSourceCache {
		o.rateLim.IncrementDistributed(ctx, userID)
	}

	if len(top) == 0 {
		source = model.ResultSourceNone
	}
	o.logOutcome(query, userID, decision, "search_complete", source, len(top), time.Since(start))

	formatted := ranker.FormatForResponse(top, string(language))
	if len(top) == 0 {
		formatted = notFoundResponse(language)
	}

	metadata := map[string]string{}
	if facts != nil {
		metadata["facts_valid"] = boolString(facts.Valid())
	}

	return Response{
		Success:   len(top) > 0,
		Query:     query,
		Results:   top,
		Formatted: formatted,
		Source:    source,
		Score:     decision.Score,
		Intent:    decision.Intent,
		Metadata:  metadata,
	}
}

// FetchUrl crawls one specific URL, bypassing policy/cache/ranking —
// the auxiliary operation for "open this link and summarise it".
func (o *Orchestrator) FetchUrl(ctx context.Context, rawURL, userID string) FetchResult {
	result := o.crawler.CrawlURL(ctx, rawURL)
	if !result.Success {
		return FetchResult{Success: false}
	}
	return FetchResult{
		Success:   true,
		Title:     result.Title,
		Summary:   result.Snippet,
		Content:   result.Content,
		KeyPoints: extractKeyPoints(result.Content),
		Links:     result.Links,
	}
}

// RecentLogs returns the last n outcome records, newest first, per the
// admin recentLogs(n) operation.
func (o *Orchestrator) RecentLogs(n int) []model.SearchLogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if n <= 0 || n > len(o.logs) {
		n = len(o.logs)
	}
	out := make([]model.SearchLogEntry, n)
	for i := 0; i < n; i++ {
		out[i] = o.logs[len(o.logs)-1-i]
	}
	return out
}

func (o *Orchestrator) logOutcome(query, userID string, decision model.PolicyDecision, action string, source model.CacheSource, resultCount int, duration time.Duration) {
	entry := model.SearchLogEntry{
		Query:       query,
		UserIDHash:  hashUserID(userID),
		Timestamp:   time.Now(),
		Intent:      decision.Intent,
		Score:       decision.Score,
		Action:      action,
		Source:      source,
		ResultCount: resultCount,
		DurationMs:  duration.Milliseconds(),
	}

	o.mu.Lock()
	o.logs = append(o.logs, entry)
	if len(o.logs) > maxSearchLogs {
		o.logs = o.logs[len(o.logs)-maxSearchLogs:]
	}
	o.mu.Unlock()

	if o.events != nil {
		if payload, err := json.Marshal(entry); err == nil {
			o.events.Publish(context.Background(), payload)
		}
	}
	if o.logStore != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			o.logStore.Append(ctx, entry)
		}()
	}
}

// hashUserID anonymises the caller-supplied user id so raw identities
// never enter the append-only log, per spec.md §4.9's log shape.
func hashUserID(userID string) string {
	if userID == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:16])
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

func queryKeywords(generated []model.GeneratedQuery) []string {
	var out []string
	for _, gq := range generated {
		if gq.Text == "" {
			continue
		}
		fields := splitFields(gq.Text)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

func splitFields(s string) []string {
	var out []string
	var cur []rune
	for _, r := range s {
		if r == ' ' {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func extractKeyPoints(content string) []string {
	sentences := splitSentences(content)
	var out []string
	for _, s := range sentences {
		if len(s) > 20 && len(out) < 5 {
			out = append(out, s)
		}
	}
	return out
}

func splitSentences(content string) []string {
	var out []string
	var cur []rune
	for _, r := range content {
		cur = append(cur, r)
		if r == '.' || r == '\n' {
			s := trimSpace(string(cur))
			if s != "" {
				out = append(out, s)
			}
			cur = nil
		}
	}
	if s := trimSpace(string(cur)); s != "" {
		out = append(out, s)
	}
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '.') {
		end--
	}
	return s[start:end]
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func noSearchResponse(decision model.PolicyDecision, language model.Language) string {
	if language == model.LangEnglish {
		switch decision.Reason {
		case "blocked_pattern":
			return "I can't help with that request."
		case "rate_limited":
			return "You've reached your search limit for now. Please try again later."
		default:
			return "Let me know what job, scheme, or result you're looking for."
		}
	}
	switch decision.Reason {
	case "blocked_pattern":
		return "मैं इस अनुरोध में मदद नहीं कर सकता।"
	case "rate_limited":
		return "आपने अभी के लिए खोज सीमा पूरी कर ली है। कृपया बाद में पुनः प्रयास करें।"
	default:
		return "बताइए किस नौकरी, योजना या रिजल्ट की जानकारी चाहिए।"
	}
}

func notFoundResponse(language model.Language) string {
	if language == model.LangEnglish {
		return "No relevant information found. Please check the official website directly."
	}
	return "कोई प्रासंगिक जानकारी नहीं मिली। कृपया आधिकारिक वेबसाइट पर सीधे जांच करें।"
}
