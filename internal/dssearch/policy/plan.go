package policy

import (
	"time"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/trust"
)

// CrawlPlan is the Policy Engine's recommendation for how far the
// pipeline may go once a search is authorised (spec.md §4.3).
type CrawlPlan struct {
	Domains     []string
	MaxPages    int
	Timeout     time.Duration
	SpecificURL string // set only for IntentUrlFetch
}

// defaultMaxPages/defaultTimeout mirror choose_crawl_plan's fallback
// branch in original_source/backend/ai/search/policy.py.
const (
	defaultMaxPages    = 5
	defaultTimeout     = 15 * time.Second
	urlFetchTimeout    = 20 * time.Second
	jobMaxPages        = 8
	schemeMaxPages     = 6
	resultMaxPages     = 4
)

// ChoosePlan maps an intent and query type onto a concrete crawl plan,
// drawing the domain whitelist from the Trust Registry the same way
// choose_crawl_plan looks up TrustedSources.get_domains_for_category.
func ChoosePlan(registry *trust.Registry, intent model.Intent, queryType model.QueryType, specificURL string) CrawlPlan {
	if intent == model.IntentUrlFetch {
		return CrawlPlan{
			SpecificURL: specificURL,
			MaxPages:    1,
			Timeout:     urlFetchTimeout,
		}
	}

	domains := registry.DomainsForQueryType(queryType)

	switch intent {
	case model.IntentJobQuery:
		return CrawlPlan{Domains: domains, MaxPages: jobMaxPages, Timeout: defaultTimeout}
	case model.IntentSchemeQuery:
		return CrawlPlan{Domains: domains, MaxPages: schemeMaxPages, Timeout: defaultTimeout}
	case model.IntentResultQuery:
		return CrawlPlan{Domains: domains, MaxPages: resultMaxPages, Timeout: defaultTimeout}
	case model.IntentDateQuery, model.IntentDocumentQuery, model.IntentGeneralInfo:
		return CrawlPlan{Domains: domains, MaxPages: defaultMaxPages, Timeout: defaultTimeout}
	default:
		return CrawlPlan{Domains: domains, MaxPages: defaultMaxPages, Timeout: defaultTimeout}
	}
}
