// Package searchapi implements the Paid API Adapter (spec.md §4.6): an
// optional, disabled-by-default search provider selected among Google
// Custom Search, Bing Web Search, and SerpAPI, grounded on
// original_source/backend/ai/search/search_api.py.
package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/dssahayak/search/internal/dssearch/crawler"
)

// Provider is any paid search backend; see search_api.py's abstract
// SearchAPIProvider (search + get_remaining_quota).
type Provider interface {
	Search(ctx context.Context, query string, numResults int) ([]crawler.SearchResult, error)
	RemainingQuota() int
}

// disabledProvider always returns empty results — the default when no
// admin has explicitly opted in, mirroring DisabledSearchAPI.
type disabledProvider struct{}

func (disabledProvider) Search(ctx context.Context, query string, numResults int) ([]crawler.SearchResult, error) {
	return nil, nil
}
func (disabledProvider) RemainingQuota() int { return 0 }

// Config selects and configures the active provider.
type Config struct {
	Enabled    bool
	Provider   string // "google", "bing", "serpapi", "" (disabled)
	DailyLimit int
	GoogleKey  string
	GoogleCX   string
	BingKey    string
	SerpAPIKey string
}

// Manager owns the active provider and its daily quota, mirroring
// SearchAPIManager's configuration/selection/usage-tracking role.
type Manager struct {
	mu       sync.Mutex
	provider Provider
}

// NewManager selects a provider from cfg. An unrecognised or
// under-configured provider falls back to disabled, same as the
// Python _initialize_provider's final else branch.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 100
	}

	if !cfg.Enabled {
		return &Manager{provider: disabledProvider{}}, nil
	}

	switch cfg.Provider {
	case "google":
		if cfg.GoogleKey == "" || cfg.GoogleCX == "" {
			return &Manager{provider: disabledProvider{}}, nil
		}
		svc, err := customsearch.NewService(context.Background(), option.WithAPIKey(cfg.GoogleKey))
		if err != nil {
			return nil, fmt.Errorf("init google custom search: %w", err)
		}
		return &Manager{provider: &googleProvider{svc: svc, cx: cfg.GoogleCX, dailyLimit: cfg.DailyLimit}}, nil
	case "bing":
		if cfg.BingKey == "" {
			return &Manager{provider: disabledProvider{}}, nil
		}
		return &Manager{provider: &bingProvider{apiKey: cfg.BingKey, dailyLimit: cfg.DailyLimit, client: http.DefaultClient}}, nil
	case "serpapi":
		if cfg.SerpAPIKey == "" {
			return &Manager{provider: disabledProvider{}}, nil
		}
		return &Manager{provider: &serpAPIProvider{apiKey: cfg.SerpAPIKey, dailyLimit: cfg.DailyLimit, client: http.DefaultClient}}, nil
	default:
		return &Manager{provider: disabledProvider{}}, nil
	}
}

// Search executes a query through whichever provider is active.
func (m *Manager) Search(ctx context.Context, query string, numResults int) ([]crawler.SearchResult, error) {
	m.mu.Lock()
	p := m.provider
	m.mu.Unlock()
	return p.Search(ctx, query, numResults)
}

// IsEnabled reports whether the active provider is anything but disabled.
func (m *Manager) IsEnabled() bool {
	_, disabled := m.provider.(disabledProvider)
	return !disabled
}

// RemainingQuota reports the active provider's remaining daily quota.
func (m *Manager) RemainingQuota() int {
	return m.provider.RemainingQuota()
}

// googleProvider wraps google.golang.org/api/customsearch/v1 — the one
// provider the pack carries a real SDK for.
type googleProvider struct {
	mu          sync.Mutex
	svc         *customsearch.Service
	cx          string
	dailyLimit  int
	queriesUsed int
}

func (g *googleProvider) Search(ctx context.Context, query string, numResults int) ([]crawler.SearchResult, error) {
	g.mu.Lock()
	if g.queriesUsed >= g.dailyLimit {
		g.mu.Unlock()
		return nil, nil
	}
	g.mu.Unlock()

	if numResults > 10 {
		numResults = 10
	}
	call := g.svc.Cse.List().Cx(g.cx).Q(query).Num(int64(numResults)).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("google custom search: %w", err)
	}

	g.mu.Lock()
	g.queriesUsed++
	g.mu.Unlock()

	var out []crawler.SearchResult
	for _, item := range resp.Items {
		out = append(out, crawler.SearchResult{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return out, nil
}

func (g *googleProvider) RemainingQuota() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	remaining := g.dailyLimit - g.queriesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// bingProvider is a hand-rolled net/http client — no pack library targets
// Bing Web Search, so this follows the teacher's own net/http usage
// idiom (see internal/webhooks) rather than a third-party SDK.
type bingProvider struct {
	mu          sync.Mutex
	apiKey      string
	dailyLimit  int
	queriesUsed int
	client      *http.Client
}

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (b *bingProvider) Search(ctx context.Context, query string, numResults int) ([]crawler.SearchResult, error) {
	b.mu.Lock()
	if b.queriesUsed >= b.dailyLimit {
		b.mu.Unlock()
		return nil, nil
	}
	b.mu.Unlock()

	if numResults > 50 {
		numResults = 50
	}
	endpoint := "https://api.bing.microsoft.com/v7.0/search?" + url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", numResults)},
		"mkt":   {"en-IN"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bing search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing search: http %d", resp.StatusCode)
	}

	var data bingResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("bing search: decode: %w", err)
	}

	b.mu.Lock()
	b.queriesUsed++
	b.mu.Unlock()

	out := make([]crawler.SearchResult, 0, len(data.WebPages.Value))
	for _, p := range data.WebPages.Value {
		out = append(out, crawler.SearchResult{Title: p.Name, URL: p.URL, Snippet: p.Snippet})
	}
	return out, nil
}

func (b *bingProvider) RemainingQuota() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := b.dailyLimit - b.queriesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// serpAPIProvider is a hand-rolled net/http client for the same reason
// as bingProvider: no pack library targets SerpAPI.
type serpAPIProvider struct {
	mu          sync.Mutex
	apiKey      string
	dailyLimit  int
	queriesUsed int
	client      *http.Client
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (s *serpAPIProvider) Search(ctx context.Context, query string, numResults int) ([]crawler.SearchResult, error) {
	s.mu.Lock()
	if s.queriesUsed >= s.dailyLimit {
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()

	if numResults > 10 {
		numResults = 10
	}
	endpoint := "https://serpapi.com/search?" + url.Values{
		"api_key": {s.apiKey},
		"q":       {query},
		"num":     {fmt.Sprintf("%d", numResults)},
		"gl":      {"in"},
		"hl":      {"hi"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi search: http %d", resp.StatusCode)
	}

	var data serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("serpapi search: decode: %w", err)
	}

	s.mu.Lock()
	s.queriesUsed++
	s.mu.Unlock()

	out := make([]crawler.SearchResult, 0, len(data.OrganicResults))
	for _, r := range data.OrganicResults {
		out = append(out, crawler.SearchResult{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return out, nil
}

func (s *serpAPIProvider) RemainingQuota() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := s.dailyLimit - s.queriesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
