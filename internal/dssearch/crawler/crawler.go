// Package crawler implements the Crawler (spec.md §4.5): polite, rate
// limited HTML fetching and structured extraction, grounded on
// theRebelliousNerd-codenerd's golang.org/x/net/html DOM traversal and
// original_source/backend/ai/search/crawler.py's extraction-rule
// profiles and search_and_crawl ordering.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/dssahayak/search/internal/circuitbreaker"
	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/trust"
)

// defaultMaxContentBytes bounds how much of a response body is read, mirroring
// crawler.py's 1MB-class response handling generalised with an explicit
// config knob rather than a hardcoded constant.
const defaultMaxContentBytes = 1 << 20

const contentTruncateLen = 10000
const snippetLen = 300
const maxLinks = 10

var relevantLinkWords = []string{"apply", "download", "result", "notification", "official", "pdf"}

// selector is a minimal CSS selector: a bare tag name, a ".class", or an
// "#id" — the subset original_source/backend/ai/search/crawler.py's
// EXTRACTION_RULES actually uses with BeautifulSoup's select_one.
type selector struct {
	tag   string
	class string
	id    string
}

func parseSelector(s string) selector {
	switch {
	case strings.HasPrefix(s, "."):
		return selector{class: s[1:]}
	case strings.HasPrefix(s, "#"):
		return selector{id: s[1:]}
	default:
		return selector{tag: s}
	}
}

func compileSelectors(raw ...string) []selector {
	out := make([]selector, len(raw))
	for i, s := range raw {
		out[i] = parseSelector(s)
	}
	return out
}

func (sel selector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if sel.tag != "" && n.Data != sel.tag {
		return false
	}
	if sel.class != "" && !hasClass(n, sel.class) {
		return false
	}
	if sel.id != "" && attr(n, "id") != sel.id {
		return false
	}
	return true
}

type extractionRules struct {
	titleSelectors   []selector
	contentSelectors []selector
	dateSelectors    []selector
	removeSelectors  []selector
}

// defaultRules, govRules and aggregatorRules mirror EXTRACTION_RULES'
// "default", "gov.in" and "sarkariresult" profiles.
var defaultRules = extractionRules{
	titleSelectors:   compileSelectors("h1", "title", ".page-title", "#title"),
	contentSelectors: compileSelectors("article", "main", ".content", "#content", ".post-content", "body"),
	dateSelectors:    compileSelectors(".date", ".published", "time", ".post-date"),
	removeSelectors:  compileSelectors("script", "style", "nav", "header", "footer", "aside", ".sidebar", ".ads", ".advertisement"),
}

var govRules = extractionRules{
	titleSelectors:   compileSelectors("h1", ".page-title", "#page-title", "title"),
	contentSelectors: compileSelectors(".content-area", "#content", "main", ".main-content", "article"),
	dateSelectors:    compileSelectors(".date", ".last-updated", "time"),
	removeSelectors:  compileSelectors("script", "style", "nav", "header", "footer", ".menu", ".breadcrumb"),
}

var aggregatorRules = extractionRules{
	titleSelectors:   compileSelectors("h1", ".post-title"),
	contentSelectors: compileSelectors(".job-info", ".post-content", "article"),
	dateSelectors:    compileSelectors(".date"),
	removeSelectors:  compileSelectors("script", "style", "nav", ".sidebar", ".ads"),
}

func rulesForDomain(domain string) extractionRules {
	d := strings.ToLower(domain)
	if strings.HasSuffix(d, ".gov.in") || strings.HasSuffix(d, ".nic.in") {
		return govRules
	}
	if strings.Contains(d, "sarkari") {
		return aggregatorRules
	}
	return defaultRules
}

// Config tunes the crawler's HTTP behaviour.
type Config struct {
	Timeout         time.Duration
	UserAgent       string
	MaxContentBytes int64
}

// Crawler fetches and extracts structured content per spec.md §4.5,
// respecting per-domain rate limits from the Trust Registry and
// breaking the circuit on a domain that trips its failure ratio.
type Crawler struct {
	httpClient *http.Client
	cfg        Config
	registry   *trust.Registry
	breakers   *circuitbreaker.Manager

	mu          sync.Mutex
	lastRequest map[string]time.Time
}

// New builds a Crawler. registry may be nil, in which case domain
// rate limits fall back to 1 request/second and no domain is ever
// treated as blocked.
func New(cfg Config, registry *trust.Registry) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; DSSahayakBot/1.0; +https://digitalsahayak.in/bot)"
	}
	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = defaultMaxContentBytes
	}
	breakerCfg := circuitbreaker.DefaultConfig("crawler")
	breakerCfg.ReadyToTrip = func(c circuitbreaker.Counts) bool {
		return c.Requests >= 5 && c.FailureRatio() > 0.5
	}
	breakerCfg.Timeout = 60 * time.Second

	return &Crawler{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		registry:    registry,
		breakers:    circuitbreaker.NewManager(breakerCfg),
		lastRequest: make(map[string]time.Time),
	}
}

func (c *Crawler) respectRateLimit(domain string) {
	rate := 1.0
	if c.registry != nil {
		rate = c.registry.GetRateLimit(domain)
	}
	if rate <= 0 {
		rate = 1.0
	}
	minInterval := time.Duration(float64(time.Second) / rate)

	c.mu.Lock()
	last, ok := c.lastRequest[domain]
	c.lastRequest[domain] = time.Now()
	c.mu.Unlock()

	if ok {
		if elapsed := time.Since(last); elapsed < minInterval {
			time.Sleep(minInterval - elapsed)
		}
	}
}

// CrawlURL fetches and extracts structured content from a single URL,
// mirroring crawl_url's blocked-check / rate-limit / fetch / extract /
// stats-update flow.
func (c *Crawler) CrawlURL(ctx context.Context, rawURL string) model.RawResult {
	now := time.Now()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.RawResult{URL: rawURL, CrawledAt: now, Success: false, Metadata: map[string]string{"error": "invalid_url"}}
	}
	domain := parsed.Host

	if c.registry != nil && c.registry.IsBlocked(domain) {
		return model.RawResult{URL: rawURL, Domain: domain, CrawledAt: now, Success: false, Metadata: map[string]string{"error": "blocked_domain"}}
	}

	breaker := c.breakers.Get(domain)
	if err := breaker.Allow(); err != nil {
		return model.RawResult{URL: rawURL, Domain: domain, CrawledAt: now, Success: false, Metadata: map[string]string{"error": "circuit_open"}}
	}

	c.respectRateLimit(domain)

	result, fetchErr := c.fetchAndExtract(ctx, rawURL, domain)
	if fetchErr != nil {
		if c.registry != nil {
			c.registry.UpdateCrawlStats(domain, false)
		}
		_, _ = breaker.Execute(func() (interface{}, error) { return nil, fetchErr })
		return model.RawResult{URL: rawURL, Domain: domain, CrawledAt: now, Success: false, Metadata: map[string]string{"error": fetchErr.Error()}}
	}

	if c.registry != nil {
		c.registry.UpdateCrawlStats(domain, true)
	}
	_, _ = breaker.Execute(func() (interface{}, error) { return nil, nil })
	return result
}

func (c *Crawler) fetchAndExtract(ctx context.Context, rawURL, domain string) (model.RawResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.RawResult{}, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,hi;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.RawResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.RawResult{}, fmt.Errorf("http_%d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/pdf") {
		return model.RawResult{
			URL:       rawURL,
			Title:     lastPathSegment(rawURL),
			Content:   "PDF Document",
			Snippet:   "PDF file available for download",
			Domain:    domain,
			CrawledAt: time.Now(),
			Success:   true,
			Metadata:  map[string]string{"is_pdf": "true"},
		}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxContentBytes))
	if err != nil {
		return model.RawResult{}, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return model.RawResult{}, err
	}

	extracted := extractContent(doc, rawURL, rulesForDomain(domain))
	content := strings.Join(strings.Fields(extracted.content), " ")
	if r := []rune(content); len(r) > contentTruncateLen {
		content = string(r[:contentTruncateLen])
	}
	snippet := content
	if r := []rune(snippet); len(r) > snippetLen {
		snippet = string(r[:snippetLen]) + "..."
	}

	metadata := map[string]string{}
	if extracted.metaDescription != "" {
		metadata["meta_description"] = extracted.metaDescription
	}
	if extracted.date != "" {
		metadata["date"] = extracted.date
	}

	return model.RawResult{
		URL:       rawURL,
		Title:     extracted.title,
		Content:   content,
		Snippet:   snippet,
		Domain:    domain,
		CrawledAt: time.Now(),
		Success:   true,
		Links:     extracted.links,
		Metadata:  metadata,
	}, nil
}

func lastPathSegment(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	return parts[len(parts)-1]
}

// extractedContent is extractContent's result: the primary content node's
// text plus the metadata step 8 of the crawlUrl pipeline asks for.
type extractedContent struct {
	title           string
	content         string
	metaDescription string
	date            string
	links           []string
}

// extractContent walks the parsed DOM per scraper.go's traverse idiom,
// selecting nodes the same way BeautifulSoup's select_one does: for each
// selector in the profile's list, scan the (non-removed) tree and use the
// first match; move to the next selector only if none was found. Also
// pulls <meta name="description"> and the top-10
// apply/download/result/notification/official/pdf links.
func extractContent(doc *html.Node, baseURL string, rules extractionRules) extractedContent {
	var candidates []*html.Node
	var linkNodes []*html.Node
	var metaDescription string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, rs := range rules.removeSelectors {
				if rs.matches(n) {
					return
				}
			}
			if n.Data == "meta" && attr(n, "name") == "description" {
				metaDescription = attr(n, "content")
			}
			if n.Data == "a" {
				linkNodes = append(linkNodes, n)
			}
			candidates = append(candidates, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	title := firstMatch(candidates, rules.titleSelectors)
	content := firstMatch(candidates, rules.contentSelectors)
	date := firstMatch(candidates, rules.dateSelectors)

	titleText, contentText, dateText := "", "", ""
	if title != nil {
		titleText = textContent(title)
	}
	if content != nil {
		contentText = textContent(content)
	} else {
		contentText = textContent(doc)
	}
	if date != nil {
		dateText = textContent(date)
	}

	var links []string
	for _, a := range linkNodes {
		if len(links) >= maxLinks {
			break
		}
		href := attr(a, "href")
		if href == "" {
			continue
		}
		text := strings.ToLower(textContent(a))
		if !containsAnyWord(text, relevantLinkWords) {
			continue
		}
		resolved := resolveURL(baseURL, href)
		if strings.HasPrefix(resolved, "http") {
			links = append(links, resolved)
		}
	}

	return extractedContent{
		title:           titleText,
		content:         contentText,
		metaDescription: metaDescription,
		date:            dateText,
		links:           links,
	}
}

// firstMatch tries each selector in order against the already-collected,
// document-order node list, returning the first node the first selector
// with any hit matches — select_one's "try this selector, else the next"
// fallback chain.
func firstMatch(nodes []*html.Node, selectors []selector) *html.Node {
	for _, sel := range selectors {
		for _, n := range nodes {
			if sel.matches(n) {
				return n
			}
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func containsAnyWord(haystack string, words []string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}
