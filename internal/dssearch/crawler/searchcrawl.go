package crawler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dssahayak/search/internal/dssearch/model"
)

// interPageDelay is the fixed sleep between successive page fetches in
// SearchAndCrawl (spec.md §4.5's search-and-crawl step), independent of
// respectRateLimit's per-domain politeness window since plan.maxPages
// results commonly span distinct domains.
const interPageDelay = 500 * time.Millisecond

// SearchResult is one externally-sourced hit before crawling: a free
// DuckDuckGo discovery hit, or a Paid API Adapter provider result.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// ddgResultBytes bounds how much of the DuckDuckGo HTML results page is
// read, same rationale as Config.MaxContentBytes on a crawled page.
const ddgResultBytes = 1 << 19

// DiscoverDuckDuckGo performs a free search-result discovery pass
// against DuckDuckGo's HTML-only endpoint (no JS, no API key), mirroring
// crawler.py's search_duckduckgo. No pack library wraps DuckDuckGo, so
// this reuses the same golang.org/x/net/html traversal idiom as
// fetchAndExtract rather than adding a bespoke HTTP+regex scraper.
func (c *Crawler) DiscoverDuckDuckGo(ctx context.Context, query string, maxResults int) []SearchResult {
	endpoint := "https://html.duckduckgo.com/html/?" + url.Values{"q": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, ddgResultBytes))
	if err != nil {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	results := parseDuckDuckGoResults(doc, maxResults)
	for i := range results {
		results[i].URL = unwrapDuckDuckGoRedirect(results[i].URL)
	}
	return results
}

// parseDuckDuckGoResults walks the result-list DOM: each hit is an
// <a class="result__a"> title link followed by a ".result__snippet".
func parseDuckDuckGoResults(doc *html.Node, maxResults int) []SearchResult {
	var out []SearchResult

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if len(out) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			out = append(out, SearchResult{
				Title: textContent(n),
				URL:   attr(n, "href"),
			})
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__snippet") && len(out) > 0 {
			out[len(out)-1].Snippet = textContent(n)
		}
		for ch := n.FirstChild; ch != nil && len(out) < maxResults; ch = ch.NextSibling {
			traverse(ch)
		}
	}
	traverse(doc)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.Contains(" "+a.Val+" ", " "+class+" ") {
			return true
		}
	}
	return false
}

// unwrapDuckDuckGoRedirect strips DDG's "/l/?uddg=<encoded>" redirect
// wrapper, returning the real destination URL when present.
func unwrapDuckDuckGoRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.Contains(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			if decoded, err := url.QueryUnescape(target); err == nil {
				return decoded
			}
		}
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

// SearchAndCrawl fetches every deduplicated, domain-prioritised result up
// to plan.MaxPages, mirroring search_and_crawl's specific-url shortcut,
// dedup-by-URL, and prefer_official domain reordering.
func (c *Crawler) SearchAndCrawl(ctx context.Context, specificURL string, domains []string, maxPages int, results []SearchResult) []model.RawResult {
	if specificURL != "" {
		r := c.CrawlURL(ctx, specificURL)
		if r.Success {
			return []model.RawResult{r}
		}
		return nil
	}

	unique := dedupeByURL(results)
	if len(domains) > 0 {
		unique = prioritizeDomains(unique, domains)
	}

	var out []model.RawResult
	seen := make(map[string]struct{})
	for _, sr := range unique {
		if len(out) >= maxPages {
			break
		}
		if sr.URL == "" {
			continue
		}
		if _, ok := seen[sr.URL]; ok {
			continue
		}
		seen[sr.URL] = struct{}{}

		if len(out) > 0 {
			select {
			case <-ctx.Done():
				return out
			case <-time.After(interPageDelay):
			}
		}

		crawled := c.CrawlURL(ctx, sr.URL)
		if !crawled.Success {
			crawled.Title = sr.Title
			crawled.Snippet = sr.Snippet
			crawled.Content = sr.Snippet
		}
		out = append(out, crawled)
	}
	return out
}

func dedupeByURL(results []SearchResult) []SearchResult {
	seen := make(map[string]struct{})
	var out []SearchResult
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out
}

func prioritizeDomains(results []SearchResult, domains []string) []SearchResult {
	var prioritized, others []SearchResult
	for _, r := range results {
		if isPreferredDomain(r.URL, domains) {
			prioritized = append(prioritized, r)
		} else {
			others = append(others, r)
		}
	}
	return append(prioritized, others...)
}

func isPreferredDomain(rawURL string, domains []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	for _, d := range domains {
		if strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}
