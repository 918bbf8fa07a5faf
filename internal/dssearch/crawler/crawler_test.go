package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlURL_ExtractsTitleAndContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>SSC CGL Notification</title></head>
			<body><nav>skip me</nav><article>Apply before the last date. <a href="/apply">Apply Now</a></article></body></html>`))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	result := c.CrawlURL(context.Background(), srv.URL)

	require.True(t, result.Success)
	assert.Equal(t, "SSC CGL Notification", result.Title)
	assert.Contains(t, result.Content, "Apply before the last date")
	require.Len(t, result.Links, 1)
	assert.Contains(t, result.Links[0], "/apply")
}

func TestExtractContent_GovDomainUsesClassSelectors(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><head><title>fallback</title>
		<meta name="description" content="Official SSC CGL 2026 notification"></head>
		<body>
			<nav>skip me</nav>
			<div class="content-area">
				<h1>SSC CGL 2026 Notification</h1>
				<span class="last-updated">30 Jul 2026</span>
				Apply before the last date.
			</div>
			<article>should not be picked, content-area wins first</article>
		</body></html>`))
	require.NoError(t, err)

	rules := rulesForDomain("ssc.gov.in")
	extracted := extractContent(doc, "https://ssc.gov.in/notice", rules)

	assert.Equal(t, "SSC CGL 2026 Notification", extracted.title)
	assert.Contains(t, extracted.content, "Apply before the last date")
	assert.NotContains(t, extracted.content, "should not be picked")
	assert.Equal(t, "Official SSC CGL 2026 notification", extracted.metaDescription)
	assert.Equal(t, "30 Jul 2026", extracted.date)
}

func TestExtractContent_AggregatorDomainUsesJobInfoClass(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body>
		<div class="sidebar">ads here</div>
		<div class="post-title">Railway RRB NTPC Result 2026</div>
		<div class="job-info"><span class="date">29 Jul 2026</span>Check your result now.</div>
	</body></html>`))
	require.NoError(t, err)

	rules := rulesForDomain("sarkariresult.com")
	extracted := extractContent(doc, "https://sarkariresult.com/rrb", rules)

	assert.Equal(t, "Railway RRB NTPC Result 2026", extracted.title)
	assert.Contains(t, extracted.content, "Check your result now")
	assert.Equal(t, "29 Jul 2026", extracted.date)
}

func TestCrawlURL_NonOKStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	result := c.CrawlURL(context.Background(), srv.URL)

	assert.False(t, result.Success)
}

func TestCrawlURL_PDFShortcut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	result := c.CrawlURL(context.Background(), srv.URL+"/notice.pdf")

	require.True(t, result.Success)
	assert.Equal(t, "notice.pdf", result.Title)
	assert.Equal(t, "PDF Document", result.Content)
}

func TestSearchAndCrawl_DedupesByURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>T</title></head><body><article>content</article></body></html>`))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	results := []SearchResult{
		{URL: srv.URL + "/a", Title: "A"},
		{URL: srv.URL + "/a", Title: "A dup"},
		{URL: srv.URL + "/b", Title: "B"},
	}

	out := c.SearchAndCrawl(context.Background(), "", nil, 5, results)
	assert.Len(t, out, 2)
}

func TestParseDuckDuckGoResults_ExtractsTitleURLAndSnippet(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><div class="results">
		<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fssc.nic.in%2Fcgl">SSC CGL Notification</a>
		<a class="result__snippet">Apply before the last date for SSC CGL.</a>
	</div></body></html>`))
	require.NoError(t, err)

	results := parseDuckDuckGoResults(doc, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "SSC CGL Notification", results[0].Title)
	assert.Equal(t, "Apply before the last date for SSC CGL.", results[0].Snippet)

	unwrapped := unwrapDuckDuckGoRedirect(results[0].URL)
	assert.Equal(t, "https://ssc.nic.in/cgl", unwrapped)
}

func TestUnwrapDuckDuckGoRedirect_PassesThroughPlainURLs(t *testing.T) {
	assert.Equal(t, "https://example.gov.in/x", unwrapDuckDuckGoRedirect("https://example.gov.in/x"))
}

func TestSearchAndCrawl_SpecificURLShortcut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Direct</title></head><body><article>x</article></body></html>`))
	}))
	defer srv.Close()

	c := New(Config{Timeout: 5 * time.Second}, nil)
	out := c.SearchAndCrawl(context.Background(), srv.URL, nil, 5, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "Direct", out[0].Title)
}
