// Package ranker implements the Ranker (spec.md §4.7): weighted scoring
// and sorting of crawled/API results, grounded line-for-line on
// original_source/backend/ai/search/ranker.py's ResultRanker.
package ranker

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/dssahayak/search/internal/dssearch/trust"
)

const (
	weightRelevance  = 0.40
	weightTrust      = 0.35
	weightFreshness  = 0.15
	weightTitleMatch = 0.10
)

var trustScores = map[model.SourceType]float64{
	model.SourceOfficial:     1.0,
	model.SourceSemiOfficial: 0.85,
	model.SourceEducational:  0.75,
	model.SourceAggregator:   0.50,
	model.SourceNews:         0.60,
	model.SourceUnknown:      0.30,
}

var domainTrustPatterns = []struct {
	pattern *regexp.Regexp
	kind    model.SourceType
}{
	{regexp.MustCompile(`\.gov\.in$`), model.SourceOfficial},
	{regexp.MustCompile(`\.nic\.in$`), model.SourceOfficial},
	{regexp.MustCompile(`\.ac\.in$`), model.SourceEducational},
	{regexp.MustCompile(`\.edu\.in$`), model.SourceEducational},
	{regexp.MustCompile(`sarkari`), model.SourceAggregator},
	{regexp.MustCompile(`jobalert`), model.SourceAggregator},
	{regexp.MustCompile(`freejobalert`), model.SourceAggregator},
	{regexp.MustCompile(`(news|times|india|daily)`), model.SourceNews},
}

var importantKeywords = []string{
	"official", "आधिकारिक", "notification", "नोटिफिकेशन",
	"apply", "आवेदन", "download", "डाउनलोड",
	"result", "रिजल्ट", "admit", "एडमिट",
	"last date", "अंतिम तिथि", "deadline",
}

var freshnessKeywords = []string{"latest", "new", "recent", "नया", "नई", "ताजा"}

var rankerFillerWords = map[string]struct{}{
	"kya": {}, "hai": {}, "hain": {}, "ka": {}, "ki": {}, "ke": {}, "me": {}, "mein": {},
	"the": {}, "is": {}, "are": {}, "a": {}, "an": {}, "what": {}, "how": {}, "when": {},
	"please": {}, "batao": {}, "bataiye": {}, "dikhao": {}, "show": {}, "tell": {},
}

// Ranker scores and sorts RawResults, preferring official government
// sources over aggregators.
type Ranker struct {
	registry *trust.Registry
}

// New builds a Ranker. registry may be nil, in which case trust scoring
// falls back to domain-pattern matching only.
func New(registry *trust.Registry) *Ranker {
	return &Ranker{registry: registry}
}

// Rank scores every result and returns them sorted by total score
// descending, mirroring ResultRanker.rank.
func (rk *Ranker) Rank(results []model.RawResult, query string, keywords []string) []model.RankedResult {
	if len(results) == 0 {
		return nil
	}
	if len(keywords) == 0 {
		keywords = ExtractKeywords(query)
	}

	ranked := make([]model.RankedResult, 0, len(results))
	for _, r := range results {
		domain := r.Domain
		sourceType := rk.domainType(domain)

		scores := model.Scores{
			Relevance:  rk.relevanceScore(r, query, keywords),
			Trust:      rk.trustScore(domain, sourceType),
			Freshness:  freshnessScore(r),
			TitleMatch: titleMatchScore(r.Title, keywords),
		}
		scores.Total = scores.Relevance*weightRelevance +
			scores.Trust*weightTrust +
			scores.Freshness*weightFreshness +
			scores.TitleMatch*weightTitleMatch

		ranked = append(ranked, model.RankedResult{
			RawResult:  r,
			Scores:     scores,
			SourceType: sourceType,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.Total > ranked[j].Scores.Total
	})
	return ranked
}

func (rk *Ranker) domainType(domain string) model.SourceType {
	lower := strings.ToLower(domain)
	if rk.registry != nil {
		if src, ok := rk.registry.GetSource(lower); ok {
			return src.Type
		}
	}
	for _, p := range domainTrustPatterns {
		if p.pattern.MatchString(lower) {
			return p.kind
		}
	}
	return model.SourceUnknown
}

func (rk *Ranker) trustScore(domain string, sourceType model.SourceType) float64 {
	if rk.registry != nil {
		priority := rk.registry.GetPriority(strings.ToLower(domain))
		if priority > 0 {
			score := float64(priority) / 10.0
			if score > 1.0 {
				score = 1.0
			}
			return score
		}
	}
	if score, ok := trustScores[sourceType]; ok {
		return score
	}
	return 0.30
}

func (rk *Ranker) relevanceScore(r model.RawResult, query string, keywords []string) float64 {
	score := 0.0
	title := strings.ToLower(r.Title)
	snippet := strings.ToLower(r.Snippet)
	content := strings.ToLower(r.Content)
	allText := title + " " + snippet + " " + content

	queryLower := strings.ToLower(query)
	if queryLower != "" && strings.Contains(allText, queryLower) {
		score += 0.30
	}

	if len(keywords) > 0 {
		found := 0
		for _, kw := range keywords {
			if strings.Contains(allText, strings.ToLower(kw)) {
				found++
			}
		}
		score += (float64(found) / float64(len(keywords))) * 0.40
	}

	for _, imp := range importantKeywords {
		if strings.Contains(allText, strings.ToLower(imp)) {
			score += 0.05
		}
	}

	queryWords := strings.Fields(queryLower)
	if len(queryWords) > 0 {
		titleMatches := 0
		for _, w := range queryWords {
			if strings.Contains(title, w) {
				titleMatches++
			}
		}
		score += (float64(titleMatches) / float64(len(queryWords))) * 0.20
	}

	if len(r.Snippet) > 100 {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func freshnessScore(r model.RawResult) float64 {
	score := 0.5
	content := r.Content
	snippet := r.Snippet
	currentYear := time.Now().Year()

	yearCur := strconv.Itoa(currentYear)
	yearPrev := strconv.Itoa(currentYear - 1)
	yearPrev2 := strconv.Itoa(currentYear - 2)

	switch {
	case strings.Contains(content, yearCur) || strings.Contains(snippet, yearCur):
		score = 0.90
	case strings.Contains(content, yearPrev) || strings.Contains(snippet, yearPrev):
		score = 0.70
	case strings.Contains(content, yearPrev2):
		score = 0.50
	}

	textLower := strings.ToLower(content + " " + snippet)
	for _, kw := range freshnessKeywords {
		if strings.Contains(textLower, kw) {
			score += 0.20
			break
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func titleMatchScore(title string, keywords []string) float64 {
	if title == "" || len(keywords) == 0 {
		return 0.0
	}
	titleLower := strings.ToLower(title)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// ExtractKeywords strips filler words and short tokens, mirroring
// _extract_keywords.
func ExtractKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	var out []string
	for _, w := range words {
		if _, filler := rankerFillerWords[w]; filler {
			continue
		}
		if len(w) <= 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// GetTopResults returns results at or above minScore, capped at
// maxResults, mirroring get_top_results.
func GetTopResults(ranked []model.RankedResult, minScore float64, maxResults int) []model.RankedResult {
	var out []model.RankedResult
	for _, r := range ranked {
		if r.Scores.Total >= minScore {
			out = append(out, r)
		}
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

// GetBestOfficialResult returns the first official or semi-official
// result, or nil if none qualify, mirroring get_best_official_result.
func GetBestOfficialResult(ranked []model.RankedResult) *model.RankedResult {
	for i := range ranked {
		if ranked[i].SourceType == model.SourceOfficial || ranked[i].SourceType == model.SourceSemiOfficial {
			return &ranked[i]
		}
	}
	return nil
}

// FormatForResponse renders the top three ranked results as a bilingual
// chat-style answer, mirroring format_for_response.
func FormatForResponse(ranked []model.RankedResult, language string) string {
	if len(ranked) == 0 {
		if language == "hi" {
			return "कोई प्रासंगिक जानकारी नहीं मिली।"
		}
		return "No relevant information found."
	}

	var sb strings.Builder
	if language == "hi" {
		sb.WriteString("🔍 **आपके सवाल के लिए मैंने खोजा:**\n\n")
	} else {
		sb.WriteString("🔍 **Here's what I found:**\n\n")
	}

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	for i, r := range top {
		trustIcon := "📄"
		if r.SourceType == model.SourceOfficial {
			trustIcon = "✅"
		}
		sb.WriteString(trustIcon + " **" + strconv.Itoa(i+1) + ". " + r.Title + "**\n")

		if r.Snippet != "" {
			snippet := r.Snippet
			if len(snippet) > 200 {
				sb.WriteString("   " + snippet[:200] + "...\n")
			} else {
				sb.WriteString("   " + snippet + "\n")
			}
		}

		sb.WriteString("   🔗 " + r.URL + "\n")

		if r.SourceType == model.SourceOfficial {
			if language == "hi" {
				sb.WriteString("   _(आधिकारिक स्रोत)_\n")
			} else {
				sb.WriteString("   _(Official Source)_\n")
			}
		}
		sb.WriteString("\n")
	}

	if language == "hi" {
		sb.WriteString("💡 *आधिकारिक वेबसाइट पर जाकर जानकारी verify करें।*")
	} else {
		sb.WriteString("💡 *Please verify on official website.*")
	}
	return sb.String()
}
