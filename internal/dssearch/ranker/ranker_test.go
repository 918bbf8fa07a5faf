package ranker

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dssahayak/search/internal/dssearch/model"
)

func TestRank_PrefersOfficialOverAggregator(t *testing.T) {
	rk := New(nil)
	currentYear := strconv.Itoa(time.Now().Year())
	results := []model.RawResult{
		{
			URL: "https://sarkariresult.com/ssc", Domain: "sarkariresult.com",
			Title: "SSC CGL Result " + currentYear, Snippet: "ssc cgl result " + currentYear, Content: "ssc cgl result",
		},
		{
			URL: "https://ssc.nic.in/result", Domain: "ssc.nic.in",
			Title: "SSC CGL Official Result " + currentYear, Snippet: "official notification ssc cgl result " + currentYear, Content: "official result",
		},
	}

	ranked := rk.Rank(results, "ssc cgl result", nil)
	require.Len(t, ranked, 2)
	assert.Equal(t, "ssc.nic.in", ranked[0].Domain)
	assert.Equal(t, model.SourceOfficial, ranked[0].SourceType)
	assert.Greater(t, ranked[0].Scores.Total, ranked[1].Scores.Total)
}

func TestExtractKeywords_DropsFillerAndShortWords(t *testing.T) {
	kws := ExtractKeywords("kya hai SSC CGL ka result")
	assert.Contains(t, kws, "ssc")
	assert.Contains(t, kws, "cgl")
	assert.Contains(t, kws, "result")
	assert.NotContains(t, kws, "kya")
	assert.NotContains(t, kws, "hai")
	assert.NotContains(t, kws, "ka")
}

func TestGetTopResults_FiltersByMinScoreAndCaps(t *testing.T) {
	ranked := []model.RankedResult{
		{RawResult: model.RawResult{Title: "a"}, Scores: model.Scores{Total: 0.9}},
		{RawResult: model.RawResult{Title: "b"}, Scores: model.Scores{Total: 0.5}},
		{RawResult: model.RawResult{Title: "c"}, Scores: model.Scores{Total: 0.7}},
	}
	top := GetTopResults(ranked, 0.65, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Title)
	assert.Equal(t, "c", top[1].Title)
}

func TestGetBestOfficialResult_SkipsNonOfficial(t *testing.T) {
	ranked := []model.RankedResult{
		{RawResult: model.RawResult{Title: "agg"}, SourceType: model.SourceAggregator},
		{RawResult: model.RawResult{Title: "official"}, SourceType: model.SourceOfficial},
	}
	best := GetBestOfficialResult(ranked)
	require.NotNil(t, best)
	assert.Equal(t, "official", best.Title)
}

func TestGetBestOfficialResult_NoneQualifies(t *testing.T) {
	ranked := []model.RankedResult{
		{RawResult: model.RawResult{Title: "agg"}, SourceType: model.SourceAggregator},
	}
	assert.Nil(t, GetBestOfficialResult(ranked))
}

func TestFormatForResponse_EmptyResultsBilingual(t *testing.T) {
	assert.Contains(t, FormatForResponse(nil, "hi"), "कोई प्रासंगिक")
	assert.Contains(t, FormatForResponse(nil, "en"), "No relevant information")
}

func TestFormatForResponse_MarksOfficialSource(t *testing.T) {
	ranked := []model.RankedResult{
		{RawResult: model.RawResult{Title: "SSC Result", URL: "https://ssc.nic.in"}, SourceType: model.SourceOfficial},
	}
	out := FormatForResponse(ranked, "en")
	assert.Contains(t, out, "Official Source")
	assert.Contains(t, out, "ssc.nic.in")
}
