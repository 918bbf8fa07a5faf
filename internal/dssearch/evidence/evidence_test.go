package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dssahayak/search/internal/dssearch/model"
)

func TestExtract_EmptyResultsReturnsNil(t *testing.T) {
	e := New()
	assert.Nil(t, e.Extract(nil, model.TypeJob))
}

func TestExtract_BuildsFactsFromCombinedText(t *testing.T) {
	e := New()
	results := []model.RankedResult{
		{
			RawResult: model.RawResult{
				Title:   "SSC CGL 2026 Notification",
				Snippet: "Application fee general 100, SC/ST 0. Last date: 15/08/2026. Age limit 18 to 27 years. Total posts 5000. Graduate required. Documents: Aadhaar, 12th pass certificate.",
				URL:     "https://ssc.nic.in/cgl",
				Links:   []string{"https://ssc.nic.in/cgl/notice.pdf", "https://ssc.nic.in/cgl/apply"},
			},
			Scores: model.Scores{Trust: 1.0},
		},
	}

	facts := e.Extract(results, model.TypeJob)
	require.NotNil(t, facts)
	assert.Equal(t, "SSC CGL 2026 Notification", facts.Title)
	assert.Equal(t, "15/08/2026", facts.LastDate)
	require.NotNil(t, facts.AgeLimit)
	assert.Equal(t, 18, facts.AgeLimit.Min)
	assert.Equal(t, 27, facts.AgeLimit.Max)
	require.NotNil(t, facts.Vacancies)
	assert.Equal(t, 5000, *facts.Vacancies)
	assert.Contains(t, facts.Eligibility, "Graduate")
	assert.Contains(t, facts.Documents, "Aadhaar Card")
	require.NotNil(t, facts.Fees)
	assert.Equal(t, 20.0, facts.Fees.ServiceFee)
	assert.Len(t, facts.PDFLinks, 1)
	assert.True(t, facts.Valid())
	assert.Greater(t, facts.Confidence, 0.5)
}

func TestExtract_NoSignalsLowConfidence(t *testing.T) {
	e := New()
	results := []model.RankedResult{
		{RawResult: model.RawResult{Title: "Some Page", Snippet: "nothing useful here"}},
	}
	facts := e.Extract(results, model.TypeGeneral)
	require.NotNil(t, facts)
	assert.False(t, facts.Valid())
	assert.Less(t, facts.Confidence, 0.3)
}
