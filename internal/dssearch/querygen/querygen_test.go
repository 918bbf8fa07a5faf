package querygen

import (
	"testing"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectQueryType(t *testing.T) {
	tests := []struct {
		query string
		want  model.QueryType
	}{
		{"ssc cgl result 2026", model.TypeResult},
		{"ssc cgl admit card download", model.TypeAdmitCard},
		{"upsc cutoff marks", model.TypeCutoff},
		{"ssc cgl syllabus pattern", model.TypeSyllabus},
		{"pradhan mantri awas yojana", model.TypeScheme},
		{"bihar police vacancy 2026", model.TypeJob},
		{"how does this website work", model.TypeGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectQueryType(tt.query))
		})
	}
}

func TestGenerator_CleanQuery(t *testing.T) {
	g := New(2026)
	got := g.CleanQuery("bhai mujhe ssc cgl ke baare mein batao please")
	assert.NotContains(t, got, "bhai")
	assert.NotContains(t, got, "please")
	assert.Contains(t, got, "ssc")
}

func TestGenerator_JobQueries(t *testing.T) {
	g := New(2026)
	queries := g.Generate("bihar police constable bharti 2026", "")

	require.NotEmpty(t, queries)
	var variants []model.QueryVariant
	for _, q := range queries {
		variants = append(variants, q.Variant)
		assert.Equal(t, model.TypeJob, q.QueryType)
	}
	assert.Contains(t, variants, model.VariantHindi)
	assert.Contains(t, variants, model.VariantEnglish)
	assert.Contains(t, variants, model.VariantOfficialSites)
}

func TestGenerator_YojanaQueries(t *testing.T) {
	g := New(2026)
	queries := g.Generate("pm awas yojana ke liye kaise apply kare", "")

	require.NotEmpty(t, queries)
	assert.Equal(t, model.TypeScheme, queries[0].QueryType)
	assert.Contains(t, queries[0].Text, "PM Awas Yojana")
}

func TestGenerator_AppendsCleanedFallbackWhenDistinct(t *testing.T) {
	g := New(2026)
	queries := g.Generate("ssc cgl result kab aayega", "")

	found := false
	for _, q := range queries {
		if q.Priority == 4 {
			found = true
		}
	}
	assert.True(t, found, "a cleaned fallback variant should be appended when distinct from generated queries")
}
