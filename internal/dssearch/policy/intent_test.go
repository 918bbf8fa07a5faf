package policy

import (
	"testing"

	"github.com/dssahayak/search/internal/dssearch/model"
	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  model.Intent
	}{
		{"greeting english", "hello", model.IntentGreeting},
		{"greeting hindi", "namaste", model.IntentGreeting},
		{"blocked hack attempt", "otp bypass kaise kare", model.IntentBlocked},
		{"personal status", "mera application status dikhao", model.IntentPersonalStatus},
		{"job keyword", "ssc cgl 2026 vacancy", model.IntentJobQuery},
		{"yojana keyword", "pradhan mantri awas yojana", model.IntentSchemeQuery},
		{"result query", "ssc cgl result kab aayega", model.IntentResultQuery},
		{"date query", "exam date kab hai", model.IntentDateQuery},
		{"document query", "form ke liye kaunse document chahiye", model.IntentDocumentQuery},
		{"too short", "kya", model.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectIntent(tt.query)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateSearchScore(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		intent     model.Intent
		hits       int
		wantAtLeast float64
		wantAtMost  float64
	}{
		{"greeting scores low", "hello", model.IntentGreeting, 5, 0, 0.1},
		{"job query with no internal hits scores high", "ssc cgl latest vacancy 2026", model.IntentJobQuery, 0, 0.55, 1.0},
		{"url fetch with no internal hits authorises", "check https://ssc.nic.in/notice", model.IntentUrlFetch, 0, 0.55, 1.0},
		{"blocked clamps to zero", "password crack karo", model.IntentBlocked, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSearchScore(tt.query, tt.intent, tt.hits)
			assert.GreaterOrEqual(t, got, tt.wantAtLeast)
			assert.LessOrEqual(t, got, tt.wantAtMost)
		})
	}
}

func TestExtractURL(t *testing.T) {
	url, ok := ExtractURL("check https://ssc.nic.in/notice for details")
	assert.True(t, ok)
	assert.Equal(t, "https://ssc.nic.in/notice", url)

	_, ok = ExtractURL("no url here")
	assert.False(t, ok)
}
