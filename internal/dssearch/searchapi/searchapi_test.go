package searchapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_DisabledByDefault(t *testing.T) {
	m, err := NewManager(Config{})
	require.NoError(t, err)
	assert.False(t, m.IsEnabled())
	assert.Equal(t, 0, m.RemainingQuota())

	results, err := m.Search(context.Background(), "ssc cgl result", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewManager_GoogleWithoutCXFallsBackToDisabled(t *testing.T) {
	m, err := NewManager(Config{Enabled: true, Provider: "google", GoogleKey: "key-only"})
	require.NoError(t, err)
	assert.False(t, m.IsEnabled())
}

func TestNewManager_UnknownProviderFallsBackToDisabled(t *testing.T) {
	m, err := NewManager(Config{Enabled: true, Provider: "duckduckgo"})
	require.NoError(t, err)
	assert.False(t, m.IsEnabled())
}

func TestBingProvider_QuotaExhausted(t *testing.T) {
	b := &bingProvider{apiKey: "test-key", dailyLimit: 1, queriesUsed: 1, client: http.DefaultClient}
	results, err := b.Search(context.Background(), "ssc cgl result", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, b.RemainingQuota())
}

func TestSerpAPIProvider_QuotaExhausted(t *testing.T) {
	s := &serpAPIProvider{apiKey: "k", dailyLimit: 1, queriesUsed: 1, client: http.DefaultClient}
	results, err := s.Search(context.Background(), "pm awas yojana", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, s.RemainingQuota())
}

func TestGoogleProvider_QuotaExhausted(t *testing.T) {
	g := &googleProvider{cx: "cx", dailyLimit: 1, queriesUsed: 1}
	results, err := g.Search(context.Background(), "railway recruitment", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
