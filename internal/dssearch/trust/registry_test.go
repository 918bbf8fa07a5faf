package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dssahayak/search/internal/dssearch/model"
)

func TestRegistry_BlockedDomainOverridesEverything(t *testing.T) {
	r := New(nil)

	require.NoError(t, r.AddSource(&model.TrustedSource{Domain: "trusted-then-blocked.gov.in", Priority: 9, Enabled: true, RateLimit: 1.0}))
	assert.True(t, r.IsTrusted("trusted-then-blocked.gov.in"))

	require.NoError(t, r.BlockDomain("trusted-then-blocked.gov.in"))

	assert.False(t, r.IsTrusted("trusted-then-blocked.gov.in"), "a blocked domain must never be trusted, even a .gov.in suffix match")
	assert.True(t, r.IsBlocked("trusted-then-blocked.gov.in"))
	_, ok := r.GetSource("trusted-then-blocked.gov.in")
	assert.False(t, ok, "blocking must remove any existing registry entry")
}

func TestRegistry_AddSourceRejectsAlreadyBlockedDomain(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.BlockDomain("scamjobs.com"))

	err := r.AddSource(&model.TrustedSource{Domain: "scamjobs.com", Priority: 5, Enabled: true})
	assert.Error(t, err, "a blocked domain must not be re-addable as trusted")
}

func TestRegistry_GovAndNicAutoTrustWithoutExplicitEntry(t *testing.T) {
	r := New(nil)

	assert.True(t, r.IsTrusted("someunknowndept.gov.in"))
	assert.True(t, r.IsTrusted("anotherone.nic.in"))
	assert.False(t, r.IsTrusted("randomblog.com"), "an unlisted non-auto-trust domain must not be trusted")
}

func TestRegistry_SuffixPriorityFallback(t *testing.T) {
	r := New(nil)

	assert.Equal(t, 8, r.GetPriority("someunknowndept.gov.in"))
	assert.Equal(t, 8, r.GetPriority("someunknowndept.nic.in"))
	assert.Equal(t, 6, r.GetPriority("someunknowncollege.ac.in"))
	assert.Equal(t, 3, r.GetPriority("randomblog.com"), "a domain with no suffix match falls back to the default priority")
}

func TestRegistry_ExplicitEntryPriorityBeatsSuffixDefault(t *testing.T) {
	r := New(nil)
	// ssc.nic.in is seeded with an explicit priority of 10, above the
	// .nic.in suffix default of 8.
	assert.Equal(t, 10, r.GetPriority("ssc.nic.in"))
}

func TestRegistry_DomainsForQueryTypeSortedByPriorityDescending(t *testing.T) {
	r := New(nil)

	domains := r.DomainsForQueryType(model.TypeJob)
	require.NotEmpty(t, domains)

	priorities := make([]int, len(domains))
	for i, d := range domains {
		priorities[i] = r.GetPriority(d)
	}
	for i := 1; i < len(priorities); i++ {
		assert.GreaterOrEqual(t, priorities[i-1], priorities[i], "domains must be sorted by priority descending")
	}
	assert.LessOrEqual(t, len(domains), 15, "at most 15 domains may be returned")
}

func TestRegistry_DomainsForQueryTypeFallsBackToGeneral(t *testing.T) {
	r := New(nil)
	// An unmapped query type falls back to TypeGeneral's category set.
	domains := r.DomainsForQueryType(model.QueryType("unknown-type"))
	assert.NotNil(t, domains)
}

func TestRegistry_UpdateCrawlStatsAppliesEWMA(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.AddSource(&model.TrustedSource{Domain: "ewma-test.gov.in", Priority: 5, Enabled: true, SuccessRate: 1.0}))

	r.UpdateCrawlStats("ewma-test.gov.in", false)

	s, ok := r.GetSource("ewma-test.gov.in")
	require.True(t, ok)
	assert.InDelta(t, 0.9, s.SuccessRate, 1e-9, "newRate = 0.9*old + 0.1*outcome with old=1.0, outcome=0")
	assert.NotNil(t, s.LastCrawled)
}

func TestRegistry_NormalizeStripsWwwAndLowercases(t *testing.T) {
	r := New(nil)
	assert.True(t, r.IsTrusted("WWW.SSC.NIC.IN"))
	assert.Equal(t, r.GetPriority("ssc.nic.in"), r.GetPriority("www.SSC.nic.IN"))
}
