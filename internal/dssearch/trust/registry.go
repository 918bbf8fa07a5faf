// Package trust implements the Trust Registry (spec.md §4.1): the set of
// trusted/blocked domains with priority, category, and politeness
// parameters that the Crawler and Ranker consult.
package trust

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dssahayak/search/internal/dssearch/model"
)

// autoTrustSuffixes are TLDs treated as trusted even when absent from the
// registry (spec.md §3 invariant).
var autoTrustSuffixes = []string{".gov.in", ".nic.in"}

// suffixPriority gives the domain-suffix default priority used when a
// domain has no explicit registry entry (spec.md §4.1).
var suffixPriority = []struct {
	suffix   string
	priority int
}{
	{".gov.in", 8},
	{".nic.in", 8},
	{".ac.in", 6},
	{".edu.in", 6},
	{".org.in", 5},
}

// categoryMapping resolves a query type to the set of TrustedSource
// categories relevant to it, per spec.md §4.1.
var categoryMapping = map[model.QueryType][]string{
	model.TypeJob:       {"job", "result", "admit_card"},
	model.TypeScheme:    {"yojana", "government"},
	model.TypeResult:    {"result", "education"},
	model.TypeAdmitCard: {"admit_card", "result"},
	model.TypeCutoff:    {"result", "job"},
	model.TypeSyllabus:  {"education", "exam"},
	model.TypeGeneral:   {"government", "general"},
}

// Store is the optional Postgres-backed persistence for the registry.
// When nil, the registry runs memory-only (spec.md §7 StorageUnavailable).
type Store interface {
	Upsert(source *model.TrustedSource) error
	Block(domain string) error
	LoadAll() ([]*model.TrustedSource, []string, error)
}

// Registry holds the domain → TrustedSource mapping plus the blocklist.
// Grounded on internal/reputation/reputation_manager.go's sync.RWMutex
// guarded map + weighted-scoring idiom.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*model.TrustedSource
	blocked map[string]struct{}
	store   Store
}

// New builds a Registry seeded with the default government/aggregator
// domain list (grounded on original_source's sources.py), optionally
// backed by a persistence Store.
func New(store Store) *Registry {
	r := &Registry{
		sources: make(map[string]*model.TrustedSource),
		blocked: make(map[string]struct{}),
		store:   store,
	}
	r.seed()
	if store != nil {
		if sources, blocked, err := store.LoadAll(); err == nil {
			r.mu.Lock()
			for _, s := range sources {
				r.sources[s.Domain] = s
			}
			for _, d := range blocked {
				r.blocked[d] = struct{}{}
			}
			r.mu.Unlock()
		} else {
			slog.Warn("trust: failed to load persisted sources, continuing with seed set", "error", err)
		}
	}
	return r
}

func cats(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func (r *Registry) seed() {
	seed := []*model.TrustedSource{
		{Domain: "india.gov.in", Type: model.SourceOfficial, DisplayName: "National Portal of India", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "general", "government")},
		{Domain: "pib.gov.in", Type: model.SourceOfficial, DisplayName: "Press Information Bureau", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("news", "announcement", "government")},
		{Domain: "ssc.nic.in", Type: model.SourceOfficial, DisplayName: "Staff Selection Commission", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card")},
		{Domain: "upsc.gov.in", Type: model.SourceOfficial, DisplayName: "Union Public Service Commission", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card")},
		{Domain: "indianrailways.gov.in", Type: model.SourceOfficial, DisplayName: "Indian Railways", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "general")},
		{Domain: "rrbcdg.gov.in", Type: model.SourceOfficial, DisplayName: "Railway Recruitment Board", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card")},
		{Domain: "ibps.in", Type: model.SourceOfficial, DisplayName: "Institute of Banking Personnel Selection", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card")},
		{Domain: "nta.ac.in", Type: model.SourceOfficial, DisplayName: "National Testing Agency", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card", "exam")},
		{Domain: "pmkisan.gov.in", Type: model.SourceOfficial, DisplayName: "PM-KISAN Portal", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "kisan")},
		{Domain: "pmjay.gov.in", Type: model.SourceOfficial, DisplayName: "Ayushman Bharat Portal", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "health")},
		{Domain: "pmaymis.gov.in", Type: model.SourceOfficial, DisplayName: "PM Awas Yojana", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "housing")},
		{Domain: "nrega.nic.in", Type: model.SourceOfficial, DisplayName: "MGNREGA Portal", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "employment")},
		{Domain: "uidai.gov.in", Type: model.SourceOfficial, DisplayName: "UIDAI Aadhaar", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("document", "identity")},
		{Domain: "pmjdy.gov.in", Type: model.SourceOfficial, DisplayName: "Jan Dhan Yojana", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "banking")},
		{Domain: "mudra.org.in", Type: model.SourceOfficial, DisplayName: "MUDRA Yojana", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("yojana", "loan")},
		{Domain: "cbse.gov.in", Type: model.SourceOfficial, DisplayName: "CBSE", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("education", "result", "exam")},
		{Domain: "cbseresults.nic.in", Type: model.SourceOfficial, DisplayName: "CBSE Results", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("result")},
		{Domain: "ugc.ac.in", Type: model.SourceOfficial, DisplayName: "UGC", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("education", "scholarship")},
		{Domain: "bihar.gov.in", Type: model.SourceOfficial, DisplayName: "Bihar Government", Priority: 9, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("state", "yojana", "job")},
		{Domain: "biharboardonline.com", Type: model.SourceSemiOfficial, DisplayName: "Bihar Board", Priority: 8, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("result", "education")},
		{Domain: "bsebinteredu.in", Type: model.SourceSemiOfficial, DisplayName: "BSEB Inter Results", Priority: 8, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("result", "education")},
		{Domain: "up.gov.in", Type: model.SourceOfficial, DisplayName: "Uttar Pradesh Government", Priority: 9, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("state", "yojana", "job")},
		{Domain: "mp.gov.in", Type: model.SourceOfficial, DisplayName: "Madhya Pradesh Government", Priority: 9, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("state", "yojana", "job")},
		{Domain: "rajasthan.gov.in", Type: model.SourceOfficial, DisplayName: "Rajasthan Government", Priority: 9, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("state", "yojana", "job")},
		{Domain: "joinindianarmy.nic.in", Type: model.SourceOfficial, DisplayName: "Indian Army Recruitment", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "defense")},
		{Domain: "joinindiannavy.gov.in", Type: model.SourceOfficial, DisplayName: "Indian Navy Recruitment", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "defense")},
		{Domain: "indianairforce.nic.in", Type: model.SourceOfficial, DisplayName: "Indian Air Force", Priority: 10, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "defense")},
		{Domain: "employmentnews.gov.in", Type: model.SourceOfficial, DisplayName: "Employment News", Priority: 9, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "news")},
		{Domain: "sarkariresult.com", Type: model.SourceAggregator, DisplayName: "Sarkari Result", Priority: 5, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card")},
		{Domain: "sarkarijobfind.com", Type: model.SourceAggregator, DisplayName: "Sarkari Job Find", Priority: 4, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result")},
		{Domain: "freejobalert.com", Type: model.SourceAggregator, DisplayName: "Free Job Alert", Priority: 5, Enabled: true, RateLimit: 1.0, SuccessRate: 1.0, Categories: cats("job", "result", "admit_card")},
	}
	for _, s := range seed {
		r.sources[s.Domain] = s
	}
	r.blocked["fakesite.com"] = struct{}{}
	r.blocked["scamjobs.com"] = struct{}{}
	r.blocked["getrichquick.com"] = struct{}{}
}

// normalize lowercases a domain and strips a leading "www.".
func normalize(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(d, "www.")
}

// IsTrusted reports whether a domain may be crawled: enabled in the
// registry, or suffix-matching an auto-trust TLD, and never blocked.
func (r *Registry) IsTrusted(domain string) bool {
	d := normalize(domain)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, blocked := r.blocked[d]; blocked {
		return false
	}
	if s, ok := r.sources[d]; ok {
		return s.Enabled
	}
	for _, suf := range autoTrustSuffixes {
		if strings.HasSuffix(d, suf) {
			return true
		}
	}
	return false
}

// IsBlocked reports whether a domain is on the blocklist.
func (r *Registry) IsBlocked(domain string) bool {
	d := normalize(domain)
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, blocked := r.blocked[d]
	return blocked
}

// GetSource returns the registry entry for a domain, if any.
func (r *Registry) GetSource(domain string) (*model.TrustedSource, bool) {
	d := normalize(domain)
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[d]
	return s, ok
}

// GetPriority returns the registry priority for a domain, falling back to
// the suffix-based defaults from spec.md §4.1.
func (r *Registry) GetPriority(domain string) int {
	d := normalize(domain)
	if s, ok := r.GetSource(d); ok {
		return s.Priority
	}
	for _, sp := range suffixPriority {
		if strings.HasSuffix(d, sp.suffix) {
			return sp.priority
		}
	}
	return 3
}

// GetRateLimit returns the registry rate limit for a domain, or the
// crawler default (1 req/s) when absent.
func (r *Registry) GetRateLimit(domain string) float64 {
	if s, ok := r.GetSource(domain); ok && s.RateLimit > 0 {
		return s.RateLimit
	}
	return 1.0
}

// DomainsForQueryType returns up to 15 enabled domains relevant to a
// query type, sorted by priority descending (spec.md §4.1).
func (r *Registry) DomainsForQueryType(qt model.QueryType) []string {
	wanted := categoryMapping[qt]
	if wanted == nil {
		wanted = categoryMapping[model.TypeGeneral]
	}

	r.mu.RLock()
	var matches []*model.TrustedSource
	for _, s := range r.sources {
		if !s.Enabled {
			continue
		}
		for _, cat := range wanted {
			if _, ok := s.Categories[cat]; ok {
				matches = append(matches, s)
				break
			}
		}
	}
	r.mu.RUnlock()

	sortByPriorityDesc(matches)
	if len(matches) > 15 {
		matches = matches[:15]
	}
	domains := make([]string, len(matches))
	for i, s := range matches {
		domains[i] = s.Domain
	}
	return domains
}

func sortByPriorityDesc(sources []*model.TrustedSource) {
	for i := 1; i < len(sources); i++ {
		for j := i; j > 0 && sources[j-1].Priority < sources[j].Priority; j-- {
			sources[j-1], sources[j] = sources[j], sources[j-1]
		}
	}
}

// AddSource registers or updates a trusted domain.
func (r *Registry) AddSource(s *model.TrustedSource) error {
	d := normalize(s.Domain)
	if r.IsBlocked(d) {
		return fmt.Errorf("trust: cannot add blocked domain %q", d)
	}
	s.Domain = d

	r.mu.Lock()
	r.sources[d] = s
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Upsert(s); err != nil {
			return fmt.Errorf("trust: persist source: %w", err)
		}
	}
	return nil
}

// BlockDomain blocks a domain and removes any existing trusted entry.
func (r *Registry) BlockDomain(domain string) error {
	d := normalize(domain)

	r.mu.Lock()
	r.blocked[d] = struct{}{}
	delete(r.sources, d)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Block(d); err != nil {
			return fmt.Errorf("trust: persist block: %w", err)
		}
	}
	return nil
}

// UpdateCrawlStats applies the EWMA success-rate update
// (newRate = 0.9*old + 0.1*outcome) and records LastCrawled, per
// spec.md §4.1 and original_source's sources.py.
func (r *Registry) UpdateCrawlStats(domain string, success bool) {
	d := normalize(domain)

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sources[d]
	if !ok {
		return
	}
	now := time.Now().UTC()
	s.LastCrawled = &now
	outcome := 0.0
	if success {
		outcome = 1.0
	}
	s.SuccessRate = s.SuccessRate*0.9 + outcome*0.1
}

// AllSources returns a snapshot of every registry entry.
func (r *Registry) AllSources() []*model.TrustedSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.TrustedSource, 0, len(r.sources))
	for _, s := range r.sources {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// PostgresStore persists TrustedSource rows to Postgres via lib/pq.
// Grounded on internal/fabric.RedisClient's pattern of decoupling the
// component from a concrete driver behind a narrow interface — here the
// interface is the exported Store type above, and PostgresStore is its
// lib/pq-backed implementation wired in cmd/server/main.go.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-open database. It does not create or
// migrate the trusted_sources table; the table has to exist.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Upsert(s *model.TrustedSource) error {
	cats := make([]string, 0, len(s.Categories))
	for c := range s.Categories {
		cats = append(cats, c)
	}
	_, err := p.db.Exec(`
		INSERT INTO trusted_sources (domain, source_type, display_name, priority, enabled, rate_limit, categories, success_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (domain) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			display_name = EXCLUDED.display_name,
			priority = EXCLUDED.priority,
			enabled = EXCLUDED.enabled,
			rate_limit = EXCLUDED.rate_limit,
			categories = EXCLUDED.categories,
			success_rate = EXCLUDED.success_rate
	`, s.Domain, string(s.Type), s.DisplayName, s.Priority, s.Enabled, s.RateLimit, strings.Join(cats, ","), s.SuccessRate)
	return err
}

func (p *PostgresStore) Block(domain string) error {
	_, err := p.db.Exec(`
		INSERT INTO blocked_domains (domain) VALUES ($1)
		ON CONFLICT (domain) DO NOTHING
	`, domain)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(`DELETE FROM trusted_sources WHERE domain = $1`, domain)
	return err
}

func (p *PostgresStore) LoadAll() ([]*model.TrustedSource, []string, error) {
	rows, err := p.db.Query(`SELECT domain, source_type, display_name, priority, enabled, rate_limit, categories, success_rate FROM trusted_sources`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var sources []*model.TrustedSource
	for rows.Next() {
		var s model.TrustedSource
		var sourceType, categories string
		if err := rows.Scan(&s.Domain, &sourceType, &s.DisplayName, &s.Priority, &s.Enabled, &s.RateLimit, &categories, &s.SuccessRate); err != nil {
			return nil, nil, err
		}
		s.Type = model.SourceType(sourceType)
		s.Categories = cats(strings.Split(categories, ",")...)
		sources = append(sources, &s)
	}

	blockedRows, err := p.db.Query(`SELECT domain FROM blocked_domains`)
	if err != nil {
		return sources, nil, err
	}
	defer blockedRows.Close()

	var blocked []string
	for blockedRows.Next() {
		var d string
		if err := blockedRows.Scan(&d); err != nil {
			return sources, blocked, err
		}
		blocked = append(blocked, d)
	}
	return sources, blocked, nil
}
