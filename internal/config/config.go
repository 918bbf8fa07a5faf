package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

// =============================================================================
// DS-Search Configuration with Environment Overrides
// =============================================================================

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Policy    PolicyConfig    `yaml:"policy"`
	Ranker    RankerConfig    `yaml:"ranker"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	PaidAPI   PaidAPIConfig   `yaml:"paid_api"`
	Storage   StorageConfig   `yaml:"storage"`
	Federation FederationConfig `yaml:"federation"`
	PubSub    PubSubConfig    `yaml:"pubsub"`
	CloudTasks CloudTasksConfig `yaml:"cloud_tasks"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type ServerConfig struct {
	Port            string   `yaml:"port"`
	Env             string   `yaml:"env"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	IdleTimeoutSec  int      `yaml:"idle_timeout_sec"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_sec"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	GRPCPort        string   `yaml:"grpc_port"`
}

// CacheConfig configures the three-tier Cache (spec.md §4.2).
type CacheConfig struct {
	Dir             string `yaml:"dir"`
	DefaultTTLHours int    `yaml:"default_ttl_hours"`
	MemoryMax       int    `yaml:"memory_max"`
	CleanupMinutes  int    `yaml:"cleanup_minutes"`
}

// PolicyConfig configures the Policy Engine (spec.md §4.3).
type PolicyConfig struct {
	SearchScoreThreshold float64 `yaml:"search_score_threshold"`
	MaxPerUserPerDay     int     `yaml:"max_searches_per_user_per_day"`
	MaxPerUserPerMinute  int     `yaml:"max_searches_per_minute"`
}

// RankerConfig configures the Ranker (spec.md §4.7).
type RankerConfig struct {
	WeightRelevance  float64 `yaml:"weight_relevance"`
	WeightTrust      float64 `yaml:"weight_trust"`
	WeightFreshness  float64 `yaml:"weight_freshness"`
	WeightTitleMatch float64 `yaml:"weight_title_match"`
	MinResultScore   float64 `yaml:"min_result_score"`
	MaxResults       int     `yaml:"max_results"`
}

// CrawlerConfig configures the Crawler (spec.md §4.5).
type CrawlerConfig struct {
	TimeoutSec       int     `yaml:"timeout_sec"`
	DefaultRateLimit float64 `yaml:"default_rate_limit"`
	UserAgent        string  `yaml:"user_agent"`
	MaxContentBytes  int     `yaml:"max_content_bytes"`
}

// PaidAPIConfig configures the Paid API Adapter (spec.md §4.6); disabled
// by default.
type PaidAPIConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Provider     string `yaml:"provider"` // google | bing | serpapi | disabled
	DailyLimit   int    `yaml:"daily_limit"`
	GoogleAPIKey string `yaml:"google_api_key"`
	GoogleCX     string `yaml:"google_cx"`
	BingAPIKey   string `yaml:"bing_api_key"`
	SerpAPIKey   string `yaml:"serpapi_key"`
}

// StorageConfig configures the optional durable backends. Every field is
// optional; absence degrades the corresponding component to memory-only
// (spec.md §7 StorageUnavailable).
type StorageConfig struct {
	PostgresDSN string        `yaml:"postgres_dsn"`
	RedisAddr   string        `yaml:"redis_addr"`
	RedisDB     int           `yaml:"redis_db"`
	Spanner     SpannerConfig `yaml:"spanner"`
}

type SpannerConfig struct {
	ProjectID  string `yaml:"project_id"`
	InstanceID string `yaml:"instance_id"`
	DatabaseID string `yaml:"database_id"`
}

// FederationConfig configures the optional SPIFFE mTLS identity for the
// internal gRPC surface.
type FederationConfig struct {
	TrustDomain string `yaml:"trust_domain"`
	SocketPath  string `yaml:"socket_path"`
}

// PubSubConfig configures optional search-outcome event publishing.
type PubSubConfig struct {
	ProjectID string `yaml:"project_id"`
	TopicID   string `yaml:"topic_id"`
	Enabled   bool   `yaml:"enabled"`
}

// CloudTasksConfig configures optional production scheduling of the
// cache's cleanupExpired sweep.
type CloudTasksConfig struct {
	ProjectID  string `yaml:"project_id"`
	LocationID string `yaml:"location_id"`
	QueueID    string `yaml:"queue_id"`
	Enabled    bool   `yaml:"enabled"`
}

// CatalogConfig configures the read-only Supabase query used for the
// Policy Engine's internal-index-hit signal.
type CatalogConfig struct {
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
}

// =============================================================================
// Singleton Pattern with Environment Overrides
// =============================================================================

var (
	instance *Config
	once     sync.Once
)

// Get returns the singleton config instance.
func Get() *Config {
	once.Do(func() {
		cfg, err := LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("config: failed to load config file (using defaults)", "error", err)
		}
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.applyEnvOverrides()
		instance = cfg
	})
	return instance
}

// LoadConfig loads config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Env = getEnv("DSSEARCH_ENV", c.Server.Env)
	c.Server.GRPCPort = getEnv("GRPC_PORT", c.Server.GRPCPort)
	if v := getEnvInt("SERVER_READ_TIMEOUT_SEC", 0); v > 0 {
		c.Server.ReadTimeoutSec = v
	}
	if v := getEnvInt("SERVER_WRITE_TIMEOUT_SEC", 0); v > 0 {
		c.Server.WriteTimeoutSec = v
	}
	if origins := getEnv("CORS_ALLOW_ORIGINS", ""); origins != "" {
		c.Server.CORSAllowOrigins = splitCSV(origins)
	}

	c.Cache.Dir = getEnv("CACHE_DIR", c.Cache.Dir)
	if v := getEnvInt("CACHE_DEFAULT_TTL_HOURS", 0); v > 0 {
		c.Cache.DefaultTTLHours = v
	}
	if v := getEnvInt("CACHE_MEMORY_MAX", 0); v > 0 {
		c.Cache.MemoryMax = v
	}

	if v := getEnvFloat("POLICY_SEARCH_SCORE_THRESHOLD", 0); v > 0 {
		c.Policy.SearchScoreThreshold = v
	}
	if v := getEnvInt("POLICY_MAX_PER_USER_PER_DAY", 0); v > 0 {
		c.Policy.MaxPerUserPerDay = v
	}
	if v := getEnvInt("POLICY_MAX_PER_USER_PER_MINUTE", 0); v > 0 {
		c.Policy.MaxPerUserPerMinute = v
	}

	if v := getEnvFloat("RANKER_MIN_RESULT_SCORE", 0); v > 0 {
		c.Ranker.MinResultScore = v
	}
	if v := getEnvInt("RANKER_MAX_RESULTS", 0); v > 0 {
		c.Ranker.MaxResults = v
	}

	c.Crawler.UserAgent = getEnv("CRAWLER_USER_AGENT", c.Crawler.UserAgent)
	if v := getEnvInt("CRAWLER_TIMEOUT_SEC", 0); v > 0 {
		c.Crawler.TimeoutSec = v
	}
	if v := getEnvFloat("CRAWLER_DEFAULT_RATE_LIMIT", 0); v > 0 {
		c.Crawler.DefaultRateLimit = v
	}

	c.PaidAPI.Enabled = getEnvBool("PAID_API_ENABLED", c.PaidAPI.Enabled)
	c.PaidAPI.Provider = getEnv("PAID_API_PROVIDER", c.PaidAPI.Provider)
	c.PaidAPI.GoogleAPIKey = getEnv("GOOGLE_SEARCH_API_KEY", c.PaidAPI.GoogleAPIKey)
	c.PaidAPI.GoogleCX = getEnv("GOOGLE_SEARCH_CX", c.PaidAPI.GoogleCX)
	c.PaidAPI.BingAPIKey = getEnv("BING_SEARCH_API_KEY", c.PaidAPI.BingAPIKey)
	c.PaidAPI.SerpAPIKey = getEnv("SERPAPI_KEY", c.PaidAPI.SerpAPIKey)
	if v := getEnvInt("PAID_API_DAILY_LIMIT", 0); v > 0 {
		c.PaidAPI.DailyLimit = v
	}

	c.Storage.PostgresDSN = getEnv("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	if v := getEnvInt("REDIS_DB", -1); v >= 0 {
		c.Storage.RedisDB = v
	}
	c.Storage.Spanner.ProjectID = getEnv("SPANNER_PROJECT_ID", c.Storage.Spanner.ProjectID)
	c.Storage.Spanner.InstanceID = getEnv("SPANNER_INSTANCE_ID", c.Storage.Spanner.InstanceID)
	c.Storage.Spanner.DatabaseID = getEnv("SPANNER_DATABASE_ID", c.Storage.Spanner.DatabaseID)

	c.Federation.TrustDomain = getEnv("DSSEARCH_TRUST_DOMAIN", c.Federation.TrustDomain)
	c.Federation.SocketPath = getEnv("SPIFFE_ENDPOINT_SOCKET", c.Federation.SocketPath)

	if projectID := getEnv("GCP_PROJECT_ID", ""); projectID != "" {
		c.PubSub.ProjectID = projectID
		c.CloudTasks.ProjectID = projectID
	}
	c.PubSub.TopicID = getEnv("PUBSUB_TOPIC_ID", c.PubSub.TopicID)
	c.PubSub.Enabled = getEnvBool("PUBSUB_ENABLED", c.PubSub.Enabled)
	c.CloudTasks.LocationID = getEnv("CLOUD_TASKS_LOCATION", c.CloudTasks.LocationID)
	c.CloudTasks.QueueID = getEnv("CLOUD_TASKS_QUEUE", c.CloudTasks.QueueID)
	c.CloudTasks.Enabled = getEnvBool("CLOUD_TASKS_ENABLED", c.CloudTasks.Enabled)

	c.Catalog.SupabaseURL = getEnv("SUPABASE_URL", c.Catalog.SupabaseURL)
	c.Catalog.SupabaseKey = getEnv("SUPABASE_SERVICE_KEY", c.Catalog.SupabaseKey)

	c.applyDefaults()
}

// applyDefaults sets sensible defaults for zero-valued config fields,
// matching spec.md §6's enumerated configuration defaults.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.GRPCPort == "" {
		c.Server.GRPCPort = "9090"
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 15
	}
	if c.Server.IdleTimeoutSec == 0 {
		c.Server.IdleTimeoutSec = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30
	}
	if len(c.Server.CORSAllowOrigins) == 0 {
		c.Server.CORSAllowOrigins = []string{"*"}
	}

	if c.Cache.Dir == "" {
		c.Cache.Dir = "./data/cache"
	}
	if c.Cache.DefaultTTLHours == 0 {
		c.Cache.DefaultTTLHours = 6
	}
	if c.Cache.MemoryMax == 0 {
		c.Cache.MemoryMax = 500
	}
	if c.Cache.CleanupMinutes == 0 {
		c.Cache.CleanupMinutes = 30
	}

	if c.Policy.SearchScoreThreshold == 0 {
		c.Policy.SearchScoreThreshold = 0.55
	}
	if c.Policy.MaxPerUserPerDay == 0 {
		c.Policy.MaxPerUserPerDay = 50
	}
	if c.Policy.MaxPerUserPerMinute == 0 {
		c.Policy.MaxPerUserPerMinute = 5
	}

	if c.Ranker.WeightRelevance == 0 {
		c.Ranker.WeightRelevance = 0.40
	}
	if c.Ranker.WeightTrust == 0 {
		c.Ranker.WeightTrust = 0.35
	}
	if c.Ranker.WeightFreshness == 0 {
		c.Ranker.WeightFreshness = 0.15
	}
	if c.Ranker.WeightTitleMatch == 0 {
		c.Ranker.WeightTitleMatch = 0.10
	}
	if c.Ranker.MinResultScore == 0 {
		c.Ranker.MinResultScore = 0.40
	}
	if c.Ranker.MaxResults == 0 {
		c.Ranker.MaxResults = 5
	}

	if c.Crawler.TimeoutSec == 0 {
		c.Crawler.TimeoutSec = 15
	}
	if c.Crawler.DefaultRateLimit == 0 {
		c.Crawler.DefaultRateLimit = 1.0
	}
	if c.Crawler.UserAgent == "" {
		c.Crawler.UserAgent = "Mozilla/5.0 (compatible; DSSahayakBot/1.0; +https://digitalsahayak.in/bot)"
	}
	if c.Crawler.MaxContentBytes == 0 {
		c.Crawler.MaxContentBytes = 1024 * 1024
	}

	if c.PaidAPI.Provider == "" {
		c.PaidAPI.Provider = "disabled"
	}
	if c.PaidAPI.DailyLimit == 0 {
		c.PaidAPI.DailyLimit = 100
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func splitCSV(s string) []string {
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// =============================================================================
// Convenience Methods
// =============================================================================

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) GetPort() string {
	if c.Server.Port == "" {
		return "8080"
	}
	return c.Server.Port
}

func (c *Config) GetRedisAddr() string {
	return c.Storage.RedisAddr
}

func (c *Config) GetPostgresDSN() string {
	return c.Storage.PostgresDSN
}
