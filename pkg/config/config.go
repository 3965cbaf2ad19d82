package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/easyexithomes/leadmatch/internal/matching"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// Redis buyer-pool cache. Empty RedisAddr disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BuyerCacheTTL time.Duration

	LogLevel  string
	LogFormat string

	// Security configuration
	AllowedOrigins     string
	TrustedProxies     string
	EnableRateLimit    bool
	RateLimitPerMinute int
	MaxRequestSize     int64

	// Matching policy
	UnscopedMatchesAll bool
	MultiMarketMarker  string
	FirstSegmentOnly   bool
	DefaultMatchLimit  int

	// Assignment policy
	OfferRatio       float64
	AtomicAssignment bool

	// Import
	ImportMaxRows      int
	PhoneDefaultRegion string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BUYER_CACHE_TTL", 2*time.Minute)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("ENABLE_RATE_LIMIT", true)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 100)
	v.SetDefault("MAX_REQUEST_SIZE", 10*1024*1024) // 10MB default

	v.SetDefault("MATCH_UNSCOPED_MATCHES_ALL", true)
	v.SetDefault("MATCH_MULTI_MARKET_MARKER", matching.DefaultMultiMarketMarker)
	v.SetDefault("MATCH_FIRST_SEGMENT_ONLY", true)
	v.SetDefault("MATCH_DEFAULT_LIMIT", 5)

	v.SetDefault("ASSIGNMENT_OFFER_RATIO", 0.70)
	v.SetDefault("ASSIGNMENT_ATOMIC", false)

	v.SetDefault("IMPORT_MAX_ROWS", 10000)
	v.SetDefault("PHONE_DEFAULT_REGION", "US")
}

// New creates a new configuration instance from environment variables,
// loading a .env file first when one is present.
func New() (*Config, error) {
	_ = godotenv.Load()
	return Load(viper.New())
}

// Load reads configuration through the given viper instance
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL: v.GetString("DATABASE_URL"),
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		BuyerCacheTTL: v.GetDuration("BUYER_CACHE_TTL"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		AllowedOrigins:     v.GetString("ALLOWED_ORIGINS"),
		TrustedProxies:     v.GetString("TRUSTED_PROXIES"),
		EnableRateLimit:    v.GetBool("ENABLE_RATE_LIMIT"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		MaxRequestSize:     v.GetInt64("MAX_REQUEST_SIZE"),

		UnscopedMatchesAll: v.GetBool("MATCH_UNSCOPED_MATCHES_ALL"),
		MultiMarketMarker:  v.GetString("MATCH_MULTI_MARKET_MARKER"),
		FirstSegmentOnly:   v.GetBool("MATCH_FIRST_SEGMENT_ONLY"),
		DefaultMatchLimit:  v.GetInt("MATCH_DEFAULT_LIMIT"),

		OfferRatio:       v.GetFloat64("ASSIGNMENT_OFFER_RATIO"),
		AtomicAssignment: v.GetBool("ASSIGNMENT_ATOMIC"),

		ImportMaxRows:      v.GetInt("IMPORT_MAX_ROWS"),
		PhoneDefaultRegion: strings.ToUpper(v.GetString("PHONE_DEFAULT_REGION")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail at use
func (c *Config) Validate() error {
	if c.OfferRatio <= 0 || c.OfferRatio > 1 {
		return fmt.Errorf("ASSIGNMENT_OFFER_RATIO must be in (0, 1], got %v", c.OfferRatio)
	}
	if c.DefaultMatchLimit < 0 {
		return fmt.Errorf("MATCH_DEFAULT_LIMIT must not be negative, got %d", c.DefaultMatchLimit)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.ImportMaxRows <= 0 {
		return fmt.Errorf("IMPORT_MAX_ROWS must be positive, got %d", c.ImportMaxRows)
	}
	if c.BuyerCacheTTL < 0 {
		return fmt.Errorf("BUYER_CACHE_TTL must not be negative, got %s", c.BuyerCacheTTL)
	}
	return nil
}

// RequireDatabase reports a configuration error when no database URL is set
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

// MatchPolicy returns the configured market-matching policy
func (c *Config) MatchPolicy() matching.Policy {
	return matching.Policy{
		UnscopedMatchesAll: c.UnscopedMatchesAll,
		MultiMarketMarker:  c.MultiMarketMarker,
		FirstSegmentOnly:   c.FirstSegmentOnly,
	}
}

// HasRedis returns true if a Redis cache is configured
func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return splitList(c.AllowedOrigins)
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return splitList(c.TrustedProxies)
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
