package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 2*time.Minute, cfg.BuyerCacheTTL)
	assert.True(t, cfg.EnableRateLimit)
	assert.Equal(t, 100, cfg.RateLimitPerMinute)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxRequestSize)
	assert.Equal(t, 5, cfg.DefaultMatchLimit)
	assert.InDelta(t, 0.70, cfg.OfferRatio, 1e-9)
	assert.False(t, cfg.AtomicAssignment)
	assert.Equal(t, "US", cfg.PhoneDefaultRegion)

	policy := cfg.MatchPolicy()
	assert.True(t, policy.UnscopedMatchesAll)
	assert.Equal(t, "multi", policy.MultiMarketMarker)
	assert.True(t, policy.FirstSegmentOnly)
	assert.False(t, cfg.HasRedis())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("MATCH_UNSCOPED_MATCHES_ALL", "false")
	t.Setenv("MATCH_FIRST_SEGMENT_ONLY", "false")
	t.Setenv("ASSIGNMENT_ATOMIC", "true")
	t.Setenv("ASSIGNMENT_OFFER_RATIO", "0.65")
	t.Setenv("BUYER_CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PHONE_DEFAULT_REGION", "ca")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.False(t, cfg.MatchPolicy().UnscopedMatchesAll)
	assert.False(t, cfg.MatchPolicy().FirstSegmentOnly)
	assert.True(t, cfg.AtomicAssignment)
	assert.InDelta(t, 0.65, cfg.OfferRatio, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.BuyerCacheTTL)
	assert.True(t, cfg.HasRedis())
	assert.Equal(t, "CA", cfg.PhoneDefaultRegion)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"offer ratio above one", "ASSIGNMENT_OFFER_RATIO", "1.5"},
		{"offer ratio zero", "ASSIGNMENT_OFFER_RATIO", "0"},
		{"negative match limit", "MATCH_DEFAULT_LIMIT", "-1"},
		{"zero rate limit", "RATE_LIMIT_PER_MINUTE", "0"},
		{"zero import rows", "IMPORT_MAX_ROWS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireDatabase())

	cfg.DatabaseURL = "postgres://localhost/leadmatch"
	assert.NoError(t, cfg.RequireDatabase())
}

func TestGetAllowedOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: "http://localhost:3000, https://app.example.com,"}
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.GetAllowedOrigins())

	cfg.AllowedOrigins = ""
	assert.Empty(t, cfg.GetAllowedOrigins())
	assert.Empty(t, cfg.GetTrustedProxies())
}
