package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Addr:        "0.0.0.0:8080",
		DatabaseURL: "postgres://localhost/kart",
		AdminRole:   "administrator",
		Wholesale:   WholesaleConfig{RefreshInterval: 30 * time.Second},
		RateLimit:   RateLimitConfig{Max: 100, Window: time.Minute},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "database URL is required"},
		{name: "no refresh", mutate: func(c *Config) { c.Wholesale.RefreshInterval = 0 }, wantErr: "refresh interval"},
		{name: "no rate limit", mutate: func(c *Config) { c.RateLimit.Max = 0 }, wantErr: "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/kart")
	t.Setenv("PORT", "9090")

	c := Config{Addr: "0.0.0.0:8080"}
	c.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/kart", c.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", c.Addr)

	c = Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/kart"}
	c.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/kart", c.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", c.Addr)
}
