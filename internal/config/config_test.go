package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "production",
		Port:                     "8000",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBDriver:                 "postgres",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		StorageBackend:           "fs",
		MediaMaxUploadMB:         10,
		DBConnMaxLifetimeMinutes: 1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateStorage(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"fs backend", func(c *Config) { c.StorageBackend = "fs" }, false},
		{"s3 without bucket", func(c *Config) { c.StorageBackend = "s3" }, true},
		{"s3 with bucket", func(c *Config) { c.StorageBackend = "s3"; c.S3Bucket = "blog-media" }, false},
		{"memory in production", func(c *Config) { c.StorageBackend = "memory" }, true},
		{"memory in test", func(c *Config) { c.StorageBackend = "memory"; c.Env = "test" }, false},
		{"unknown backend", func(c *Config) { c.StorageBackend = "ftp" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite skips db password", func(c *Config) { c.DBDriver = "sqlite"; c.DBPassword = "" }, false},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }, true},
		{"rate limit disabled", func(c *Config) { c.RateLimitPerMinute = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	c := validConfig()
	c.JWTSecret = defaultJWTSecret
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())
}

func TestConfig_MaxUploadBytes(t *testing.T) {
	c := &Config{}
	assert.Equal(t, int64(10*1024*1024), c.MaxUploadBytes())

	c.MediaMaxUploadMB = 2
	assert.Equal(t, int64(2*1024*1024), c.MaxUploadBytes())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("STORAGE_BACKEND", " Memory ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "memory", c.StorageBackend)
}
