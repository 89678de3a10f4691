package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "http://127.0.0.1:5000", c.Analysis.BaseURL)
	assert.Equal(t, 5*time.Minute, c.Cache.TTL)
	assert.Equal(t, "Binance", c.Session.DefaultExchange)
	assert.Equal(t, "Bitcoin", c.Session.DefaultCurrency)
	assert.Equal(t, "2017-08-01", c.Session.DefaultStart)
	assert.Equal(t, "2024-03-01", c.Session.DefaultEnd)
	assert.True(t, c.Server.CORS)
	assert.NoError(t, c.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
environment: production
server:
  port: 9090
  cors: false
analysis:
  base_url: http://analysis:5000
cache:
  backend: none
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.False(t, c.Server.CORS)
	assert.Equal(t, "http://analysis:5000", c.Analysis.BaseURL)
	assert.Equal(t, "none", c.Cache.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("ANALYSIS_URL", "http://env:5000")
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("JOURNAL_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, "http://env:5000", c.Analysis.BaseURL)
	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"no analysis url", func(c *Config) { c.Analysis.BaseURL = "" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "disk" }},
		{"unknown journal", func(c *Config) { c.Journal.Backend = "s3" }},
		{"kafka without brokers", func(c *Config) { c.Journal.Backend = "kafka" }},
		{"zero session ttl", func(c *Config) { c.Session.IdleTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
