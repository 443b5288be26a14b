package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "donorhub.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TTL)
	assert.True(t, cfg.Ingest.Enabled)
	assert.True(t, cfg.Catalog.Seed)
}

func TestInitReadsFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "donorhub.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  addr: \":9000\"\nrelay:\n  url: https://forms.example.org/submit\n"), 0o600))

	t.Setenv("DONORHUB_LOG_LEVEL", "debug")
	t.Setenv("DONORHUB_SERVER_ADDR", ":9100")

	v := viper.New()
	require.NoError(t, Init(v, file))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "https://forms.example.org/submit", cfg.Relay.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := Load(v)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"zero relay timeout", func(c *Config) { c.Relay.Timeout = 0 }},
		{"bad timezone", func(c *Config) { c.Catalog.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
