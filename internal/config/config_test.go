package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, dir, cfg.ReportDir)
	assert.Equal(t, DefaultLedgerDSN, cfg.LedgerDSN)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
	assert.Equal(t, 5000, cfg.MonteCarloSamples)
	assert.Equal(t, 10000, cfg.AdaptiveMemoryCapacity)
	assert.Empty(t, cfg.AutopilotSchedule)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, filepath.Join(dir, ReportFileName), cfg.ReportPath())
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("REPORT_DIR", filepath.Join(dir, "reports"))
	t.Setenv("PORT", "9100")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("MONTE_CARLO_SAMPLES", "1000")
	t.Setenv("AUTOPILOT_SCHEDULE", "@every 1h")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, uint64(7), cfg.RandomSeed)
	assert.Equal(t, 1000, cfg.MonteCarloSamples)
	assert.Equal(t, "@every 1h", cfg.AutopilotSchedule)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.DirExists(t, filepath.Join(dir, "reports"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Port: 8000, MonteCarloSamples: 5000, AdaptiveMemoryCapacity: 65}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "invalid PORT"},
		{name: "too many samples", mutate: func(c *Config) { c.MonteCarloSamples = 5001 }, wantErr: "MONTE_CARLO_SAMPLES"},
		{name: "memory below batch", mutate: func(c *Config) { c.AdaptiveMemoryCapacity = 10 }, wantErr: "ADAPTIVE_MEMORY_CAPACITY"},
		{name: "memory equal to batch", mutate: func(c *Config) { c.AdaptiveMemoryCapacity = 64 }, wantErr: "min 65"},
		{name: "bad schedule", mutate: func(c *Config) { c.AutopilotSchedule = "not a cron" }, wantErr: "AUTOPILOT_SCHEDULE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
