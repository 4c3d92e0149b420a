package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/llm"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 6969, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Server.PageLimit)
	assert.Equal(t, 20, cfg.Scan.TopAttackers)
	assert.Equal(t, int64(256<<20), cfg.Archive.MaxBytes)
	assert.Equal(t, 5*time.Second, cfg.Custom.Timeout)
	assert.Equal(t, 10, cfg.Analyses.Capacity)
	assert.Equal(t, "./.cyberdetect-state.json", cfg.Watch.Checkpoint)
	assert.False(t, cfg.Watch.FromStart)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".cyberdetect.yaml")
	yaml := []byte("server:\n  port: 8080\ncustom:\n  timeout: 2s\nllm:\n  provider: gemini\n")
	require.NoError(t, os.WriteFile(path, yaml, 0o644))
	t.Setenv("CYBERDETECT_SCAN_TOP_ATTACKERS", "5")
	t.Setenv("CYBERDETECT_LLM_API_KEY", "secret")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Custom.Timeout)
	assert.Equal(t, 5, cfg.Scan.TopAttackers)
	assert.Equal(t, "secret", cfg.LLM.APIKey)

	client, err := cfg.LLMClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestValidate(t *testing.T) {
	base, err := Load(viper.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"page limit", func(c *Config) { c.Server.PageLimit = 0 }},
		{"timeout", func(c *Config) { c.Custom.Timeout = 0 }},
		{"capacity", func(c *Config) { c.Analyses.Capacity = 0 }},
		{"provider", func(c *Config) { c.LLM.Provider = "mystery" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLLMClientRequiresKey(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	cfg.LLM.Provider = llm.ProviderOpenAI
	_, err = cfg.LLMClient()
	assert.Error(t, err)
}
