package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	ws := t.TempDir()
	cfg, err := Load(ws)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(ws, "specs"), cfg.Orchestrator.SpecDir)
	assert.Equal(t, 300*time.Second, cfg.Orchestrator.PollInterval)
	assert.Equal(t, 1, cfg.Orchestrator.Concurrency)
	assert.Equal(t, "poll", cfg.Orchestrator.Detector)
	assert.Equal(t, 30*time.Second, cfg.Execution.Timeout)
	assert.Equal(t, "python", cfg.Synthesis.DefaultLanguage)
	assert.Equal(t, 0.2, cfg.Bias.Alpha)
	assert.Equal(t, 0.05, cfg.Bias.Epsilon)
	assert.False(t, cfg.Git.AutoPush)
}

func TestLoadFromFile(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".forge"), 0755))

	yml := `
orchestrator:
  poll_interval: 5s
  concurrency: 4
synthesis:
  default_language: go
execution:
  timeout: 10s
`
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".forge", "config.yaml"), []byte(yml), 0644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Orchestrator.PollInterval)
	assert.Equal(t, 4, cfg.Orchestrator.Concurrency)
	assert.Equal(t, "go", cfg.Synthesis.DefaultLanguage)
	assert.Equal(t, 10*time.Second, cfg.Execution.Timeout)
}

func TestEnvOverridesWin(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("FORGE_POLL_INTERVAL", "2s")
	t.Setenv("FORGE_GIT_AUTO", "1")
	t.Setenv("FORGE_GIT_REMOTE", "https://example.com/repo.git")
	t.Setenv("FORGE_GIT_BRANCH", "synth")
	t.Setenv("FORGE_DEFAULT_LANGUAGE", "go")

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.PollInterval)
	assert.True(t, cfg.Git.AutoPush)
	assert.Equal(t, "synth", cfg.Git.Branch)
	assert.Equal(t, "go", cfg.Synthesis.DefaultLanguage)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Orchestrator.PollInterval = 0 }},
		{"zero concurrency", func(c *Config) { c.Orchestrator.Concurrency = 0 }},
		{"zero timeout", func(c *Config) { c.Execution.Timeout = 0 }},
		{"alpha out of range", func(c *Config) { c.Bias.Alpha = 1.5 }},
		{"epsilon out of range", func(c *Config) { c.Bias.Epsilon = 0 }},
		{"auto push without remote", func(c *Config) { c.Git.AutoPush = true; c.Git.Remote = "" }},
		{"unknown detector", func(c *Config) { c.Orchestrator.Detector = "inotifyd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ws := t.TempDir()
	cfg := Default(ws)
	cfg.Orchestrator.Concurrency = 3
	require.NoError(t, cfg.Save())

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Orchestrator.Concurrency)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, ".forge"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, ".forge", "config.yaml"), []byte("{not yaml"), 0644))

	_, err := Load(ws)
	assert.Error(t, err)
}
