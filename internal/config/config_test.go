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
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "none", c.Provider)
	assert.Equal(t, 4*time.Second, c.ExternalTimeout())
	assert.Equal(t, 70.0, c.MatchThreshold)
	assert.Equal(t, 30, c.ForecastHorizon)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, time.Hour, c.SessionTTL())
	assert.Equal(t, 4, c.BatchWorkers)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: Claude\nmodel: claude-3-5-haiku-latest\nsample_rows: 8\n"), 0o600))
	t.Setenv("QUERYLOOM_SAMPLE_ROWS", "3")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", c.Model)
	assert.Equal(t, 3, c.SampleRows)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: carrier-pigeon\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, c.Set("provider", "local"))
	require.NoError(t, c.Set("external_timeout_ms", "1500"))
	require.NoError(t, c.Set("match_threshold", "82.5"))
	require.Error(t, c.Set("match_threshold", "120"))
	require.Error(t, c.Set("batch_workers", "-1"))
	require.Error(t, c.Set("provider", "fax"))
	require.Error(t, c.Set("nope", "1"))
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", got.Provider)
	assert.Equal(t, 1500*time.Millisecond, got.ExternalTimeout())
	assert.Equal(t, 82.5, got.MatchThreshold)
}

func TestDefaultIgnoresFiles(t *testing.T) {
	t.Setenv("QUERYLOOM_PROVIDER", "openai")
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider)
	assert.Equal(t, 4000, c.ExternalTimeoutMs)
}
