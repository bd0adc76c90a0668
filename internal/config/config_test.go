package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 24, cfg.Crawl.WindowHours)
	assert.Equal(t, 3, cfg.Crawl.ItemDelaySeconds)
	assert.Equal(t, "./feeds.yaml", cfg.Crawl.FeedsPath)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
crawl:
  window_hours: 48
output:
  youtube_dir: /tmp/yt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 48, cfg.Crawl.WindowHours)
	assert.Equal(t, "/tmp/yt", cfg.Output.YouTubeDir)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, cfg.Crawl.ItemDelaySeconds)
	assert.Equal(t, "./library/podcast", cfg.Output.PodcastDir)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl: [not: a: map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-pro")
	t.Setenv("GEMINI_DEBUG", "1")
	t.Setenv("OUTPUT_DIR_YT", "/tmp/youtube")
	t.Setenv("WINDOW_HOURS", "12")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-pro", cfg.Gemini.Model)
	assert.True(t, cfg.Gemini.Debug)
	assert.Equal(t, "/tmp/youtube", cfg.Output.YouTubeDir)
	assert.Equal(t, 12, cfg.Crawl.WindowHours)
}

func TestEnvInvalidWindowHoursIgnored(t *testing.T) {
	t.Setenv("WINDOW_HOURS", "soon")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Crawl.WindowHours)
}
