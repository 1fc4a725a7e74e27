package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://gitlab.com", cfg.GitLabBaseURL)
	assert.Equal(t, 10, cfg.RunnerPoolSize)
	assert.Equal(t, 4, cfg.AutoExpandCount)
	assert.Equal(t, 5*time.Minute, cfg.PipelinePendingWindow())
	assert.Equal(t, 2*time.Minute, cfg.JobPendingWindow())
}

func TestRefreshIntervalFloor(t *testing.T) {
	cfg := Default()
	cfg.RefreshIntervalSec = 1
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval(), "sub-5s intervals are clamped")

	cfg.RefreshIntervalSec = 120
	assert.Equal(t, 2*time.Minute, cfg.RefreshInterval())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Projects = []string{"mygroup/api", "mygroup/web"}
	cfg.RunnerPoolSize = 20
	cfg.RefreshIntervalSec = 30
	require.NoError(t, Save(cfg))
	assert.Equal(t, "config.json", filepath.Base(Path()))

	got := Load()
	assert.Equal(t, cfg.Projects, got.Projects)
	assert.Equal(t, 20, got.RunnerPoolSize)
	assert.Equal(t, 30, got.RefreshIntervalSec)
}

func TestInitialViewport(t *testing.T) {
	cfg := Default()
	_, ok := cfg.InitialViewport()
	assert.False(t, ok, "unset viewport start")

	cfg.InitialViewportStart = "2026-08-23T08:00:00Z"
	got, ok := cfg.InitialViewport()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC), got)

	cfg.InitialViewportStart = "not-a-time"
	_, ok = cfg.InitialViewport()
	assert.False(t, ok, "unparseable value is a warning, not a crash")
}
