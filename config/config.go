package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds connection settings and the UI tunables. Values come from the
// config file, overridden by PIPETOP_* environment variables, overridden by
// flags.
type Config struct {
	GitLabBaseURL string   `json:"gitlab_base_url" envconfig:"GITLAB_BASE_URL" default:"https://gitlab.com"`
	Token         string   `json:"token" envconfig:"GITLAB_TOKEN"`
	Projects      []string `json:"projects" envconfig:"PROJECTS"`

	RefreshIntervalSec int `json:"refresh_interval_sec" envconfig:"REFRESH_INTERVAL_SEC" default:"60"`
	PipelineLimit      int `json:"pipeline_limit" envconfig:"PIPELINE_LIMIT" default:"30"`

	// UX heuristics, deliberately configurable rather than hardcoded.
	RunnerPoolSize           int `json:"runner_pool_size" envconfig:"RUNNER_POOL_SIZE" default:"10"`
	AutoExpandCount          int `json:"auto_expand_count" envconfig:"AUTO_EXPAND_COUNT" default:"4"`
	PipelinePendingWindowMin int `json:"pipeline_pending_window_min" envconfig:"PIPELINE_PENDING_WINDOW_MIN" default:"5"`
	JobPendingWindowMin      int `json:"job_pending_window_min" envconfig:"JOB_PENDING_WINDOW_MIN" default:"2"`

	// Optional initial viewport: RFC3339. When set, the first render zooms
	// to [InitialViewportStart, now] instead of the full extent.
	InitialViewportStart string `json:"initial_viewport_start,omitempty" envconfig:"INITIAL_VIEWPORT_START"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		GitLabBaseURL:            "https://gitlab.com",
		RefreshIntervalSec:       60,
		PipelineLimit:            30,
		RunnerPoolSize:           10,
		AutoExpandCount:          4,
		PipelinePendingWindowMin: 5,
		JobPendingWindowMin:      2,
	}
}

// Path returns ~/.config/pipetop/config.json (or XDG_CONFIG_HOME).
// Returns empty string if the home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pipetop", "config.json")
}

// Load reads the config file, then applies environment overrides. Returns
// defaults when the file is absent; a malformed file is a warning, not an
// error.
func Load() Config {
	cfg := Default()
	if p := Path(); p != "" {
		if data, err := os.ReadFile(p); err == nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				log.Printf("pipetop: warning: config parse error: %v", err)
			}
		}
	}
	if err := envconfig.Process("pipetop", &cfg); err != nil {
		log.Printf("pipetop: warning: environment config error: %v", err)
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// RefreshInterval returns the refresh period as a duration.
func (c Config) RefreshInterval() time.Duration {
	if c.RefreshIntervalSec < 5 {
		return 5 * time.Second
	}
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// PipelinePendingWindow returns the pending-visibility window for pipelines.
func (c Config) PipelinePendingWindow() time.Duration {
	return time.Duration(c.PipelinePendingWindowMin) * time.Minute
}

// JobPendingWindow returns the pending-visibility window for jobs.
func (c Config) JobPendingWindow() time.Duration {
	return time.Duration(c.JobPendingWindowMin) * time.Minute
}

// InitialViewport parses InitialViewportStart; ok is false when unset or
// unparseable.
func (c Config) InitialViewport() (time.Time, bool) {
	if c.InitialViewportStart == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, c.InitialViewportStart)
	if err != nil {
		log.Printf("pipetop: warning: bad initial_viewport_start %q: %v", c.InitialViewportStart, err)
		return time.Time{}, false
	}
	return t, true
}
