package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pipetop/config"
	"pipetop/engine"
	"pipetop/gitlab"
	"pipetop/model"
	"pipetop/ui"
)

// Version is set at build time via ldflags.
var Version = "0.3.0"

func printUsage() {
	fmt.Fprintf(os.Stderr, `pipetop v%s — GANTT-style CI/CD pipeline timeline for GitLab

Usage:
  pipetop [OPTIONS] [INTERVAL]

Modes:
  (default)         Interactive TUI (bubbletea, fullscreen, mouse enabled)
  -json             Single JSON contention report to stdout, then exit
  -save             Write the effective configuration to the config file, then exit
  -version          Print version and exit

Options:
  -interval N       Refresh interval in seconds (default: 60)
  -projects LIST    Comma-separated project paths (group/project,...)
  -gitlab-url URL   GitLab base URL (default: https://gitlab.com)
  -limit N          Pipelines fetched per project (default: 30)
  -pool N           Shared runner pool size for contention thresholds (default: 10)
  -since RFC3339    Initial viewport start time

Configuration file: %s
Environment: PIPETOP_GITLAB_TOKEN, PIPETOP_PROJECTS, PIPETOP_GITLAB_BASE_URL, ...
Flags override environment, environment overrides the file.

Positional:
  INTERVAL          First positional arg sets interval: pipetop 30 = pipetop -interval 30

Examples:
  pipetop -projects mygroup/api,mygroup/web
  pipetop -projects mygroup/api 30
  pipetop -json -pool 20 | jq '.intervals[] | select(.level == "critical")'
  pipetop -since 2026-08-23T08:00:00Z
  pipetop -projects mygroup/api -pool 20 -save
  pipetop -version
`, Version, config.Path())
}

// Run parses flags and starts the application.
func Run() error {
	cfg := config.Load()

	var (
		intervalSec = flag.Int("interval", cfg.RefreshIntervalSec, "Refresh interval in seconds")
		projects    = flag.String("projects", "", "Comma-separated project paths")
		baseURL     = flag.String("gitlab-url", "", "GitLab base URL")
		limit       = flag.Int("limit", cfg.PipelineLimit, "Pipelines fetched per project")
		pool        = flag.Int("pool", cfg.RunnerPoolSize, "Runner pool size for contention thresholds")
		since       = flag.String("since", "", "Initial viewport start (RFC3339)")
		jsonMode    = flag.Bool("json", false, "Output a single JSON contention report and exit")
		saveMode    = flag.Bool("save", false, "Write the effective configuration to the config file and exit")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("pipetop v%s\n", Version)
		return nil
	}

	cfg.RefreshIntervalSec = *intervalSec
	cfg.PipelineLimit = *limit
	cfg.RunnerPoolSize = *pool
	if *projects != "" {
		cfg.Projects = splitList(*projects)
	}
	if *baseURL != "" {
		cfg.GitLabBaseURL = *baseURL
	}
	if *since != "" {
		cfg.InitialViewportStart = *since
	}

	// Support positional arg for interval: `pipetop 30` = `pipetop -interval 30`
	if args := flag.Args(); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			cfg.RefreshIntervalSec = n
		}
	}

	// Persist the flag-merged configuration so tunables dialed in on the
	// command line become the new defaults.
	if *saveMode {
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", config.Path())
		return nil
	}

	src, err := gitlab.New(cfg)
	if err != nil {
		return err
	}

	if *jsonMode {
		return runJSON(cfg, src)
	}

	p := tea.NewProgram(ui.NewModel(cfg, src), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// contentionReport is the -json output document.
type contentionReport struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	PoolSize    int                         `json:"pool_size"`
	Pipelines   int                         `json:"pipelines"`
	Intervals   []engine.ContentionInterval `json:"intervals"`
}

// runJSON fetches once, runs the contention analysis, and prints the report.
func runJSON(cfg config.Config, src *gitlab.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	groups, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	model.DeriveAll(groups, cfg.PipelinePendingWindow(), cfg.JobPendingWindow(), now)

	var pipelines []model.Pipeline
	for _, g := range groups {
		pipelines = append(pipelines, g.Pipelines...)
	}
	report := contentionReport{
		GeneratedAt: now,
		PoolSize:    cfg.RunnerPoolSize,
		Pipelines:   len(pipelines),
		Intervals:   engine.Contention(pipelines, engine.ThresholdsForPool(cfg.RunnerPoolSize)),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
