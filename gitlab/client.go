package gitlab

import (
	"context"
	"fmt"
	"log"

	gitlab "github.com/xanzy/go-gitlab"

	"pipetop/config"
	"pipetop/model"
)

// Client fetches pipelines, jobs, and downstream bridges for the configured
// projects and maps them onto the domain model. It implements ui.Source.
type Client struct {
	api      *gitlab.Client
	projects []string
	limit    int
}

func New(cfg config.Config) (*Client, error) {
	if len(cfg.Projects) == 0 {
		return nil, fmt.Errorf("no projects configured (set projects in %s or PIPETOP_PROJECTS)", config.Path())
	}
	api, err := gitlab.NewClient(cfg.Token, gitlab.WithBaseURL(cfg.GitLabBaseURL))
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	return &Client{api: api, projects: cfg.Projects, limit: cfg.PipelineLimit}, nil
}

// Fetch returns one group per configured project. A project that fails to
// list is skipped with a log line; Fetch errors only when every project
// failed, so one flaky project does not blank the whole chart.
func (c *Client) Fetch(ctx context.Context) ([]model.PipelineGroup, error) {
	var groups []model.PipelineGroup
	var lastErr error
	for _, proj := range c.projects {
		pipelines, err := c.fetchProject(ctx, proj)
		if err != nil {
			log.Printf("pipetop: project %s: %v", proj, err)
			lastErr = err
			continue
		}
		groups = append(groups, model.PipelineGroup{
			ID:          proj,
			DisplayName: proj,
			Pipelines:   pipelines,
		})
	}
	if groups == nil && lastErr != nil {
		return nil, fmt.Errorf("all projects failed: %w", lastErr)
	}
	return groups, nil
}

func (c *Client) fetchProject(ctx context.Context, proj string) ([]model.Pipeline, error) {
	infos, _, err := c.api.Pipelines.ListProjectPipelines(proj, &gitlab.ListProjectPipelinesOptions{
		ListOptions: gitlab.ListOptions{PerPage: c.limit},
		OrderBy:     gitlab.String("id"),
		Sort:        gitlab.String("desc"),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}

	var out []model.Pipeline
	for _, info := range infos {
		p, err := c.fetchPipeline(ctx, proj, info.ID)
		if err != nil {
			// One unreadable pipeline should not sink the project.
			log.Printf("pipetop: pipeline %d in %s: %v", info.ID, proj, err)
			continue
		}
		if err := p.Validate(); err != nil {
			log.Printf("pipetop: skipping malformed pipeline: %v", err)
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (c *Client) fetchPipeline(ctx context.Context, proj string, id int) (*model.Pipeline, error) {
	raw, _, err := c.api.Pipelines.GetPipeline(proj, id, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	p := mapPipeline(raw, proj)

	jobs, _, err := c.api.Jobs.ListPipelineJobs(proj, id, &gitlab.ListJobsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	for _, j := range jobs {
		p.Jobs = append(p.Jobs, mapJob(j, proj, id))
	}

	bridges, _, err := c.api.Jobs.ListPipelineBridges(proj, id, &gitlab.ListJobsOptions{
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}, gitlab.WithContext(ctx))
	if err != nil {
		// Bridges are an enrichment; the pipeline stands without them.
		log.Printf("pipetop: pipeline %d in %s: list bridges: %v", id, proj, err)
	} else {
		for _, b := range bridges {
			if b.DownstreamPipeline == nil {
				continue
			}
			p.Children = append(p.Children, model.ChildPipelineRef{
				PipelineID:  b.DownstreamPipeline.ID,
				ProjectPath: proj,
			})
		}
	}
	return p, nil
}

func mapPipeline(raw *gitlab.Pipeline, proj string) *model.Pipeline {
	p := &model.Pipeline{
		ID:          raw.ID,
		ProjectID:   raw.ProjectID,
		ProjectPath: proj,
		Ref:         raw.Ref,
		SHA:         raw.SHA,
		Status:      model.Status(raw.Status),
		StartedAt:   raw.StartedAt,
		FinishedAt:  raw.FinishedAt,
		DurationSec: float64(raw.Duration),
		WebURL:      raw.WebURL,
	}
	if raw.CreatedAt != nil {
		p.CreatedAt = *raw.CreatedAt
	}
	if raw.User != nil {
		p.User = &model.User{
			ID:        raw.User.ID,
			Username:  raw.User.Username,
			Name:      raw.User.Name,
			AvatarURL: raw.User.AvatarURL,
		}
	}
	return p
}

func mapJob(raw *gitlab.Job, proj string, pipelineID int) model.Job {
	j := model.Job{
		ID:           raw.ID,
		Name:         raw.Name,
		Stage:        raw.Stage,
		Status:       model.Status(raw.Status),
		StartedAt:    raw.StartedAt,
		FinishedAt:   raw.FinishedAt,
		DurationSec:  raw.Duration,
		WebURL:       raw.WebURL,
		PipelineID:   pipelineID,
		ProjectPath:  proj,
		AllowFailure: raw.AllowFailure,
	}
	if raw.CreatedAt != nil {
		j.CreatedAt = *raw.CreatedAt
	}
	if raw.User != nil {
		j.User = &model.User{
			ID:        raw.User.ID,
			Username:  raw.User.Username,
			Name:      raw.User.Name,
			AvatarURL: raw.User.AvatarURL,
		}
	}
	if raw.Runner.ID != 0 {
		j.Runner = &model.Runner{
			ID:          raw.Runner.ID,
			Name:        raw.Runner.Name,
			Description: raw.Runner.Description,
		}
	}
	return j
}
