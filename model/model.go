package model

import (
	"fmt"
	"time"
)

// Status is the execution state of a pipeline or job as reported by GitLab.
type Status string

const (
	StatusCreated  Status = "created"
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
	StatusManual   Status = "manual"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCanceled, StatusSkipped:
		return true
	}
	return false
}

// Unexecuted reports whether the item never ran (and never will without
// intervention). Such items render as neutral pills rather than bars.
func (s Status) Unexecuted() bool {
	return s == StatusManual || s == StatusSkipped
}

// User is the person who triggered a pipeline or ran a job.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Runner is the CI runner a job executed on.
type Runner struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Job is one unit of work within a pipeline.
type Job struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Stage        string     `json:"stage"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	DurationSec  float64    `json:"duration_sec,omitempty"`
	WebURL       string     `json:"web_url"`
	PipelineID   int        `json:"pipeline_id"`
	ProjectPath  string     `json:"project_path"`
	User         *User      `json:"user,omitempty"`
	Runner       *Runner    `json:"runner,omitempty"`
	AllowFailure bool       `json:"allow_failure"`

	// Effective window, filled by Derive.
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// ChildPipelineRef records a downstream pipeline triggered by a bridge job.
type ChildPipelineRef struct {
	PipelineID  int    `json:"pipeline_id"`
	ProjectPath string `json:"project_path"`
}

// Pipeline is one CI/CD execution run, composed of jobs.
type Pipeline struct {
	ID          int                `json:"id"`
	ProjectID   int                `json:"project_id"`
	ProjectPath string             `json:"project_path"`
	Ref         string             `json:"ref"`
	SHA         string             `json:"sha"`
	Status      Status             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
	DurationSec float64            `json:"duration_sec,omitempty"`
	WebURL      string             `json:"web_url"`
	User        *User              `json:"user,omitempty"`
	Jobs        []Job              `json:"jobs"`
	Children    []ChildPipelineRef `json:"children,omitempty"`

	// Effective window, filled by Derive. Always covers every job's window.
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// PipelineGroup is an aggregation key (a project or a user) with its
// pipelines. Built once per fetch; instances are never mutated afterwards.
type PipelineGroup struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Pipelines   []Pipeline `json:"pipelines"`
}

// Validate rejects malformed entities at the construction boundary so the
// renderer can assume well-formed input.
func (p *Pipeline) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("pipeline without id (project %q)", p.ProjectPath)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("pipeline %d: missing created_at", p.ID)
	}
	for i := range p.Jobs {
		j := &p.Jobs[i]
		if j.CreatedAt.IsZero() {
			return fmt.Errorf("pipeline %d: job %d (%s): missing created_at", p.ID, j.ID, j.Name)
		}
	}
	return nil
}
