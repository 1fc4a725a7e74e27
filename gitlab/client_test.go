package gitlab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "github.com/xanzy/go-gitlab"

	"pipetop/config"
	"pipetop/model"
)

func TestNewRequiresProjects(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no projects configured")
}

func TestMapPipeline(t *testing.T) {
	created := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	started := created.Add(time.Minute)
	raw := &gitlab.Pipeline{
		ID:        42,
		ProjectID: 7,
		Ref:       "main",
		SHA:       "abcdef1234567890",
		Status:    "running",
		CreatedAt: &created,
		StartedAt: &started,
		WebURL:    "https://gitlab.example.com/g/p/-/pipelines/42",
		User:      &gitlab.BasicUser{ID: 3, Username: "jane", Name: "Jane Doe", AvatarURL: "/uploads/u/3.png"},
	}

	p := mapPipeline(raw, "g/p")
	assert.Equal(t, 42, p.ID)
	assert.Equal(t, "g/p", p.ProjectPath)
	assert.Equal(t, model.StatusRunning, p.Status)
	assert.Equal(t, created, p.CreatedAt)
	require.NotNil(t, p.StartedAt)
	assert.Equal(t, started, *p.StartedAt)
	assert.Nil(t, p.FinishedAt)
	require.NotNil(t, p.User)
	assert.Equal(t, "Jane Doe", p.User.Name)
}

func TestMapJob(t *testing.T) {
	created := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	raw := &gitlab.Job{
		ID:           11,
		Name:         "build",
		Stage:        "build",
		Status:       "success",
		CreatedAt:    &created,
		Duration:     42.5,
		AllowFailure: true,
		WebURL:       "https://gitlab.example.com/g/p/-/jobs/11",
	}
	raw.Runner.ID = 5
	raw.Runner.Name = "shared-1"
	raw.Runner.Description = "docker runner"

	j := mapJob(raw, "g/p", 42)
	assert.Equal(t, 11, j.ID)
	assert.Equal(t, 42, j.PipelineID)
	assert.Equal(t, "g/p", j.ProjectPath)
	assert.Equal(t, model.StatusSuccess, j.Status)
	assert.True(t, j.AllowFailure)
	require.NotNil(t, j.Runner)
	assert.Equal(t, "shared-1", j.Runner.Name)
}

func TestMapJobWithoutRunner(t *testing.T) {
	created := time.Now()
	raw := &gitlab.Job{ID: 12, Name: "deploy", Status: "manual", CreatedAt: &created}
	j := mapJob(raw, "g/p", 42)
	assert.Nil(t, j.Runner, "runner id 0 means no runner was assigned")
}
