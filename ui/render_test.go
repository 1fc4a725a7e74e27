package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipetop/engine"
	"pipetop/model"
)

var renderNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func rtp(t time.Time) *time.Time { return &t }

// renderFixture is one pipeline with a finished build job and a manual deploy
// job, windows derived.
func renderFixture() []model.PipelineGroup {
	created := renderNow.Add(-30 * time.Minute)
	started := created.Add(time.Minute)
	finished := started.Add(10 * time.Minute)

	p := model.Pipeline{
		ID:          1,
		ProjectPath: "mygroup/api",
		Ref:         "main",
		SHA:         "abcdef1234567890",
		Status:      model.StatusSuccess,
		CreatedAt:   created,
		StartedAt:   rtp(started),
		FinishedAt:  rtp(finished),
		WebURL:      "https://gitlab.example.com/mygroup/api/-/pipelines/1",
		User:        &model.User{ID: 5, Name: "Jane Doe"},
		Jobs: []model.Job{
			{
				ID: 11, Name: "build", Stage: "build", Status: model.StatusSuccess,
				CreatedAt: created, StartedAt: rtp(started), FinishedAt: rtp(started.Add(5 * time.Minute)),
				PipelineID: 1, ProjectPath: "mygroup/api",
				Runner: &model.Runner{ID: 3, Name: "shared-1"},
			},
			{
				ID: 12, Name: "deploy", Stage: "deploy", Status: model.StatusManual,
				CreatedAt: created, PipelineID: 1, ProjectPath: "mygroup/api",
			},
		},
	}
	p.Derive(model.DefaultPipelinePendingWindow, model.DefaultJobPendingWindow, renderNow)
	return []model.PipelineGroup{{ID: "mygroup/api", DisplayName: "mygroup/api", Pipelines: []model.Pipeline{p}}}
}

func newTestRenderer() *Renderer {
	r := NewRenderer("https://gitlab.example.com")
	r.SetViewport(100, 20)
	return r
}

func TestRenderExpandedPipelineDrawsGroupBox(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	rows := engine.Flatten(groups, expanded)
	require.Len(t, rows, 3)

	r := newTestRenderer()
	r.Render(rows, nil, renderNow)

	// The expanded pipeline draws a group box instead of a bar.
	assert.True(t, r.prims["p1"].suppressed)
	assert.Contains(t, r.boxes, 1)
	assert.NotContains(t, r.geoms, 0, "suppressed pipeline has no bar geometry")

	// Both jobs got bars.
	assert.Contains(t, r.geoms, 1)
	assert.Contains(t, r.geoms, 2)
}

func TestRenderCollapsedPipelineDrawsBar(t *testing.T) {
	rows := engine.Flatten(renderFixture(), engine.NewExpandedSet())
	require.Len(t, rows, 1)

	r := newTestRenderer()
	r.Render(rows, nil, renderNow)

	assert.False(t, r.prims["p1"].suppressed)
	assert.Empty(t, r.boxes)
	assert.Contains(t, r.geoms, 0)
}

func TestRenderManualJobIsNeutralPill(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	r := newTestRenderer()
	r.Render(engine.Flatten(groups, expanded), nil, renderNow)

	prim := r.prims["j12"]
	require.NotNil(t, prim)
	assert.Equal(t, shapePill, prim.shape)
	assert.Equal(t, colorNeutral, prim.fill, "manual jobs ignore runner and project colors")
}

func TestRenderSuccessJobUsesRunnerColor(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	r := newTestRenderer()
	r.Render(engine.Flatten(groups, expanded), nil, renderNow)

	prim := r.prims["j11"]
	require.NotNil(t, prim)
	assert.Equal(t, shapeBar, prim.shape)
	assert.Equal(t, r.palette.Runner("shared-1"), prim.fill)
	assert.Equal(t, '│', prim.edge, "success border is solid")
}

func TestRenderMinimumBarWidth(t *testing.T) {
	groups := renderFixture()
	// Zero-duration job: started and finished at the same instant.
	j := &groups[0].Pipelines[0].Jobs[0]
	j.FinishedAt = j.StartedAt
	groups[0].Pipelines[0].Derive(model.DefaultPipelinePendingWindow, model.DefaultJobPendingWindow, renderNow)

	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	r := newTestRenderer()
	r.Render(engine.Flatten(groups, expanded), nil, renderNow)

	g := r.geoms[1]
	assert.GreaterOrEqual(t, g.x1-g.x0+1, minBarCells)
}

func TestRenderPreservesZoomAcrossRefresh(t *testing.T) {
	rows := engine.Flatten(renderFixture(), engine.NewExpandedSet())
	r := newTestRenderer()
	r.Render(rows, nil, renderNow)

	zoomed := engine.ZoomTransform{K: 2, TX: -10}
	r.Scale().Rescale(zoomed)

	// A refresh with an unchanged extent must not reset the transform.
	r.Render(rows, nil, renderNow)
	assert.Equal(t, zoomed, r.Scale().Transform())
}

func TestRenderEmptyRowSet(t *testing.T) {
	r := newTestRenderer()
	r.Render(nil, nil, renderNow)
	assert.Contains(t, r.View(), "no pipelines")
}

func TestHitTestZones(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	rows := engine.Flatten(groups, expanded)
	r := newTestRenderer()
	r.Render(rows, nil, renderNow)

	// Gutter cells resolve to the row with the gutter zone.
	row, zone, ok := r.HitTest(2, 1)
	require.True(t, ok)
	assert.Equal(t, hitGutter, zone)
	assert.Equal(t, engine.RowPipeline, row.Type)

	// A cell inside a job bar resolves to the bar zone.
	g := r.geoms[1]
	row, zone, ok = r.HitTest(g.x0, 2)
	require.True(t, ok)
	assert.Equal(t, hitBar, zone)
	assert.Equal(t, 11, row.Job.ID)

	// Above the chart (axis row) nothing is hit.
	_, _, ok = r.HitTest(50, 0)
	assert.False(t, ok)
}

func TestHitTestGroupBoxInterior(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	rows := engine.Flatten(groups, expanded)
	r := newTestRenderer()
	r.Render(rows, nil, renderNow)

	box := r.boxes[1]
	deploy := r.geoms[2]
	require.Greater(t, box.x1, deploy.x1, "fixture needs box space past the deploy bar")

	// An in-box cell on a job row that is not on the job's bar acts on the
	// owning pipeline row.
	row, zone, ok := r.HitTest(box.x1-1, 3)
	require.True(t, ok)
	assert.Equal(t, hitGroupBox, zone)
	assert.Equal(t, engine.RowPipeline, row.Type)
	assert.Equal(t, 1, row.Pipeline.ID)

	// The job's own bar still wins over the box behind it.
	row, zone, ok = r.HitTest(deploy.x0, 3)
	require.True(t, ok)
	assert.Equal(t, hitBar, zone)
	assert.Equal(t, 12, row.Job.ID)
}

func TestGroupBoxHoverHighlight(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	rows := engine.Flatten(groups, expanded)
	r := newTestRenderer()
	r.Render(rows, nil, renderNow)

	assert.Equal(t, groupBoxStyle, r.boxStyle(rows[0].Pipeline))

	r.SetHover(&rows[0], 40, 1)
	assert.Equal(t, groupBoxHoverStyle, r.boxStyle(rows[0].Pipeline))

	// Hovering a job bar does not light up the box.
	r.SetHover(&rows[1], 40, 2)
	assert.Equal(t, groupBoxStyle, r.boxStyle(rows[0].Pipeline))
}

func TestReconcileDropsVanishedRows(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	r := newTestRenderer()
	r.Render(engine.Flatten(groups, expanded), nil, renderNow)
	require.Contains(t, r.prims, "j11")

	expanded.Reset()
	r.Render(engine.Flatten(groups, expanded), nil, renderNow)
	assert.NotContains(t, r.prims, "j11")
	assert.Contains(t, r.prims, "p1")
}

func TestRowURLFallbackConstruction(t *testing.T) {
	p := &model.Pipeline{ID: 42, ProjectPath: "mygroup/api"}
	row := engine.Row{Type: engine.RowPipeline, Pipeline: p}
	assert.Equal(t, "https://gitlab.example.com/mygroup/api/-/pipelines/42",
		rowURL(row, "https://gitlab.example.com/"))

	j := &model.Job{ID: 7, ProjectPath: "mygroup/api"}
	row = engine.Row{Type: engine.RowJob, Pipeline: p, Job: j}
	assert.Equal(t, "https://gitlab.example.com/mygroup/api/-/jobs/7",
		rowURL(row, "https://gitlab.example.com"))
}

func TestTickStep(t *testing.T) {
	assert.Equal(t, 5*time.Minute, tickStep(35*time.Minute))
	assert.Equal(t, time.Hour, tickStep(7*time.Hour))
	assert.Equal(t, 30*time.Second, tickStep(90*time.Second))
}

func TestRenderFrameHasStatusGlyphs(t *testing.T) {
	groups := renderFixture()
	expanded := engine.NewExpandedSet()
	expanded.Add(1)
	r := newTestRenderer()
	r.Render(engine.Flatten(groups, expanded), nil, renderNow)

	frame := r.View()
	assert.True(t, strings.Contains(frame, "▾"), "expanded indicator present in gutter")
	assert.True(t, strings.Contains(frame, "╌"), "dashed group box rail present")
}
