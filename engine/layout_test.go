package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipetop/model"
)

func groupsFixture() []model.PipelineGroup {
	t0 := base
	mk := func(id int, start time.Time, jobs ...string) model.Pipeline {
		p := model.Pipeline{ID: id, ProjectPath: "team/app", CreatedAt: start, Start: start, End: start.Add(5 * time.Minute)}
		for i, name := range jobs {
			p.Jobs = append(p.Jobs, model.Job{
				ID: id*100 + i, Name: name, PipelineID: id,
				CreatedAt: start, Start: start, End: start.Add(4 * time.Minute),
			})
		}
		return p
	}
	return []model.PipelineGroup{
		{ID: "team/app", DisplayName: "team/app", Pipelines: []model.Pipeline{
			mk(1, t0, "build", "test"),
			mk(2, t0.Add(1*time.Minute), "build"),
		}},
		{ID: "team/lib", DisplayName: "team/lib", Pipelines: []model.Pipeline{
			mk(3, t0.Add(-1*time.Minute), "build", "lint", "deploy"),
		}},
	}
}

func TestFlattenCollapsed(t *testing.T) {
	rows := Flatten(groupsFixture(), NewExpandedSet())
	require.Len(t, rows, 3, "one row per pipeline, no job rows")
	for i, r := range rows {
		assert.Equal(t, RowPipeline, r.Type)
		assert.Equal(t, i, r.Index)
	}
}

func TestFlattenOrderNewestFirst(t *testing.T) {
	// Starts are T, T+1, T-1 across groups; display order must be
	// T+1, T, T-1 regardless of grouping.
	rows := Flatten(groupsFixture(), NewExpandedSet())
	assert.Equal(t, []int{2, 1, 3}, []int{rows[0].Pipeline.ID, rows[1].Pipeline.ID, rows[2].Pipeline.ID})
}

func TestFlattenAllExpanded(t *testing.T) {
	groups := groupsFixture()
	exp := NewExpandedSet()
	for _, g := range groups {
		for _, p := range g.Pipelines {
			exp.Add(p.ID)
		}
	}
	rows := Flatten(groups, exp)
	// 3 pipelines + 6 jobs.
	require.Len(t, rows, 9)

	// Job rows follow their pipeline immediately, in API order.
	assert.Equal(t, RowPipeline, rows[0].Type)
	assert.Equal(t, 2, rows[0].Pipeline.ID)
	assert.Equal(t, RowJob, rows[1].Type)
	assert.Equal(t, "build", rows[1].Label)
	assert.Equal(t, RowPipeline, rows[2].Type)
	assert.Equal(t, 1, rows[2].Pipeline.ID)
	assert.Equal(t, "build", rows[3].Label)
	assert.Equal(t, "test", rows[4].Label)

	for i, r := range rows {
		assert.Equal(t, i, r.Index)
	}
}

func TestExpandedSetToggle(t *testing.T) {
	exp := NewExpandedSet()
	assert.True(t, exp.Toggle(7))
	assert.True(t, exp.Has(7))
	assert.False(t, exp.Toggle(7))
	assert.False(t, exp.Has(7))
}

func TestAutoExpand(t *testing.T) {
	groups := groupsFixture()
	exp := NewExpandedSet()
	AutoExpand(groups, exp, 2)
	// First two in display order are pipelines 2 and 1.
	assert.True(t, exp.Has(2))
	assert.True(t, exp.Has(1))
	assert.False(t, exp.Has(3))

	// Asking for more than exist expands everything without panicking.
	exp2 := NewExpandedSet()
	AutoExpand(groups, exp2, 10)
	assert.Equal(t, 3, exp2.Len())
}

func TestRowKeyStable(t *testing.T) {
	groups := groupsFixture()
	exp := NewExpandedSet()
	exp.Add(1)
	a := Flatten(groups, exp)
	b := Flatten(groups, exp)
	for i := range a {
		assert.Equal(t, a[i].Key(), b[i].Key())
	}
}

func TestTimeExtent(t *testing.T) {
	rows := Flatten(groupsFixture(), NewExpandedSet())
	min, max, ok := TimeExtent(rows)
	require.True(t, ok)
	assert.Equal(t, base.Add(-1*time.Minute), min)
	assert.Equal(t, base.Add(6*time.Minute), max)

	_, _, ok = TimeExtent(nil)
	assert.False(t, ok)
}
