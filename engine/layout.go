package engine

import (
	"sort"
	"strconv"
	"time"

	"pipetop/model"
)

// RowType distinguishes the two kinds of chart rows.
type RowType int

const (
	RowPipeline RowType = iota
	RowJob
)

// Row is one visible line of the chart. Rows are ephemeral: rebuilt from the
// domain model and the expanded set on every structural change, never stored.
type Row struct {
	Type     RowType
	Level    int // indent level: 0 pipeline, 1 job
	Label    string
	Start    time.Time
	End      time.Time
	Status   model.Status
	Index    int  // array position; sole key into the Y scale
	Expanded bool // pipeline rows only: job rows follow this row
	GroupID  string
	Pipeline *model.Pipeline // always set
	Job      *model.Job      // set when Type == RowJob
}

// Key returns the stable identity of the row's underlying entity, used for
// primitive reconciliation across renders.
func (r Row) Key() string {
	if r.Type == RowJob {
		return "j" + strconv.Itoa(r.Job.ID)
	}
	return "p" + strconv.Itoa(r.Pipeline.ID)
}

// ExpandedSet tracks which pipelines currently show their job rows. It is
// session-scoped UI state: it survives data refreshes and is mutated only by
// user toggle actions on the UI goroutine.
type ExpandedSet struct {
	ids map[int]struct{}
}

func NewExpandedSet() *ExpandedSet {
	return &ExpandedSet{ids: make(map[int]struct{})}
}

func (e *ExpandedSet) Has(id int) bool {
	_, ok := e.ids[id]
	return ok
}

// Toggle flips membership and reports the resulting state.
func (e *ExpandedSet) Toggle(id int) bool {
	if e.Has(id) {
		delete(e.ids, id)
		return false
	}
	e.ids[id] = struct{}{}
	return true
}

func (e *ExpandedSet) Add(id int) { e.ids[id] = struct{}{} }
func (e *ExpandedSet) Len() int   { return len(e.ids) }
func (e *ExpandedSet) Reset()     { e.ids = make(map[int]struct{}) }

// Flatten converts the hierarchical model plus the expanded set into the flat
// ordered row list the scales and renderer consume. Pipelines across all
// groups form one global list sorted by effective start descending (newest
// first); project identity is carried by color and label, not by grouping.
// For each expanded pipeline its job rows follow immediately, in API order.
func Flatten(groups []model.PipelineGroup, expanded *ExpandedSet) []Row {
	var pipelines []*model.Pipeline
	groupOf := make(map[int]string)
	for gi := range groups {
		g := &groups[gi]
		for pi := range g.Pipelines {
			p := &g.Pipelines[pi]
			pipelines = append(pipelines, p)
			groupOf[p.ID] = g.ID
		}
	}
	sort.SliceStable(pipelines, func(i, j int) bool {
		return pipelines[i].Start.After(pipelines[j].Start)
	})

	var rows []Row
	for _, p := range pipelines {
		isExpanded := expanded != nil && expanded.Has(p.ID)
		rows = append(rows, Row{
			Type:     RowPipeline,
			Level:    0,
			Label:    p.ProjectPath,
			Start:    p.Start,
			End:      p.End,
			Status:   p.Status,
			Index:    len(rows),
			Expanded: isExpanded,
			GroupID:  groupOf[p.ID],
			Pipeline: p,
		})
		if isExpanded {
			for ji := range p.Jobs {
				j := &p.Jobs[ji]
				rows = append(rows, Row{
					Type:     RowJob,
					Level:    1,
					Label:    j.Name,
					Start:    j.Start,
					End:      j.End,
					Status:   j.Status,
					Index:    len(rows),
					GroupID:  groupOf[p.ID],
					Pipeline: p,
					Job:      j,
				})
			}
		}
	}
	return rows
}

// AutoExpand adds the first n pipelines in display order to the expanded set.
// Applied once on first data load only; later renders respect whatever the
// user toggled.
func AutoExpand(groups []model.PipelineGroup, expanded *ExpandedSet, n int) {
	rows := Flatten(groups, nil)
	for _, r := range rows {
		if n <= 0 {
			return
		}
		if r.Type == RowPipeline {
			expanded.Add(r.Pipeline.ID)
			n--
		}
	}
}

// TimeExtent returns the min start and max end over all rows, or ok=false for
// an empty row set.
func TimeExtent(rows []Row) (min, max time.Time, ok bool) {
	for _, r := range rows {
		if !ok {
			min, max, ok = r.Start, r.End, true
			continue
		}
		if r.Start.Before(min) {
			min = r.Start
		}
		if r.End.After(max) {
			max = r.End
		}
	}
	return min, max, ok
}
