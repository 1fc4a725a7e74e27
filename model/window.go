package model

import "time"

// Pending-visibility windows: items that were created but never started get a
// short synthetic duration so they stay visible (and clickable) on the chart
// without dominating it. Pipelines get a wider window than jobs. Both are
// overridable through config; these are the defaults.
const (
	DefaultPipelinePendingWindow = 5 * time.Minute
	DefaultJobPendingWindow      = 2 * time.Minute
)

// DeriveWindow computes the effective [start, end] used for layout from raw
// API timestamps. Shared by Pipeline and Job so the policy exists exactly
// once:
//
//	finished              -> end = finishedAt
//	started, not finished -> end = now (still running)
//	never started         -> end = createdAt + pendingWindow
//
// Start is startedAt when present, else createdAt. The result always
// satisfies start <= end.
func DeriveWindow(createdAt time.Time, startedAt, finishedAt *time.Time, pendingWindow time.Duration, now time.Time) (start, end time.Time) {
	start = createdAt
	if startedAt != nil {
		start = *startedAt
	}
	switch {
	case finishedAt != nil:
		end = *finishedAt
	case startedAt != nil:
		end = now
	default:
		end = createdAt.Add(pendingWindow)
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}

// Derive fills the effective windows of the pipeline and all its jobs, then
// widens the pipeline window to cover every job window so the pipeline bar
// visually encloses its jobs.
func (p *Pipeline) Derive(pipelineWindow, jobWindow time.Duration, now time.Time) {
	p.Start, p.End = DeriveWindow(p.CreatedAt, p.StartedAt, p.FinishedAt, pipelineWindow, now)
	for i := range p.Jobs {
		j := &p.Jobs[i]
		j.Start, j.End = DeriveWindow(j.CreatedAt, j.StartedAt, j.FinishedAt, jobWindow, now)
		if j.Start.Before(p.Start) {
			p.Start = j.Start
		}
		if j.End.After(p.End) {
			p.End = j.End
		}
	}
}

// DeriveAll derives effective windows for every pipeline in every group.
func DeriveAll(groups []PipelineGroup, pipelineWindow, jobWindow time.Duration, now time.Time) {
	for gi := range groups {
		for pi := range groups[gi].Pipelines {
			groups[gi].Pipelines[pi].Derive(pipelineWindow, jobWindow, now)
		}
	}
}
