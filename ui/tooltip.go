package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"pipetop/engine"
	"pipetop/util"
)

// tooltipLines builds the detail lines for a hovered or focused row:
// project, id/name, status, relative age, duration, and runner info for jobs.
func tooltipLines(r engine.Row, now time.Time) []string {
	p := r.Pipeline
	var lines []string
	switch r.Type {
	case engine.RowJob:
		j := r.Job
		lines = append(lines,
			fmt.Sprintf("%s · %s", p.ProjectPath, j.Stage),
			fmt.Sprintf("job #%d %s", j.ID, j.Name),
			fmt.Sprintf("status: %s", j.Status),
			fmt.Sprintf("started %s", humanize.RelTime(j.Start, now, "ago", "from now")),
			fmt.Sprintf("duration %s", util.FormatDuration(j.End.Sub(j.Start))),
		)
		if j.Runner != nil {
			desc := j.Runner.Description
			if desc == "" {
				desc = j.Runner.Name
			}
			lines = append(lines, fmt.Sprintf("runner #%d %s", j.Runner.ID, desc))
		}
		if j.AllowFailure {
			lines = append(lines, "allowed to fail")
		}
	default:
		lines = append(lines,
			p.ProjectPath,
			fmt.Sprintf("pipeline #%d %s@%s", p.ID, p.Ref, util.ShortSHA(p.SHA)),
			fmt.Sprintf("status: %s", p.Status),
			fmt.Sprintf("started %s", humanize.RelTime(p.Start, now, "ago", "from now")),
			fmt.Sprintf("duration %s", util.FormatDuration(p.End.Sub(p.Start))),
			fmt.Sprintf("%d jobs", len(p.Jobs)),
		)
		if p.User != nil {
			lines = append(lines, fmt.Sprintf("by %s", p.User.Name))
		}
	}
	return lines
}

// placeTooltip positions a boxW×boxH tooltip near the anchor cell, flipping
// to the opposite side of the anchor when it would overflow a viewport edge.
func placeTooltip(anchorX, anchorY, boxW, boxH, viewW, viewH int) (x, y int) {
	x = anchorX + 2
	if x+boxW > viewW {
		x = anchorX - boxW - 1
	}
	if x < 0 {
		x = 0
	}
	y = anchorY + 1
	if y+boxH > viewH {
		y = anchorY - boxH
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
