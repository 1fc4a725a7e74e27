package engine

import (
	"log"
	"sort"
	"time"

	"pipetop/model"
)

// Level is the coarse pressure classification of a contention interval.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// ContentionInterval is a time range during which at least two pipelines ran
// concurrently, used as a proxy for runner-capacity pressure.
type ContentionInterval struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ConcurrentCount int       `json:"concurrent_count"`
	Level           Level     `json:"level"`
}

// DefaultRunnerPool is the assumed shared-runner slot count the default
// thresholds are calibrated for. It is a tunable, not a derived fact.
const DefaultRunnerPool = 10

// Thresholds classifies a concurrency count into a pressure level.
type Thresholds struct {
	Medium   int // counts below this (and >= 2) are low
	High     int
	Critical int
}

// ThresholdsForPool derives level boundaries from the runner pool size.
// The default pool of 10 yields the calibrated 2-3 / 4 / 5-7 / 8+ bands.
func ThresholdsForPool(pool int) Thresholds {
	if pool < 5 {
		pool = 5
	}
	return Thresholds{
		Medium:   pool * 4 / 10,
		High:     pool / 2,
		Critical: pool * 8 / 10,
	}
}

// Classify maps a concurrent-pipeline count to its level.
func (t Thresholds) Classify(count int) Level {
	switch {
	case count >= t.Critical:
		return LevelCritical
	case count >= t.High:
		return LevelHigh
	case count >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// mergeGap: adjacent same-level intervals closer than this are merged to
// reduce visual clutter.
const mergeGap = time.Second

type sweepEvent struct {
	at    time.Time
	delta int // +1 open, -1 close
}

// Contention computes merged concurrency intervals from pipeline effective
// windows with a sweep line. Pure function: same input, same output.
func Contention(pipelines []model.Pipeline, th Thresholds) []ContentionInterval {
	events := make([]sweepEvent, 0, len(pipelines)*2)
	for i := range pipelines {
		p := &pipelines[i]
		if p.Start.IsZero() || p.End.IsZero() {
			// Window was never derived; data-quality issue, not fatal.
			log.Printf("pipetop: skipping pipeline %d in contention analysis: missing effective window", p.ID)
			continue
		}
		events = append(events, sweepEvent{at: p.Start, delta: +1}, sweepEvent{at: p.End, delta: -1})
	}

	// Ends sort before starts at equal timestamps so back-to-back pipelines
	// do not produce spurious zero-width overlap intervals.
	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			return events[i].delta < events[j].delta
		}
		return events[i].at.Before(events[j].at)
	})

	var raw []ContentionInterval
	concurrent := 0
	open := false
	var openStart time.Time
	peak := 0

	for _, ev := range events {
		prev := concurrent
		concurrent += ev.delta

		if !open && prev < 2 && concurrent >= 2 {
			open = true
			openStart = ev.at
			peak = concurrent
			continue
		}
		if open {
			if concurrent > peak {
				peak = concurrent
			}
			// The interval closes only when concurrency drops below 2; it
			// carries the peak count seen while it was open.
			if concurrent < 2 {
				raw = append(raw, ContentionInterval{
					Start:           openStart,
					End:             ev.at,
					ConcurrentCount: peak,
					Level:           th.Classify(peak),
				})
				open = false
				peak = 0
			}
		}
	}

	return mergeAdjacent(raw)
}

// mergeAdjacent folds neighbouring intervals of identical level whose gap is
// at most mergeGap into new interval values; inputs are never mutated.
func mergeAdjacent(in []ContentionInterval) []ContentionInterval {
	if len(in) == 0 {
		return nil
	}
	out := make([]ContentionInterval, 0, len(in))
	cur := in[0]
	for _, next := range in[1:] {
		if next.Level == cur.Level && !next.Start.After(cur.End.Add(mergeGap)) {
			merged := cur
			merged.End = next.End
			if next.ConcurrentCount > merged.ConcurrentCount {
				merged.ConcurrentCount = next.ConcurrentCount
			}
			cur = merged
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}
