package ui

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pipetop/engine"
	"pipetop/model"
	"pipetop/util"
)

const (
	gutterWidth = 26
	minBarCells = 2 // floor so zero-duration items stay visible and clickable
)

// hitZone classifies what sits under a cell for click dispatch.
type hitZone int

const (
	hitNone hitZone = iota
	hitGutter
	hitBar
	hitGroupBox
)

// barPrim is the cached graphical primitive for one row, keyed by the row's
// stable identity. Styling is resolved once per structural render and reused
// on the zoom fast path; only geometry is recomputed per frame.
type barPrim struct {
	shape      barShape
	fill       lipgloss.Color
	edge       rune
	edgeStyle  lipgloss.Style
	label      string
	badge      string
	badgeStyle lipgloss.Style
	url        string
	running    bool
	suppressed bool // expanded pipelines draw a group box instead of a bar
}

// barGeom is the per-frame geometry of a row's primitive.
type barGeom struct {
	x0, x1 int // chart-relative cells
	y      int // canvas row
}

// boxGeom is the per-frame geometry of an expanded pipeline's group box, in
// row indices (yTop is the pipeline row, yBot its last job row).
type boxGeom struct {
	x0, x1     int
	yTop, yBot int
}

// Renderer converts rows + scales + contention intervals into a terminal
// frame. Render does the full structural pass; RenderFast refreshes
// positions only, for zoom/pan and stripe animation.
type Renderer struct {
	width, height int
	baseURL       string

	palette *Palette
	measure *Measurer

	ts   *engine.TimeScale
	band *engine.BandScale

	rows       []engine.Row
	intervals  []engine.ContentionInterval
	extMin     time.Time
	extMax     time.Time
	prims      map[string]*barPrim
	rowOfPipe  map[int]int // pipeline ID -> row index

	Scroll int // first visible row
	Cursor int // keyboard-focused row

	geoms map[int]barGeom
	boxes map[int]boxGeom // by pipeline ID

	stripePhase int
	frame       string

	hoverRow       *engine.Row
	hoverX, hoverY int
}

func NewRenderer(baseURL string) *Renderer {
	return &Renderer{
		baseURL: baseURL,
		palette: NewPalette(),
		measure: NewMeasurer(),
		prims:   make(map[string]*barPrim),
	}
}

// SetViewport sizes the renderer. The chart range is the viewport minus the
// fixed row-label gutter; only the chart pans and zooms, never the gutter.
func (r *Renderer) SetViewport(w, h int) {
	r.width, r.height = w, h
	if r.ts != nil {
		r.ts.Resize(float64(r.chartWidth()))
	}
}

func (r *Renderer) chartWidth() int {
	w := r.width - gutterWidth - 1
	if w < 10 {
		w = 10
	}
	return w
}

// chartRows is the number of row lines below the axis line.
func (r *Renderer) chartRows() int {
	h := r.height - 1
	if h < 1 {
		h = 1
	}
	return h
}

// Scale exposes the time scale for the interaction controller (zoom pivots,
// initial viewport framing).
func (r *Renderer) Scale() *engine.TimeScale { return r.ts }

// Rows returns the current flat row list.
func (r *Renderer) Rows() []engine.Row { return r.rows }

// Render is the full structural pass: reconcile primitives against the new
// row list, rebuild the base scale when the time extent moved, then draw.
// The zoom transform is preserved across renders.
func (r *Renderer) Render(rows []engine.Row, intervals []engine.ContentionInterval, now time.Time) {
	r.rows = rows
	r.intervals = intervals
	r.rowOfPipe = make(map[int]int, len(rows))
	for _, row := range rows {
		if row.Type == engine.RowPipeline {
			r.rowOfPipe[row.Pipeline.ID] = row.Index
		}
	}

	min, max, ok := engine.TimeExtent(rows)
	if !ok {
		log.Printf("pipetop: no rows to render")
		r.ts = nil
		r.band = nil
		r.frame = r.emptyFrame()
		return
	}

	// Zoom composes on top of the base scale; the domain is rebuilt only
	// when the extent actually changed (new data), never per zoom frame.
	if r.ts == nil || !min.Equal(r.extMin) || !max.Equal(r.extMax) {
		var keep engine.ZoomTransform
		if r.ts != nil {
			keep = r.ts.Transform()
		} else {
			keep = engine.Identity()
		}
		r.extMin, r.extMax = min, max
		r.ts = engine.NewTimeScale(min, max, float64(r.chartWidth()))
		r.ts.Rescale(keep)
	} else {
		r.ts.Resize(float64(r.chartWidth()))
	}
	r.band = engine.NewBandScale(len(rows), 1)

	r.reconcile(rows)
	r.draw(now)
}

// RenderFast is the zoom/pan/animation path: positions, widths, and label
// visibility change, but rows, intervals, and primitive styling are reused
// untouched.
func (r *Renderer) RenderFast(now time.Time) {
	if r.ts == nil {
		return
	}
	r.draw(now)
}

// SetStripePhase advances the running-bar stripe pattern. The phase is
// derived from wall-clock time by the controller so animation speed does not
// depend on frame rate.
func (r *Renderer) SetStripePhase(phase int) { r.stripePhase = phase }

// View returns the last composed frame.
func (r *Renderer) View() string { return r.frame }

// reconcile diffs the incoming row list against the keyed primitive map:
// primitives for surviving rows are kept (styles, labels, URLs already
// resolved), new rows get fresh primitives, vanished rows are dropped.
func (r *Renderer) reconcile(rows []engine.Row) {
	next := make(map[string]*barPrim, len(rows))
	for _, row := range rows {
		key := row.Key()
		p, ok := r.prims[key]
		if !ok {
			p = r.buildPrim(row)
		}
		// Expansion state can change without the key changing.
		p.suppressed = row.Type == engine.RowPipeline && row.Expanded
		next[key] = p
	}
	r.prims = next
}

func (r *Renderer) buildPrim(row engine.Row) *barPrim {
	badge, badgeStyle := avatarBadge(row, r.palette)
	p := &barPrim{
		shape:      shapeFor(row.Status),
		edge:       borderRune(row.Status),
		badge:      badge,
		badgeStyle: badgeStyle,
		url:        rowURL(row, r.baseURL),
		running:    row.Status == model.StatusRunning,
	}
	switch row.Type {
	case engine.RowJob:
		j := row.Job
		p.label = j.Name
		p.edgeStyle = lipgloss.NewStyle().Foreground(outlineColor(j.Status, j.AllowFailure))
		// Runner color when a runner is known, else project color. Manual
		// and skipped jobs stay neutral regardless of runner.
		if p.shape == shapeBar {
			if j.Runner != nil && j.Runner.Name != "" {
				p.fill = r.palette.Runner(j.Runner.Name)
			} else {
				p.fill = r.palette.Project(j.ProjectPath)
			}
		} else {
			p.fill = colorNeutral
		}
	default:
		pl := row.Pipeline
		p.label = fmt.Sprintf("%s @%s", pl.Ref, util.ShortSHA(pl.SHA))
		p.edgeStyle = lipgloss.NewStyle().Foreground(outlineColor(pl.Status, false))
		if p.shape == shapeBar {
			p.fill = r.palette.Project(pl.ProjectPath)
		} else {
			p.fill = colorNeutral
		}
	}
	if p.shape == shapeSolid {
		p.fill = colorBlack
	}
	return p
}

// rowURL builds the click-through target, preferring the API-provided web
// URL and falling back to base-URL construction.
func rowURL(row engine.Row, baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if row.Type == engine.RowJob {
		if row.Job.WebURL != "" {
			return row.Job.WebURL
		}
		return fmt.Sprintf("%s/%s/-/jobs/%d", base, row.Job.ProjectPath, row.Job.ID)
	}
	if row.Pipeline.WebURL != "" {
		return row.Pipeline.WebURL
	}
	return fmt.Sprintf("%s/%s/-/pipelines/%d", base, row.Pipeline.ProjectPath, row.Pipeline.ID)
}

func (r *Renderer) emptyFrame() string {
	return dimStyle.Render("  no pipelines to display")
}

// visible reports the canvas row for a row index, or -1 when scrolled out.
func (r *Renderer) visible(index int) int {
	y := 1 + r.band.Y(index) - r.Scroll
	if y < 1 || y >= 1+r.chartRows() {
		return -1
	}
	return y
}

// chartX converts a time to a canvas x cell inside the chart region.
func (r *Renderer) chartX(t time.Time) int {
	return gutterWidth + 1 + int(math.Round(r.ts.X(t)))
}

// draw paints every layer back to front; the fixed order is what guarantees
// deterministic z-stacking.
func (r *Renderer) draw(now time.Time) {
	if len(r.rows) == 0 || r.ts == nil {
		r.frame = r.emptyFrame()
		return
	}
	c := NewCanvas(r.width, 1+r.chartRows())
	r.geoms = make(map[int]barGeom, len(r.rows))
	r.boxes = make(map[int]boxGeom)

	r.drawGrid(c)
	r.drawContention(c)
	r.drawGroupBoxes(c)
	r.drawArrows(c)
	r.drawBars(c)
	r.drawStripes(c)
	r.drawNowMarker(c, now)
	r.drawAxis(c)
	r.drawGutter(c)
	r.drawTooltip(c, now)

	r.frame = c.String()
}

// tickStep picks a grid interval yielding a handful of ticks across the
// visible span.
func tickStep(span time.Duration) time.Duration {
	steps := []time.Duration{
		30 * time.Second, time.Minute, 2 * time.Minute, 5 * time.Minute,
		10 * time.Minute, 15 * time.Minute, 30 * time.Minute, time.Hour,
		3 * time.Hour, 6 * time.Hour, 12 * time.Hour, 24 * time.Hour,
	}
	for _, s := range steps {
		if span/s <= 8 {
			return s
		}
	}
	return 48 * time.Hour
}

// visibleSpan returns the times at the chart's left and right edges.
func (r *Renderer) visibleSpan() (time.Time, time.Time) {
	return r.ts.TimeAt(0), r.ts.TimeAt(r.ts.Width())
}

func (r *Renderer) drawGrid(c *Canvas) {
	left, right := r.visibleSpan()
	step := tickStep(right.Sub(left))
	for t := left.Truncate(step); !t.After(right); t = t.Add(step) {
		x := r.chartX(t)
		if x <= gutterWidth {
			continue
		}
		for y := 1; y <= r.chartRows(); y++ {
			c.Set(x, y, '·', dimStyle)
		}
	}
}

func (r *Renderer) drawContention(c *Canvas) {
	for _, iv := range r.intervals {
		x0, x1 := r.chartX(iv.Start), r.chartX(iv.End)
		if x1 < gutterWidth+1 || x0 >= r.width {
			continue
		}
		if x0 <= gutterWidth {
			x0 = gutterWidth + 1
		}
		bg := contentionBG[string(iv.Level)]
		for y := 1; y <= r.chartRows(); y++ {
			c.FillBG(x0, x1, y, bg)
		}
	}
}

// drawGroupBoxes renders a dashed box over the union job extent of each
// expanded pipeline: top rail on the (suppressed) pipeline row, side rails
// along the job rows. Clicking anywhere on the box opens the pipeline.
func (r *Renderer) drawGroupBoxes(c *Canvas) {
	for i := 0; i < len(r.rows); i++ {
		row := r.rows[i]
		if row.Type != engine.RowPipeline || !row.Expanded || len(row.Pipeline.Jobs) == 0 {
			continue
		}
		// Union time extent over the pipeline's jobs.
		jobs := row.Pipeline.Jobs
		min, max := jobs[0].Start, jobs[0].End
		for _, j := range jobs[1:] {
			if j.Start.Before(min) {
				min = j.Start
			}
			if j.End.After(max) {
				max = j.End
			}
		}
		x0, x1 := r.chartX(min), r.chartX(max)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		lastJob := i + len(jobs)
		r.boxes[row.Pipeline.ID] = boxGeom{x0: x0, x1: x1, yTop: i, yBot: lastJob}

		style := r.boxStyle(row.Pipeline)
		if y := r.visible(i); y >= 0 {
			cx0, cx1 := clampChart(x0, r.width), clampChart(x1, r.width)
			c.Set(cx0, y, '╭', style)
			c.HLine(cx0+1, cx1-1, y, '╌', style)
			c.Set(cx1, y, '╮', style)
		}
		for ji := i + 1; ji <= lastJob && ji < len(r.rows); ji++ {
			if y := r.visible(ji); y >= 0 {
				if x0 > gutterWidth {
					c.Set(x0, y, '┆', style)
				}
				if x1 < r.width {
					c.Set(x1, y, '┆', style)
				}
			}
		}
	}
}

// boxStyle brightens the group box rails while the pointer is over the box.
func (r *Renderer) boxStyle(p *model.Pipeline) lipgloss.Style {
	if r.hoverRow != nil && r.hoverRow.Type == engine.RowPipeline && r.hoverRow.Pipeline.ID == p.ID {
		return groupBoxHoverStyle
	}
	return groupBoxStyle
}

func clampChart(x, width int) int {
	if x < gutterWidth+1 {
		return gutterWidth + 1
	}
	if x >= width {
		return width - 1
	}
	return x
}

// drawArrows connects parent pipelines to the child pipelines they
// triggered: a connector from the parent bar's left edge to the child bar's
// left edge, routed through a vertical rail left of both when rows differ.
func (r *Renderer) drawArrows(c *Canvas) {
	for _, row := range r.rows {
		if row.Type != engine.RowPipeline || len(row.Pipeline.Children) == 0 {
			continue
		}
		px := r.chartX(row.Start)
		for _, child := range row.Pipeline.Children {
			ci, ok := r.rowOfPipe[child.PipelineID]
			if !ok {
				continue // child pipeline not in the current data set
			}
			cx := r.chartX(r.rows[ci].Start)
			py, cy := r.visible(row.Index), r.visible(ci)
			if py < 0 && cy < 0 {
				continue
			}
			if py == cy && py >= 0 {
				c.Set(cx-1, cy, '▶', arrowStyle)
				continue
			}
			rail := px
			if cx < rail {
				rail = cx
			}
			rail -= 2
			if rail <= gutterWidth {
				rail = gutterWidth + 1
			}
			top, bot := py, cy
			downward := true
			if cy >= 0 && (py < 0 || cy < py) {
				top, bot = cy, py
				downward = false
			}
			if py >= 0 {
				start, end := rail+1, px-1
				if end >= start {
					c.HLine(start, end, py, '─', arrowStyle)
				}
				if downward {
					c.Set(rail, py, '╭', arrowStyle)
				} else {
					c.Set(rail, py, '╰', arrowStyle)
				}
			}
			y0, y1 := top+1, bot-1
			if top < 0 {
				y0 = 1
			}
			if bot < 0 {
				y1 = r.chartRows()
			}
			for y := y0; y <= y1; y++ {
				c.Set(rail, y, '│', arrowStyle)
			}
			if cy >= 0 {
				if downward {
					c.Set(rail, cy, '╰', arrowStyle)
				} else {
					c.Set(rail, cy, '╭', arrowStyle)
				}
				if cx-2 > rail {
					c.HLine(rail+1, cx-2, cy, '─', arrowStyle)
				}
				c.Set(cx-1, cy, '▶', arrowStyle)
			}
		}
	}
}

func (r *Renderer) drawBars(c *Canvas) {
	for _, row := range r.rows {
		prim := r.prims[row.Key()]
		if prim == nil || prim.suppressed {
			continue
		}
		y := r.visible(row.Index)
		x0 := r.chartX(row.Start)
		x1 := r.chartX(row.End)
		if x1-x0+1 < minBarCells {
			x1 = x0 + minBarCells - 1
		}
		r.geoms[row.Index] = barGeom{x0: x0, x1: x1, y: y}
		if y < 0 || x1 <= gutterWidth || x0 >= r.width {
			continue
		}
		cx0, cx1 := clampChart(x0, r.width), clampChart(x1, r.width)

		switch prim.shape {
		case shapePill:
			// Light-shade fill lets the backdrop show through: the
			// terminal reading of reduced opacity.
			pillStyle := lipgloss.NewStyle().Foreground(prim.fill)
			c.Set(cx0, y, '(', pillStyle)
			c.HLine(cx0+1, cx1-1, y, '░', pillStyle)
			c.Set(cx1, y, ')', pillStyle)
		case shapeSolid:
			for x := cx0; x <= cx1; x++ {
				c.SetBG(x, y, colorBlack)
				c.Set(x, y, ' ', lipgloss.NewStyle())
			}
			c.Set(cx0, y, prim.edge, prim.edgeStyle)
			c.Set(cx1, y, prim.edge, prim.edgeStyle)
		default:
			for x := cx0; x <= cx1; x++ {
				c.SetBG(x, y, prim.fill)
				c.Set(x, y, ' ', lipgloss.NewStyle())
			}
			c.Set(cx0, y, prim.edge, prim.edgeStyle)
			c.Set(cx1, y, prim.edge, prim.edgeStyle)
			// Label only when the interior is wide enough; width
			// measurement is memoized, truncation appends an ellipsis.
			interior := cx1 - cx0 - 1
			if interior >= minLabelWidth {
				label := r.measure.Fit(prim.label, interior)
				if label != "" {
					style := lipgloss.NewStyle().Foreground(colorBlack)
					c.Text(cx0+1, y, label, style)
				}
			}
		}
	}
}

// drawStripes overlays the animated diagonal pattern on running bars. The
// pattern offset comes from the stripe phase (wall-clock derived), so it
// moves at constant speed regardless of how often frames are drawn.
func (r *Renderer) drawStripes(c *Canvas) {
	for _, row := range r.rows {
		prim := r.prims[row.Key()]
		if prim == nil || prim.suppressed || !prim.running || prim.shape != shapeBar {
			continue
		}
		g, ok := r.geoms[row.Index]
		if !ok || g.y < 0 {
			continue
		}
		cx0, cx1 := clampChart(g.x0, r.width), clampChart(g.x1, r.width)
		stripe := lipgloss.NewStyle().Foreground(colorWhite)
		for x := cx0 + 1; x < cx1; x++ {
			if (x+r.stripePhase)%4 == 0 {
				c.Set(x, g.y, '▞', stripe)
			}
		}
	}
}

func (r *Renderer) drawNowMarker(c *Canvas, now time.Time) {
	x := r.chartX(now)
	if x <= gutterWidth || x >= r.width {
		return
	}
	c.Set(x, 0, '▼', nowStyle)
	for y := 1; y <= r.chartRows(); y++ {
		c.Set(x, y, '┆', nowStyle)
	}
}

func (r *Renderer) drawAxis(c *Canvas) {
	left, right := r.visibleSpan()
	step := tickStep(right.Sub(left))
	format := "15:04"
	if step >= 24*time.Hour {
		format = "Jan 2"
	} else if step >= time.Hour {
		format = "Jan 2 15:04"
	}
	c.HLine(gutterWidth+1, r.width-1, 0, '─', dimStyle)
	for t := left.Truncate(step); !t.After(right); t = t.Add(step) {
		x := r.chartX(t)
		if x <= gutterWidth || x >= r.width {
			continue
		}
		c.Set(x, 0, '┬', dimStyle)
		c.Text(x+1, 0, t.Format(format), dimStyle)
	}
}

// drawGutter renders the fixed row-label region: avatar badge, expand
// indicator, and label. The gutter lives in its own coordinate layer: it
// scrolls vertically with the rows but never pans with the time axis.
func (r *Renderer) drawGutter(c *Canvas) {
	c.Text(0, 0, "PIPELINES", headerStyle)
	for _, row := range r.rows {
		y := r.visible(row.Index)
		if y < 0 {
			continue
		}
		prim := r.prims[row.Key()]
		if prim == nil {
			continue
		}
		labelStyle := valueStyle
		if row.Index == r.Cursor {
			labelStyle = selectedStyle
		}
		x := 0
		x = c.Text(x, y, prim.badge, prim.badgeStyle)
		x = c.Text(x, y, " ", dimStyle)
		if row.Type == engine.RowPipeline {
			ind := "▸"
			if row.Expanded {
				ind = "▾"
			}
			x = c.Text(x, y, ind, dimStyle)
			x = c.Text(x, y, " ", dimStyle)
			label := r.measure.Fit(fmt.Sprintf("%s %s", row.Pipeline.ProjectPath, prim.label), gutterWidth-x)
			c.Text(x, y, label, labelStyle)
		} else {
			x = c.Text(x, y, "  · ", dimStyle)
			label := r.measure.Fit(row.Label, gutterWidth-x)
			c.Text(x, y, label, labelStyle)
		}
		c.Set(gutterWidth, y, '│', dimStyle)
	}
	c.Set(gutterWidth, 0, '│', dimStyle)
}

// SetHover sets (or clears, with nil) the row whose tooltip is drawn and the
// cell the pointer sits on.
func (r *Renderer) SetHover(row *engine.Row, x, y int) {
	r.hoverRow = row
	r.hoverX, r.hoverY = x, y
}

// drawTooltip paints the hover detail box near the pointer, flipped away from
// viewport edges so it never clips.
func (r *Renderer) drawTooltip(c *Canvas, now time.Time) {
	if r.hoverRow == nil {
		return
	}
	lines := tooltipLines(*r.hoverRow, now)
	inner := 0
	for _, l := range lines {
		if w := r.measure.Width(l); w > inner {
			inner = w
		}
	}
	boxW, boxH := inner+4, len(lines)+2
	x0, y0 := placeTooltip(r.hoverX, r.hoverY, boxW, boxH, c.Width(), c.Height())
	x1, y1 := x0+boxW-1, y0+boxH-1

	for y := y0 + 1; y < y1; y++ {
		for x := x0 + 1; x < x1; x++ {
			c.SetBG(x, y, lipgloss.Color("#282A36"))
			c.Set(x, y, ' ', valueStyle)
		}
	}
	c.Set(x0, y0, '╭', dimStyle)
	c.HLine(x0+1, x1-1, y0, '─', dimStyle)
	c.Set(x1, y0, '╮', dimStyle)
	c.Set(x0, y1, '╰', dimStyle)
	c.HLine(x0+1, x1-1, y1, '─', dimStyle)
	c.Set(x1, y1, '╯', dimStyle)
	for y := y0 + 1; y < y1; y++ {
		c.Set(x0, y, '│', dimStyle)
		c.Set(x1, y, '│', dimStyle)
	}
	for i, l := range lines {
		c.Text(x0+2, y0+1+i, l, valueStyle)
	}
}

// HitTest resolves a canvas cell to the row and zone under it.
func (r *Renderer) HitTest(x, y int) (engine.Row, hitZone, bool) {
	if r.band == nil || y < 1 {
		return engine.Row{}, hitNone, false
	}
	idx := r.band.RowAt(y - 1 + r.Scroll)
	if idx < 0 || idx >= len(r.rows) {
		return engine.Row{}, hitNone, false
	}
	row := r.rows[idx]
	if x <= gutterWidth {
		return row, hitGutter, true
	}
	// Bars sit above the group box, so they keep click precedence.
	if g, ok := r.geoms[idx]; ok && x >= g.x0 && x <= g.x1 {
		return row, hitBar, true
	}
	// Anywhere else inside the box bounds (top rail or interior) acts on
	// the owning pipeline row.
	if box, ok := r.boxes[row.Pipeline.ID]; ok {
		if idx >= box.yTop && idx <= box.yBot && x >= box.x0 && x <= box.x1 {
			return r.rows[box.yTop], hitGroupBox, true
		}
	}
	return row, hitNone, true
}

// MaxScroll returns the largest useful scroll offset.
func (r *Renderer) MaxScroll() int {
	m := len(r.rows) - r.chartRows()
	if m < 0 {
		return 0
	}
	return m
}
