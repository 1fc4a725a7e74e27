package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pipetop/config"
	"pipetop/engine"
	"pipetop/model"
	"pipetop/util"
)

const (
	fetchTimeout   = 30 * time.Second
	stripeInterval = 250 * time.Millisecond
	panStep        = 4.0
	zoomStep       = 1.25
)

// Source provides pipeline data. The GitLab client implements it; tests
// substitute a fixture.
type Source interface {
	Fetch(ctx context.Context) ([]model.PipelineGroup, error)
}

type dataMsg struct {
	groups []model.PipelineGroup
	err    error
}

type refreshTickMsg time.Time
type stripeTickMsg time.Time

// frameMsg carries the sequence number of the gesture that requested it.
// Stale frames (older seq) are dropped so a burst of wheel events collapses
// into one redraw of the newest transform.
type frameMsg struct{ seq int }

// Model is the interaction controller: it owns session UI state (expansion,
// zoom, cursor, hover), routes input to the renderer, and coalesces redraws.
type Model struct {
	cfg      config.Config
	source   Source
	renderer *Renderer
	expanded *engine.ExpandedSet

	groups    []model.PipelineGroup
	rows      []engine.Row
	intervals []engine.ContentionInterval

	width, height int
	ready         bool
	firstLoad     bool
	paused        bool
	showHelp      bool
	loading       bool

	dragging  bool
	dragX     int
	dragMoved bool

	frameSeq int

	// announcement is the live status text: last action, last error, or the
	// current hover summary. Always reflects the most recent state change.
	announcement string
	fetchedAt    time.Time
	err          error
}

func NewModel(cfg config.Config, src Source) Model {
	return Model{
		cfg:       cfg,
		source:    src,
		renderer:  NewRenderer(cfg.GitLabBaseURL),
		expanded:  engine.NewExpandedSet(),
		firstLoad: true,
		loading:   true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchCmd(),
		tea.Tick(m.cfg.RefreshInterval(), func(t time.Time) tea.Msg { return refreshTickMsg(t) }),
		tea.Tick(stripeInterval, func(t time.Time) tea.Msg { return stripeTickMsg(t) }),
	)
}

func (m Model) fetchCmd() tea.Cmd {
	src := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		groups, err := src.Fetch(ctx)
		return dataMsg{groups: groups, err: err}
	}
}

// requestFrame bumps the sequence and schedules a coalesced redraw.
func (m *Model) requestFrame() tea.Cmd {
	m.frameSeq++
	seq := m.frameSeq
	return func() tea.Msg { return frameMsg{seq: seq} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.renderer.SetViewport(msg.Width, msg.Height-1)
		m.ready = true
		m.rebuild(time.Now())
		return m, nil

	case dataMsg:
		return m.handleData(msg)

	case refreshTickMsg:
		cmd := tea.Tick(m.cfg.RefreshInterval(), func(t time.Time) tea.Msg { return refreshTickMsg(t) })
		if m.paused {
			return m, cmd
		}
		m.loading = true
		return m, tea.Batch(cmd, m.fetchCmd())

	case stripeTickMsg:
		cmd := tea.Tick(stripeInterval, func(t time.Time) tea.Msg { return stripeTickMsg(t) })
		if m.hasRunning() {
			// Phase comes from wall-clock time, so stripe speed is
			// independent of the tick cadence.
			now := time.Time(msg)
			m.renderer.SetStripePhase(int(now.UnixMilli()/int64(stripeInterval/time.Millisecond)) % 4)
			m.renderer.RenderFast(now)
		}
		return m, cmd

	case frameMsg:
		if msg.seq != m.frameSeq {
			return m, nil // superseded by a newer gesture
		}
		m.renderer.RenderFast(time.Now())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleData(msg dataMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		// Keep showing the last good data; the failure goes to the status
		// line, not the screen.
		m.err = msg.err
		m.announcement = fmt.Sprintf("refresh failed: %v", msg.err)
		log.Printf("pipetop: fetch: %v", msg.err)
		return m, nil
	}
	m.err = nil
	m.fetchedAt = time.Now()

	now := m.fetchedAt
	model.DeriveAll(msg.groups, m.cfg.PipelinePendingWindow(), m.cfg.JobPendingWindow(), now)
	m.groups = msg.groups

	if m.firstLoad {
		m.firstLoad = false
		engine.AutoExpand(m.groups, m.expanded, m.cfg.AutoExpandCount)
		m.rebuild(now)
		if from, ok := m.cfg.InitialViewport(); ok {
			if ts := m.renderer.Scale(); ts != nil {
				ts.Rescale(ts.WindowTransform(from, now))
				m.renderer.RenderFast(now)
			}
		}
		m.announcement = fmt.Sprintf("loaded %d pipelines", m.pipelineCount())
		return m, nil
	}

	m.rebuild(now)
	m.announcement = fmt.Sprintf("refreshed at %s", now.Format("15:04:05"))
	return m, nil
}

// rebuild recomputes rows and contention and runs the full structural render.
// The zoom transform and expansion state survive untouched.
func (m *Model) rebuild(now time.Time) {
	if !m.ready || m.groups == nil {
		return
	}
	m.rows = engine.Flatten(m.groups, m.expanded)
	m.intervals = engine.Contention(m.allPipelines(), engine.ThresholdsForPool(m.cfg.RunnerPoolSize))
	if m.renderer.Cursor >= len(m.rows) {
		m.renderer.Cursor = len(m.rows) - 1
	}
	if m.renderer.Cursor < 0 {
		m.renderer.Cursor = 0
	}
	// A shrinking row list (collapse-all) must not strand the viewport
	// below the last row.
	if max := m.renderer.MaxScroll(); m.renderer.Scroll > max {
		m.renderer.Scroll = max
	}
	m.renderer.Render(m.rows, m.intervals, now)
}

func (m *Model) allPipelines() []model.Pipeline {
	var out []model.Pipeline
	for _, g := range m.groups {
		out = append(out, g.Pipelines...)
	}
	return out
}

func (m *Model) pipelineCount() int {
	n := 0
	for _, g := range m.groups {
		n += len(g.Pipelines)
	}
	return n
}

func (m *Model) hasRunning() bool {
	for _, r := range m.rows {
		if r.Status == model.StatusRunning {
			return true
		}
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "g":
		m.renderer.Cursor = 0
		m.renderer.Scroll = 0
		m.renderer.RenderFast(time.Now())
		return m, nil
	case "G":
		if len(m.rows) == 0 {
			return m, nil
		}
		m.renderer.Cursor = len(m.rows) - 1
		m.renderer.Scroll = m.renderer.MaxScroll()
		m.renderer.RenderFast(time.Now())
		return m, nil

	case "enter", " ":
		return m.activateCursor()

	case "a":
		m.expanded.Reset()
		m.announcement = "collapsed all pipelines"
		m.rebuild(time.Now())
		return m, nil

	case "+", "=":
		return m.zoomBy(zoomStep, m.chartCenter())
	case "-", "_":
		return m.zoomBy(1/zoomStep, m.chartCenter())
	case "0":
		if ts := m.renderer.Scale(); ts != nil {
			ts.Rescale(engine.Identity())
			m.announcement = "view reset"
			return m, m.requestFrame()
		}
		return m, nil

	case "h", "left":
		return m.panBy(panStep)
	case "l", "right":
		return m.panBy(-panStep)

	case "p":
		m.paused = !m.paused
		if m.paused {
			m.announcement = "auto-refresh paused"
		} else {
			m.announcement = "auto-refresh resumed"
		}
		return m, nil

	case "r":
		m.loading = true
		m.announcement = "refreshing…"
		return m, m.fetchCmd()
	}
	return m, nil
}

func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if len(m.rows) == 0 {
		return m, nil
	}
	c := m.renderer.Cursor + delta
	if c < 0 {
		c = 0
	}
	if c >= len(m.rows) {
		c = len(m.rows) - 1
	}
	m.renderer.Cursor = c
	// Keep the cursor row on screen.
	if c < m.renderer.Scroll {
		m.renderer.Scroll = c
	}
	if vis := m.height - 2; vis > 0 && c >= m.renderer.Scroll+vis {
		m.renderer.Scroll = c - vis + 1
	}
	m.renderer.RenderFast(time.Now())
	return m, nil
}

// activateCursor is the keyboard click: toggle on a pipeline row, open the
// job page on a job row.
func (m Model) activateCursor() (tea.Model, tea.Cmd) {
	if m.renderer.Cursor < 0 || m.renderer.Cursor >= len(m.rows) {
		return m, nil
	}
	row := m.rows[m.renderer.Cursor]
	if row.Type == engine.RowPipeline {
		return m.togglePipeline(row)
	}
	return m.openRow(row)
}

func (m Model) togglePipeline(row engine.Row) (tea.Model, tea.Cmd) {
	if m.expanded.Toggle(row.Pipeline.ID) {
		m.announcement = fmt.Sprintf("expanded pipeline #%d (%d jobs)", row.Pipeline.ID, len(row.Pipeline.Jobs))
	} else {
		m.announcement = fmt.Sprintf("collapsed pipeline #%d", row.Pipeline.ID)
	}
	m.rebuild(time.Now())
	return m, nil
}

func (m Model) openRow(row engine.Row) (tea.Model, tea.Cmd) {
	url := rowURL(row, m.cfg.GitLabBaseURL)
	if err := util.OpenBrowser(url); err != nil {
		m.announcement = fmt.Sprintf("open failed: %v", err)
		log.Printf("pipetop: %v", err)
		return m, nil
	}
	if row.Type == engine.RowJob {
		m.announcement = fmt.Sprintf("opened job #%d", row.Job.ID)
	} else {
		m.announcement = fmt.Sprintf("opened pipeline #%d", row.Pipeline.ID)
	}
	return m, nil
}

func (m Model) zoomBy(factor, pivot float64) (tea.Model, tea.Cmd) {
	ts := m.renderer.Scale()
	if ts == nil {
		return m, nil
	}
	t := ts.Transform().ScaledBy(factor, pivot).ClampPan(ts.Width())
	ts.Rescale(t)
	m.announcement = fmt.Sprintf("zoom %.0f%%", t.K*100)
	return m, m.requestFrame()
}

func (m Model) panBy(dx float64) (tea.Model, tea.Cmd) {
	ts := m.renderer.Scale()
	if ts == nil {
		return m, nil
	}
	ts.Rescale(ts.Transform().TranslatedBy(dx).ClampPan(ts.Width()))
	return m, m.requestFrame()
}

// chartCenter is the default zoom pivot in chart coordinates.
func (m Model) chartCenter() float64 {
	if ts := m.renderer.Scale(); ts != nil {
		return ts.Width() / 2
	}
	return 0
}

// chartPivot converts a canvas x cell to a chart-space pivot.
func chartPivot(x int) float64 {
	p := float64(x - gutterWidth - 1)
	if p < 0 {
		p = 0
	}
	return p
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m.zoomBy(zoomStep, chartPivot(msg.X))
	case tea.MouseButtonWheelDown:
		return m.zoomBy(1/zoomStep, chartPivot(msg.X))
	case tea.MouseButtonWheelLeft:
		return m.panBy(panStep)
	case tea.MouseButtonWheelRight:
		return m.panBy(-panStep)
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.dragging = true
			m.dragX = msg.X
			m.dragMoved = false
		}
		return m, nil

	case tea.MouseActionMotion:
		if m.dragging {
			dx := msg.X - m.dragX
			if dx != 0 {
				m.dragX = msg.X
				m.dragMoved = true
				return m.panBy(float64(dx))
			}
			return m, nil
		}
		return m.hoverAt(msg.X, msg.Y)

	case tea.MouseActionRelease:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		if m.dragMoved {
			return m, nil // a drag is a pan, not a click
		}
		return m.clickAt(msg.X, msg.Y)
	}
	return m, nil
}

func (m Model) hoverAt(x, y int) (tea.Model, tea.Cmd) {
	row, zone, ok := m.renderer.HitTest(x, y)
	if ok && (zone == hitBar || zone == hitGroupBox) {
		m.renderer.SetHover(&row, x, y)
	} else {
		m.renderer.SetHover(nil, 0, 0)
	}
	return m, m.requestFrame()
}

// clickAt dispatches a click by hit zone: gutter toggles a pipeline's
// expansion, a bar or group box opens the row in the browser.
func (m Model) clickAt(x, y int) (tea.Model, tea.Cmd) {
	row, zone, ok := m.renderer.HitTest(x, y)
	if !ok {
		return m, nil
	}
	m.renderer.Cursor = row.Index
	switch zone {
	case hitGutter:
		if row.Type == engine.RowPipeline {
			return m.togglePipeline(row)
		}
		m.renderer.RenderFast(time.Now())
		return m, nil
	case hitBar, hitGroupBox:
		return m.openRow(row)
	}
	m.renderer.RenderFast(time.Now())
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "initializing…"
	}
	if m.showHelp {
		return m.helpView()
	}
	return m.renderer.View() + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	left := m.announcement
	if left == "" {
		left = fmt.Sprintf("%d pipelines · %d contention intervals", m.pipelineCount(), len(m.intervals))
	}
	var parts []string
	if m.err != nil {
		parts = append(parts, critStyle.Render("ERR"))
	}
	if m.loading {
		parts = append(parts, warnStyle.Render("⟳"))
	}
	if m.paused {
		parts = append(parts, warnStyle.Render("paused"))
	}
	if ts := m.renderer.Scale(); ts != nil {
		parts = append(parts, fmt.Sprintf("%.0f%%", ts.Transform().K*100))
	}
	if !m.fetchedAt.IsZero() {
		parts = append(parts, m.fetchedAt.Format("15:04:05"))
	}
	parts = append(parts, "? help")
	right := strings.Join(parts, " · ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return helpStyle.Render(left) + strings.Repeat(" ", gap) + helpStyle.Render(right)
}

func (m Model) helpView() string {
	rows := [][2]string{
		{"j/k, ↓/↑", "move cursor"},
		{"g / G", "first / last row"},
		{"enter, space", "expand pipeline / open job"},
		{"a", "collapse all"},
		{"+ / -", "zoom in / out"},
		{"h/l, ←/→", "pan"},
		{"0", "reset view"},
		{"wheel", "zoom at pointer"},
		{"drag", "pan"},
		{"click", "toggle (labels) / open (bars)"},
		{"p", "pause auto-refresh"},
		{"r", "refresh now"},
		{"q", "quit"},
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("pipetop keys"))
	sb.WriteString("\n\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			okStyle.Render(fmt.Sprintf("%-14s", r[0])),
			valueStyle.Render(r[1])))
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("  press any key to close"))
	return sb.String()
}
