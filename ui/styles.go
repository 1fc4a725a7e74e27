package ui

import (
	"github.com/charmbracelet/lipgloss"

	"pipetop/model"
)

var (
	// Colors
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorOrange = lipgloss.Color("#FFB86C")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorGray   = lipgloss.Color("#6272A4")
	colorBlack  = lipgloss.Color("#000000")

	// Neutral gray for unexecuted items and unknown names.
	colorNeutral = lipgloss.Color("#777777")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle     = lipgloss.NewStyle().Foreground(colorGray)
	valueStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	okStyle       = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle     = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#44475A")).Foreground(colorWhite)
	nowStyle      = lipgloss.NewStyle().Foreground(colorRed)

	groupBoxStyle      = lipgloss.NewStyle().Foreground(colorGray)
	groupBoxHoverStyle = lipgloss.NewStyle().Foreground(colorCyan)
	arrowStyle         = lipgloss.NewStyle().Foreground(colorOrange)
)

// Contention backdrop shades, darkest for critical pressure.
var contentionBG = map[string]lipgloss.Color{
	"low":      lipgloss.Color("#2B2B40"),
	"medium":   lipgloss.Color("#3D3050"),
	"high":     lipgloss.Color("#55283A"),
	"critical": lipgloss.Color("#6E1F2D"),
}

// barShape is the visual class of a bar.
type barShape int

const (
	shapeBar  barShape = iota // rounded rectangle: executed or executing work
	shapePill                 // pill at reduced opacity: manual/skipped/pending
	shapeSolid                // solid black: canceled
)

// shapeFor maps a status to its shape per the encoding rules: unexecuted
// (manual/skipped) and pending render as pills, canceled renders solid.
func shapeFor(s model.Status) barShape {
	switch {
	case s.Unexecuted(), s == model.StatusPending, s == model.StatusCreated:
		return shapePill
	case s == model.StatusCanceled:
		return shapeSolid
	default:
		return shapeBar
	}
}

// borderRune returns the edge glyph encoding the status border dash style:
// solid/success, dashed/failed, dotted/running, long-dash/pending,
// dash-dot/canceled.
func borderRune(s model.Status) rune {
	switch s {
	case model.StatusFailed:
		return '┊'
	case model.StatusRunning:
		return '┆'
	case model.StatusPending, model.StatusCreated:
		return '╎'
	case model.StatusCanceled:
		return '¦'
	default:
		return '│'
	}
}

// outlineColor returns the status outline color. A failed job that is allowed
// to fail outlines yellow instead of red.
func outlineColor(s model.Status, allowFailure bool) lipgloss.Color {
	switch s {
	case model.StatusSuccess:
		return colorGreen
	case model.StatusFailed:
		if allowFailure {
			return colorYellow
		}
		return colorRed
	case model.StatusCanceled:
		return colorBlack
	default:
		return colorGray
	}
}
