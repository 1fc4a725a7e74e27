package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Canvas is a layered cell buffer. Layers are painted back to front with
// plain overwrites, so paint order alone determines z-stacking. Foreground
// (rune + style) and background (cell color) are independent planes: a bar
// painted over the contention backdrop keeps the backdrop's background
// color under its glyphs.
type Canvas struct {
	w, h  int
	runes [][]rune
	fg    [][]lipgloss.Style
	hasFG [][]bool
	bg    [][]lipgloss.Color
	hasBG [][]bool
}

func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &Canvas{w: w, h: h}
	c.runes = make([][]rune, h)
	c.fg = make([][]lipgloss.Style, h)
	c.hasFG = make([][]bool, h)
	c.bg = make([][]lipgloss.Color, h)
	c.hasBG = make([][]bool, h)
	for y := 0; y < h; y++ {
		c.runes[y] = make([]rune, w)
		c.fg[y] = make([]lipgloss.Style, w)
		c.hasFG[y] = make([]bool, w)
		c.bg[y] = make([]lipgloss.Color, w)
		c.hasBG[y] = make([]bool, w)
		for x := 0; x < w; x++ {
			c.runes[y][x] = ' '
		}
	}
	return c
}

func (c *Canvas) Width() int  { return c.w }
func (c *Canvas) Height() int { return c.h }

// Set paints one foreground cell. Out-of-bounds writes are clipped silently;
// callers draw in chart coordinates and rely on the canvas for clipping.
func (c *Canvas) Set(x, y int, r rune, style lipgloss.Style) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.runes[y][x] = r
	c.fg[y][x] = style
	c.hasFG[y][x] = true
}

// SetBG paints one background cell without touching the foreground.
func (c *Canvas) SetBG(x, y int, color lipgloss.Color) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.bg[y][x] = color
	c.hasBG[y][x] = true
}

// FillBG paints a background span on one row.
func (c *Canvas) FillBG(x0, x1, y int, color lipgloss.Color) {
	for x := x0; x <= x1; x++ {
		c.SetBG(x, y, color)
	}
}

// HLine draws a horizontal run of the same rune.
func (c *Canvas) HLine(x0, x1, y int, r rune, style lipgloss.Style) {
	for x := x0; x <= x1; x++ {
		c.Set(x, y, r, style)
	}
}

// VLine draws a vertical run of the same rune.
func (c *Canvas) VLine(x, y0, y1 int, r rune, style lipgloss.Style) {
	for y := y0; y <= y1; y++ {
		c.Set(x, y, r, style)
	}
}

// Text writes a string starting at (x, y), clipped at the canvas edge.
// Returns the x cell after the last written rune.
func (c *Canvas) Text(x, y int, s string, style lipgloss.Style) int {
	for _, r := range s {
		c.Set(x, y, r, style)
		x++
	}
	return x
}

// RuneAt reports the foreground rune at a cell (space for empty/out of
// bounds). Used by tests and hit diagnostics.
func (c *Canvas) RuneAt(x, y int) rune {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return ' '
	}
	return c.runes[y][x]
}

// BGAt reports the background color and whether one was set.
func (c *Canvas) BGAt(x, y int) (lipgloss.Color, bool) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return "", false
	}
	return c.bg[y][x], c.hasBG[y][x]
}

// String composes the final frame, applying background colors beneath the
// foreground styles.
func (c *Canvas) String() string {
	var sb strings.Builder
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			r := c.runes[y][x]
			switch {
			case c.hasFG[y][x] && c.hasBG[y][x]:
				sb.WriteString(c.fg[y][x].Background(c.bg[y][x]).Render(string(r)))
			case c.hasFG[y][x]:
				sb.WriteString(c.fg[y][x].Render(string(r)))
			case c.hasBG[y][x]:
				sb.WriteString(lipgloss.NewStyle().Background(c.bg[y][x]).Render(string(r)))
			default:
				sb.WriteRune(r)
			}
		}
		if y < c.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// PlainString composes the frame without any styling. Tests assert against
// this form.
func (c *Canvas) PlainString() string {
	var sb strings.Builder
	for y := 0; y < c.h; y++ {
		sb.WriteString(string(c.runes[y]))
		if y < c.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
