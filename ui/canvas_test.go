package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestCanvasPaintOrder(t *testing.T) {
	c := NewCanvas(10, 3)
	c.HLine(0, 9, 1, '-', dimStyle)
	c.Set(4, 1, 'X', valueStyle)

	assert.Equal(t, 'X', c.RuneAt(4, 1), "later writes overpaint earlier ones")
	assert.Equal(t, '-', c.RuneAt(3, 1))
}

func TestCanvasClipsOutOfBounds(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(-1, 0, 'a', valueStyle)
	c.Set(4, 0, 'b', valueStyle)
	c.Set(0, 2, 'c', valueStyle)
	c.Text(2, 0, "long text", valueStyle)

	assert.Equal(t, "  lo\n    ", c.PlainString())
}

func TestCanvasBackgroundPlaneIndependent(t *testing.T) {
	c := NewCanvas(5, 1)
	c.FillBG(0, 4, 0, lipgloss.Color("#112233"))
	c.Set(2, 0, '│', valueStyle)

	bg, ok := c.BGAt(2, 0)
	assert.True(t, ok)
	assert.Equal(t, lipgloss.Color("#112233"), bg, "foreground write keeps the backdrop color")
	assert.Equal(t, '│', c.RuneAt(2, 0))
}

func TestCanvasVLine(t *testing.T) {
	c := NewCanvas(3, 4)
	c.VLine(1, 0, 3, '|', dimStyle)
	for y := 0; y < 4; y++ {
		assert.Equal(t, '|', c.RuneAt(1, y))
	}
}

func TestCanvasStringLineCount(t *testing.T) {
	c := NewCanvas(3, 3)
	assert.Equal(t, 2, strings.Count(c.String(), "\n"))
	assert.Equal(t, 2, strings.Count(c.PlainString(), "\n"))
}
