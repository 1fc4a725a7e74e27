package ui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette assigns deterministic colors per project and per runner. Projects
// get a saturated palette; runners get a matte (low saturation, high
// lightness) one so the two systems stay distinguishable side by side.
// Lookups are memoized; the cache lives for the session and is mutated only
// on the UI goroutine.
type Palette struct {
	project map[string]lipgloss.Color
	runner  map[string]lipgloss.Color
}

func NewPalette() *Palette {
	return &Palette{
		project: make(map[string]lipgloss.Color),
		runner:  make(map[string]lipgloss.Color),
	}
}

// Project returns the color for a project path. Empty names map to the fixed
// neutral gray, never to a hash of the empty string.
func (p *Palette) Project(name string) lipgloss.Color {
	if name == "" {
		return colorNeutral
	}
	if c, ok := p.project[name]; ok {
		return c
	}
	c := hashColor(name, 0.65, 0.55)
	p.project[name] = c
	return c
}

// Runner returns the matte color for a runner name.
func (p *Palette) Runner(name string) lipgloss.Color {
	if name == "" {
		return colorNeutral
	}
	if c, ok := p.runner[name]; ok {
		return c
	}
	c := hashColor(name, 0.25, 0.75)
	p.runner[name] = c
	return c
}

// User returns a badge color for an avatar-initials fallback. Shares the
// saturated project palette parameters but its own hash input.
func (p *Palette) User(name string) lipgloss.Color {
	return p.Project(name)
}

// hashColor maps a name to a stable HSL color at the given saturation and
// lightness.
func hashColor(name string, sat, light float64) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(name))
	hue := float64(h.Sum32() % 360)
	return lipgloss.Color(colorful.Hsl(hue, sat, light).Hex())
}
