package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaletteDeterministic(t *testing.T) {
	p := NewPalette()
	first := p.Project("mygroup/api")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Project("mygroup/api"))
	}
	// A fresh palette must agree: color follows the name, not the session.
	assert.Equal(t, first, NewPalette().Project("mygroup/api"))
}

func TestPaletteDistinguishesNames(t *testing.T) {
	p := NewPalette()
	assert.NotEqual(t, p.Project("mygroup/api"), p.Project("mygroup/web"))
}

func TestPaletteEmptyNameIsNeutral(t *testing.T) {
	p := NewPalette()
	assert.Equal(t, colorNeutral, p.Project(""))
	assert.Equal(t, colorNeutral, p.Runner(""))
}

func TestRunnerPaletteMatte(t *testing.T) {
	p := NewPalette()
	// Same name, different palette: the runner variant must not collide
	// with the saturated project color.
	assert.NotEqual(t, p.Project("shared-runner-1"), p.Runner("shared-runner-1"))
}

func TestHashColorProducesHex(t *testing.T) {
	c := hashColor("anything", 0.65, 0.55)
	assert.Len(t, string(c), 7)
	assert.Equal(t, byte('#'), string(c)[0])
}
