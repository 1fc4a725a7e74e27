package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitPassthrough(t *testing.T) {
	m := NewMeasurer()
	assert.Equal(t, "build", m.Fit("build", 10))
}

func TestFitTruncatesWithEllipsis(t *testing.T) {
	m := NewMeasurer()
	got := m.Fit("integration-tests-postgres", 10)
	assert.LessOrEqual(t, m.Width(got), 10)
	assert.Equal(t, "…", got[len(got)-len("…"):])
}

func TestFitBelowMinimumSuppresses(t *testing.T) {
	m := NewMeasurer()
	assert.Equal(t, "", m.Fit("build", minLabelWidth-1))
}

func TestFitWideRunes(t *testing.T) {
	m := NewMeasurer()
	got := m.Fit("デプロイ-production", 8)
	assert.LessOrEqual(t, m.Width(got), 8)
}

func TestWidthMemoized(t *testing.T) {
	m := NewMeasurer()
	assert.Equal(t, m.Width("deploy"), m.Width("deploy"))
	assert.Equal(t, 6, m.Width("deploy"))
}
