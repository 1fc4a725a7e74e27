package ui

import "github.com/mattn/go-runewidth"

// Labels are suppressed entirely when a bar is narrower than this.
const minLabelWidth = 4

// Measurer caches display-width measurements so label fitting stays cheap on
// the zoom fast path. Session-scoped; UI goroutine only, so no locking.
type Measurer struct {
	widths map[string]int
}

func NewMeasurer() *Measurer {
	return &Measurer{widths: make(map[string]int)}
}

// Width returns the terminal display width of s, memoized.
func (m *Measurer) Width(s string) int {
	if w, ok := m.widths[s]; ok {
		return w
	}
	w := runewidth.StringWidth(s)
	m.widths[s] = w
	return w
}

// Fit truncates s to at most max display cells, appending an ellipsis when
// anything was cut. Returns "" when max is below the minimum label width.
func (m *Measurer) Fit(s string, max int) string {
	if max < minLabelWidth {
		return ""
	}
	if m.Width(s) <= max {
		return s
	}
	w := 0
	out := make([]rune, 0, max)
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > max-1 {
			break
		}
		out = append(out, r)
		w += rw
	}
	return string(out) + "…"
}
