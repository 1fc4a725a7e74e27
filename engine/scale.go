package engine

import "time"

// Zoom bounds and the fractional padding added to either side of the base
// time domain.
const (
	MinZoom   = 0.5
	MaxZoom   = 20.0
	domainPad = 0.05
)

// ZoomTransform is the composed scale+translate applied on top of the base
// time scale. K is the zoom factor, TX the horizontal pan in cells. Session
// state: survives refreshes, mutated only by gestures.
type ZoomTransform struct {
	K  float64
	TX float64
}

// Identity is the unzoomed, unpanned transform.
func Identity() ZoomTransform { return ZoomTransform{K: 1} }

// Apply maps a base-scale x coordinate into the zoomed view.
func (t ZoomTransform) Apply(x float64) float64 { return t.K*x + t.TX }

// Invert maps a view coordinate back into base-scale space.
func (t ZoomTransform) Invert(x float64) float64 { return (x - t.TX) / t.K }

// ScaledBy returns the transform zoomed by factor around the view-space
// pivot, clamped to the zoom bounds. The point under the pivot stays fixed.
func (t ZoomTransform) ScaledBy(factor, pivot float64) ZoomTransform {
	k := t.K * factor
	if k < MinZoom {
		k = MinZoom
	}
	if k > MaxZoom {
		k = MaxZoom
	}
	// Keep the base coordinate under pivot stationary.
	base := t.Invert(pivot)
	return ZoomTransform{K: k, TX: pivot - k*base}
}

// TranslatedBy returns the transform panned by dx view cells.
func (t ZoomTransform) TranslatedBy(dx float64) ZoomTransform {
	return ZoomTransform{K: t.K, TX: t.TX + dx}
}

// ClampPan limits TX so the chart cannot be dragged entirely out of a
// viewport of the given width.
func (t ZoomTransform) ClampPan(width float64) ZoomTransform {
	minTX := width - t.K*width // right edge may not pass viewport right
	maxTX := 0.0               // left edge may not pass viewport left
	if t.K < 1 {
		// Zoomed out: allow the (smaller) chart to sit anywhere inside.
		minTX, maxTX = 0, width-t.K*width
	}
	if t.TX < minTX {
		t.TX = minTX
	}
	if t.TX > maxTX {
		t.TX = maxTX
	}
	return t
}

// TimeScale owns the time→x mapping. The base linear scale is recomputed only
// when the row set's time extent changes; zoom composes a transform on top
// and never touches the domain.
type TimeScale struct {
	t0, t1 time.Time // padded domain
	width  float64   // range [0, width)
	xform  ZoomTransform
}

// NewTimeScale builds the base scale over [min-5%, max+5%] mapped to
// [0, width].
func NewTimeScale(min, max time.Time, width float64) *TimeScale {
	span := max.Sub(min)
	if span <= 0 {
		span = time.Minute
	}
	pad := time.Duration(float64(span) * domainPad)
	return &TimeScale{
		t0:    min.Add(-pad),
		t1:    max.Add(pad),
		width: width,
		xform: Identity(),
	}
}

// Rescale replaces the composed transform. The domain is untouched.
func (s *TimeScale) Rescale(t ZoomTransform) { s.xform = t }

// Transform returns the current composed transform.
func (s *TimeScale) Transform() ZoomTransform { return s.xform }

// Width returns the viewport width in cells.
func (s *TimeScale) Width() float64 { return s.width }

// Resize updates the range width, preserving domain and transform.
func (s *TimeScale) Resize(width float64) { s.width = width }

// baseX maps a time onto the unzoomed range.
func (s *TimeScale) baseX(t time.Time) float64 {
	span := s.t1.Sub(s.t0)
	if span <= 0 {
		return 0
	}
	return float64(t.Sub(s.t0)) / float64(span) * s.width
}

// X maps a time into the zoomed view. Monotonically non-decreasing in t for
// any K > 0.
func (s *TimeScale) X(t time.Time) float64 {
	return s.xform.Apply(s.baseX(t))
}

// TimeAt inverts X: the timestamp under a view-space x coordinate.
func (s *TimeScale) TimeAt(x float64) time.Time {
	span := s.t1.Sub(s.t0)
	frac := s.xform.Invert(x) / s.width
	return s.t0.Add(time.Duration(frac * float64(span)))
}

// WindowTransform computes the transform that makes [from, to] fill the
// viewport. Used once on first load when an initial viewport is configured,
// instead of starting at identity.
func (s *TimeScale) WindowTransform(from, to time.Time) ZoomTransform {
	x0 := s.baseX(from)
	x1 := s.baseX(to)
	if x1 <= x0 {
		return Identity()
	}
	k := s.width / (x1 - x0)
	if k < MinZoom {
		k = MinZoom
	}
	if k > MaxZoom {
		k = MaxZoom
	}
	return ZoomTransform{K: k, TX: -k * x0}
}

// BandScale maps row indices to y cells. One cell per row with no inter-row
// padding at terminal resolution; zoom and pan never affect Y because rows
// are a fixed list, not a continuous axis.
type BandScale struct {
	rowHeight int
	count     int
}

func NewBandScale(count, rowHeight int) *BandScale {
	if rowHeight < 1 {
		rowHeight = 1
	}
	return &BandScale{rowHeight: rowHeight, count: count}
}

// Y returns the top cell of row i.
func (b *BandScale) Y(i int) int { return i * b.rowHeight }

// RowAt returns the row index under a y cell, or -1 outside the band.
func (b *BandScale) RowAt(y int) int {
	if y < 0 {
		return -1
	}
	i := y / b.rowHeight
	if i >= b.count {
		return -1
	}
	return i
}

// Height is the total band height in cells.
func (b *BandScale) Height() int { return b.count * b.rowHeight }
