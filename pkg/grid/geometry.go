package grid

import (
	"math"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Rect is an axis-aligned box in canvas pixels.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// =============================================================================
// Dimension Resolver
// =============================================================================

// Dimensions returns the pixel size of a widget with the given tag in view v.
// In the mobile view the tag is ignored. Unknown desktop tags map to the
// fallback extent.
func (o Options) Dimensions(size widget.Size, v widget.ViewMode) Extent {
	if v == widget.Mobile {
		return Extent{Width: o.MobileSide, Height: o.MobileSide}
	}
	if e, ok := o.DesktopSizes[size]; ok {
		return e
	}
	return o.Fallback
}

// Bounds returns the box w occupies in view v.
func (o Options) Bounds(w widget.Widget, v widget.ViewMode) Rect {
	return o.boxAt(w.Position(v), o.Dimensions(w.Size, v))
}

func (o Options) boxAt(p widget.Point, e Extent) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X + e.Width, Bottom: p.Y + e.Height}
}

// =============================================================================
// Grid Snapper
// =============================================================================

// Snap rounds both coordinates of p to the nearest multiple of the grid unit.
func (o Options) Snap(p widget.Point) widget.Point {
	if o.GridUnit <= 0 {
		return p
	}
	return widget.Point{X: snap(p.X, o.GridUnit), Y: snap(p.Y, o.GridUnit)}
}

func snap(v, unit float64) float64 {
	return math.Round(v/unit) * unit
}

func ceilTo(v, unit float64) float64 {
	return math.Ceil(v/unit) * unit
}

// clamp keeps a box of width w inside a canvas of width cw: x in [0, cw-w]
// and y >= 0. The right limit is rounded down to the grid so clamped points
// stay aligned. A widget wider than the canvas is pinned to x = 0.
// NaN coordinates become 0, infinite x goes to the nearer edge and
// infinite y to the top, since the canvas has no bottom to pin to.
func (o Options) clamp(p widget.Point, w, cw float64) widget.Point {
	maxX := math.Max(0, cw-w)
	if o.GridUnit > 0 {
		maxX = math.Floor(maxX/o.GridUnit) * o.GridUnit
	}
	if math.IsNaN(p.X) {
		p.X = 0
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		p.Y = 0
	}
	p.X = math.Min(math.Max(p.X, 0), maxX)
	p.Y = math.Max(p.Y, 0)
	return p
}

// =============================================================================
// Collision Detector
// =============================================================================

// Collides reports whether a and b overlap in view v once separated by the
// margin. It is symmetric. Callers must not pass the same widget twice.
func (o Options) Collides(a, b widget.Widget, v widget.ViewMode) bool {
	return o.overlap(o.Bounds(a, v), o.Bounds(b, v))
}

// CollidesAny reports whether w collides with any widget in others, skipping
// entries with w's ID.
func (o Options) CollidesAny(w widget.Widget, others []widget.Widget, v widget.ViewMode) bool {
	box := o.Bounds(w, v)
	for _, other := range others {
		if other.ID == w.ID {
			continue
		}
		if o.overlap(box, o.Bounds(other, v)) {
			return true
		}
	}
	return false
}

func (o Options) overlap(a, b Rect) bool {
	m := o.Margin
	return !(a.Right+m <= b.Left || b.Right+m <= a.Left ||
		a.Bottom+m <= b.Top || b.Bottom+m <= a.Top)
}
