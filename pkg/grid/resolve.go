package grid

import (
	"math"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Strategy records which step of the resolver produced a placement.
type Strategy int

const (
	// FastPath means the snapped target was free.
	FastPath Strategy = iota
	// RingSearch means a nearby free candidate was found.
	RingSearch
	// Overflow means the widget was stacked beneath everything else.
	Overflow
)

func (s Strategy) String() string {
	switch s {
	case FastPath:
		return "fast-path"
	case RingSearch:
		return "ring-search"
	case Overflow:
		return "overflow"
	}
	return "unknown"
}

// Request describes one placement query.
type Request struct {
	// Widget is the widget being placed. Its current position is ignored.
	Widget widget.Widget
	// Others are the widgets already on the canvas. Entries with the same
	// ID as Widget are skipped.
	Others []widget.Widget
	View   widget.ViewMode
	Target widget.Point
	// CanvasWidth overrides the configured width for View when positive.
	CanvasWidth float64
}

// Placement is the outcome of Resolve.
type Placement struct {
	Point    widget.Point
	Strategy Strategy
	// Probes counts the candidate positions tested, the fast path included.
	Probes int
}

// Resolve returns the nearest collision-free, in-bounds grid position to
// req.Target. It always succeeds: if the ring search is exhausted the widget
// is placed below the lowest occupied box.
func (o Options) Resolve(req Request) Placement {
	cw := req.CanvasWidth
	if cw <= 0 {
		cw = o.CanvasWidth(req.View)
	}
	ext := o.Dimensions(req.Widget.Size, req.View)

	occupied := make([]Rect, 0, len(req.Others))
	for _, other := range req.Others {
		if other.ID == req.Widget.ID {
			continue
		}
		occupied = append(occupied, o.Bounds(other, req.View))
	}

	probes := 0
	free := func(p widget.Point) bool {
		probes++
		box := o.boxAt(p, ext)
		for _, r := range occupied {
			if o.overlap(box, r) {
				return false
			}
		}
		return true
	}

	start := o.clamp(o.Snap(req.Target), ext.Width, cw)
	if free(start) {
		return Placement{Point: start, Strategy: FastPath, Probes: probes}
	}

	unit := o.GridUnit
	rings := int(o.MaxSearch / unit)
	for k := 1; k <= rings; k++ {
		for j := -k; j <= k; j++ {
			dy := float64(j) * unit
			if j == -k || j == k {
				for i := -k; i <= k; i++ {
					c := o.clamp(start.Add(widget.Point{X: float64(i) * unit, Y: dy}), ext.Width, cw)
					if free(c) {
						return Placement{Point: c, Strategy: RingSearch, Probes: probes}
					}
				}
				continue
			}
			// Side columns only: interior offsets were tested by smaller rings.
			for _, i := range [2]int{-k, k} {
				c := o.clamp(start.Add(widget.Point{X: float64(i) * unit, Y: dy}), ext.Width, cw)
				if free(c) {
					return Placement{Point: c, Strategy: RingSearch, Probes: probes}
				}
			}
		}
	}

	return Placement{Point: o.overflow(occupied, start, ext, cw), Strategy: Overflow, Probes: probes}
}

// overflow places a box at the left padding, one margin below the lowest
// occupied bottom edge, rounded up to the grid.
func (o Options) overflow(occupied []Rect, start widget.Point, ext Extent, cw float64) widget.Point {
	if len(occupied) == 0 {
		return start
	}
	bottom := math.Inf(-1)
	for _, r := range occupied {
		bottom = math.Max(bottom, r.Bottom)
	}
	p := widget.Point{X: o.Padding, Y: ceilTo(bottom+o.Margin, o.GridUnit)}
	return o.clamp(p, ext.Width, cw)
}

// =============================================================================
// Initial Placement
// =============================================================================

// Anchor returns the default target for the n-th widget added in view v.
// Desktop anchors step down one grid unit per existing widget from the
// padded corner; mobile anchors walk the two-column grid.
func (o Options) Anchor(v widget.ViewMode, n int) widget.Point {
	if v == widget.Mobile {
		return o.MobileCell(n)
	}
	return widget.Point{X: o.Padding, Y: o.Padding + float64(n)*o.GridUnit}
}

// PlaceNew resolves an initial position for w in view v, targeting the
// anchor for the number of widgets already present.
func (o Options) PlaceNew(w widget.Widget, others []widget.Widget, v widget.ViewMode) Placement {
	n := 0
	for _, other := range others {
		if other.ID != w.ID {
			n++
		}
	}
	return o.Resolve(Request{Widget: w, Others: others, View: v, Target: o.Anchor(v, n)})
}
