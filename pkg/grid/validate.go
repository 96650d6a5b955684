package grid

import (
	"fmt"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

// ViolationKind classifies a layout problem.
type ViolationKind string

const (
	// ViolationOverlap marks two widgets closer than the margin.
	ViolationOverlap ViolationKind = "overlap"
	// ViolationBounds marks a widget outside the canvas.
	ViolationBounds ViolationKind = "out-of-bounds"
)

// Violation is one problem found by Validate.
type Violation struct {
	Kind ViolationKind   `json:"kind"`
	View widget.ViewMode `json:"view"`
	A    string          `json:"a"`
	B    string          `json:"b,omitempty"`
}

func (v Violation) String() string {
	if v.Kind == ViolationOverlap {
		return fmt.Sprintf("%s: %s overlaps %s", v.View, v.A, v.B)
	}
	return fmt.Sprintf("%s: %s is out of bounds", v.View, v.A)
}

// Validate checks a layout in view v against the canvas width cw (the
// configured width when cw <= 0). Bounds violations are reported first, in
// widget order, followed by overlapping pairs in index order.
func (o Options) Validate(ws []widget.Widget, v widget.ViewMode, cw float64) []Violation {
	if cw <= 0 {
		cw = o.CanvasWidth(v)
	}
	var out []Violation
	boxes := make([]Rect, len(ws))
	for i, w := range ws {
		boxes[i] = o.Bounds(w, v)
		b := boxes[i]
		if !w.Position(v).Finite() || b.Left < 0 || b.Top < 0 || (b.Right > cw && b.Left > 0) {
			out = append(out, Violation{Kind: ViolationBounds, View: v, A: w.ID})
		}
	}
	for i := range ws {
		for j := i + 1; j < len(ws); j++ {
			if o.overlap(boxes[i], boxes[j]) {
				out = append(out, Violation{Kind: ViolationOverlap, View: v, A: ws[i].ID, B: ws[j].ID})
			}
		}
	}
	return out
}
