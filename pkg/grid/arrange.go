package grid

import "github.com/matzehuels/linkgrid/pkg/widget"

// MobileCell returns the top-left corner of cell i in the two-column mobile
// grid.
func (o Options) MobileCell(i int) widget.Point {
	return widget.Point{
		X: o.Padding + float64(i%2)*o.MobileStride,
		Y: o.Padding + float64(i/2)*o.MobileStride,
	}
}

// HasDuplicateMobile reports whether two widgets share a mobile position.
func HasDuplicateMobile(ws []widget.Widget) bool {
	seen := make(map[widget.Point]struct{}, len(ws))
	for _, w := range ws {
		p := w.Position(widget.Mobile)
		if _, ok := seen[p]; ok {
			return true
		}
		seen[p] = struct{}{}
	}
	return false
}

// AutoArrange normalizes stale mobile layouts. If any two widgets share an
// identical mobile position, every widget is moved to MobileCell(i) by its
// index in ws and the new slice is returned with true. Otherwise ws itself
// is returned with false. The input slice is never modified.
func (o Options) AutoArrange(ws []widget.Widget) ([]widget.Widget, bool) {
	if !HasDuplicateMobile(ws) {
		return ws, false
	}
	out := make([]widget.Widget, len(ws))
	for i, w := range ws {
		out[i] = w.WithPosition(widget.Mobile, o.MobileCell(i))
	}
	return out, true
}
