// Package preview draws a page layout as SVG.
//
// A preview shows the canvas for one view mode with every widget drawn as a
// rounded box at its stored position. Widgets involved in a layout violation
// are outlined in red, which makes the output useful for eyeballing the
// result of a place, arrange or repair.
package preview

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Options controls rendering.
type Options struct {
	View        widget.ViewMode
	CanvasWidth float64 // 0 uses the layout's configured width for View
	Labels      bool
	ShowGrid    bool
	Layout      grid.Options
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.View == "" {
		o.View = widget.Desktop
	}
	o.Layout.SetDefaults()
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = o.Layout.CanvasWidth(o.View)
	}
}

// minHeight keeps an empty page from rendering as a sliver.
const minHeight = 240

var typeFill = map[widget.Type]string{
	widget.TypeSocial:  "#dbeafe",
	widget.TypeLink:    "#e0e7ff",
	widget.TypeImage:   "#fce7f3",
	widget.TypeText:    "#f3f4f6",
	widget.TypeVoice:   "#fef3c7",
	widget.TypeProduct: "#dcfce7",
	widget.TypeApp:     "#ede9fe",
	widget.TypeMedia:   "#ffedd5",
}

const (
	defaultFill  = "#e5e7eb"
	strokeOK     = "#6b7280"
	strokeBad    = "#dc2626"
	canvasFill   = "#ffffff"
	gridStroke   = "#f1f5f9"
	labelStyle   = "font-family:ui-monospace,monospace;font-size:11px;fill:#111827"
	cornerRadius = 12
)

// Render writes an SVG preview of ws to w.
func Render(w io.Writer, ws []widget.Widget, opts Options) error {
	opts.SetDefaults()
	lo := opts.Layout

	width := px(opts.CanvasWidth)
	height := minHeight
	for _, wd := range ws {
		b := lo.Bounds(wd, opts.View)
		if h := px(b.Bottom + lo.Padding); h > height {
			height = h
		}
	}

	bad := make(map[string]bool)
	for _, v := range lo.Validate(ws, opts.View, opts.CanvasWidth) {
		bad[v.A] = true
		if v.B != "" {
			bad[v.B] = true
		}
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(fmt.Sprintf("%s layout, %d widgets", opts.View, len(ws)))
	canvas.Rect(0, 0, width, height, "fill:"+canvasFill)

	if opts.ShowGrid {
		drawGrid(canvas, lo, width, height)
	}

	for _, wd := range ws {
		b := lo.Bounds(wd, opts.View)
		stroke := strokeOK
		if bad[wd.ID] {
			stroke = strokeBad
		}
		fill, ok := typeFill[wd.Type]
		if !ok {
			fill = defaultFill
		}
		canvas.Roundrect(px(b.Left), px(b.Top), px(b.Width()), px(b.Height()), cornerRadius, cornerRadius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", fill, stroke))
		if opts.Labels {
			canvas.Text(px(b.Left)+8, px(b.Top)+16, label(wd, opts.View), labelStyle)
		}
	}

	canvas.End()
	return nil
}

func drawGrid(canvas *svg.SVG, lo grid.Options, width, height int) {
	step := lo.GridUnit
	canvas.Gstyle("stroke:" + gridStroke + ";stroke-width:1")
	for x := step; x < float64(width); x += step {
		canvas.Line(px(x), 0, px(x), height)
	}
	for y := step; y < float64(height); y += step {
		canvas.Line(0, px(y), width, px(y))
	}
	canvas.Gend()
}

func label(w widget.Widget, v widget.ViewMode) string {
	id := w.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if v == widget.Mobile {
		return fmt.Sprintf("%s %s", id, w.Type)
	}
	return fmt.Sprintf("%s %s %s", id, w.Type, w.Size)
}

func px(v float64) int { return int(math.Round(v)) }
