package grid

import (
	"fmt"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultGridUnit is the quantization step for positions.
	DefaultGridUnit = 20.0

	// DefaultMargin is the minimum gap between two widgets.
	DefaultMargin = 16.0

	// DefaultPadding is the distance of the default anchor and of overflow
	// placements from the canvas' left and top edges.
	DefaultPadding = 20.0

	// DefaultMobileSide is the edge length of every widget in the mobile view.
	DefaultMobileSide = 128.0

	// DefaultMobileStride is the column and row pitch of the mobile grid.
	DefaultMobileStride = DefaultMobileSide + DefaultMargin

	// DefaultMaxSearch bounds the ring search radius.
	DefaultMaxSearch = 400.0

	// DefaultDesktopWidth is the desktop canvas width.
	DefaultDesktopWidth = 600.0

	// DefaultMobileWidth fits two mobile columns plus padding on both sides.
	DefaultMobileWidth = 2*DefaultPadding + DefaultMobileSide + DefaultMobileStride
)

// Extent is a width/height pair in pixels.
type Extent struct {
	Width  float64 `json:"width" toml:"width"`
	Height float64 `json:"height" toml:"height"`
}

// DefaultDesktopSizes returns the desktop dimension table.
func DefaultDesktopSizes() map[widget.Size]Extent {
	return map[widget.Size]Extent{
		widget.SizeThin:         {Width: 320, Height: 48},
		widget.SizeSmallSquare:  {Width: 152, Height: 152},
		widget.SizeMediumSquare: {Width: 240, Height: 240},
		widget.SizeLargeSquare:  {Width: 320, Height: 320},
		widget.SizeWide:         {Width: 320, Height: 152},
		widget.SizeTall:         {Width: 152, Height: 320},
	}
}

// =============================================================================
// Options
// =============================================================================

// Options holds the geometry constants of the layout engine. The zero value
// is usable after SetDefaults.
type Options struct {
	GridUnit     float64
	Margin       float64
	Padding      float64
	MaxSearch    float64
	MobileSide   float64
	MobileStride float64

	// DesktopWidth and MobileWidth are the canvas widths per view.
	DesktopWidth float64
	MobileWidth  float64

	// DesktopSizes maps size tags to desktop dimensions. Tags missing from
	// the table use Fallback.
	DesktopSizes map[widget.Size]Extent
	Fallback     Extent
}

// DefaultOptions returns options populated with the default constants.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills every zero field with its default value.
func (o *Options) SetDefaults() {
	if o.GridUnit <= 0 {
		o.GridUnit = DefaultGridUnit
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.MaxSearch <= 0 {
		o.MaxSearch = DefaultMaxSearch
	}
	if o.MobileSide <= 0 {
		o.MobileSide = DefaultMobileSide
	}
	if o.MobileStride <= 0 {
		o.MobileStride = o.MobileSide + o.Margin
	}
	if o.DesktopWidth <= 0 {
		o.DesktopWidth = DefaultDesktopWidth
	}
	if o.MobileWidth <= 0 {
		o.MobileWidth = 2*o.Padding + o.MobileSide + o.MobileStride
	}
	if o.DesktopSizes == nil {
		o.DesktopSizes = DefaultDesktopSizes()
	}
	if o.Fallback.Width <= 0 || o.Fallback.Height <= 0 {
		o.Fallback = Extent{Width: 152, Height: 152}
	}
}

// CanvasWidth returns the configured canvas width for v.
func (o Options) CanvasWidth(v widget.ViewMode) float64 {
	if v == widget.Mobile {
		return o.MobileWidth
	}
	return o.DesktopWidth
}

// Check reports the first inconsistent option, if any.
func (o Options) Check() error {
	switch {
	case o.GridUnit <= 0:
		return fmt.Errorf("grid unit must be positive, got %v", o.GridUnit)
	case o.Margin < 0:
		return fmt.Errorf("margin must not be negative, got %v", o.Margin)
	case o.MaxSearch < o.GridUnit:
		return fmt.Errorf("max search %v is smaller than one grid unit", o.MaxSearch)
	case o.MobileStride < o.MobileSide+o.Margin:
		return fmt.Errorf("mobile stride %v leaves no margin between %v px widgets", o.MobileStride, o.MobileSide)
	case o.MobileWidth < o.MobileSide:
		return fmt.Errorf("mobile canvas %v is narrower than one widget", o.MobileWidth)
	}
	for size, e := range o.DesktopSizes {
		if e.Width <= 0 || e.Height <= 0 {
			return fmt.Errorf("size %s has non-positive dimensions", size)
		}
		if e.Width > o.DesktopWidth {
			return fmt.Errorf("size %s (%v px) is wider than the desktop canvas (%v px)", size, e.Width, o.DesktopWidth)
		}
	}
	return nil
}
