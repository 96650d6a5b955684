package widget

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
)

// =============================================================================
// Type
// =============================================================================

// Type is the content kind of a widget. It does not affect layout.
type Type string

// Widget types.
const (
	TypeSocial  Type = "social"
	TypeLink    Type = "link"
	TypeImage   Type = "image"
	TypeText    Type = "text"
	TypeVoice   Type = "voice"
	TypeProduct Type = "product"
	TypeApp     Type = "app"
	TypeMedia   Type = "media"
)

// Types lists every known widget type in display order.
var Types = []Type{TypeSocial, TypeLink, TypeImage, TypeText, TypeVoice, TypeProduct, TypeApp, TypeMedia}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// ParseType converts s to a Type, rejecting unknown tags.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", lgerrors.New(lgerrors.ErrCodeInvalidType, "unknown widget type: %q", s)
	}
	return t, nil
}

// =============================================================================
// Size
// =============================================================================

// Size is the dimension class of a widget.
type Size string

// Size tags.
const (
	SizeThin         Size = "thin"
	SizeSmallSquare  Size = "small-square"
	SizeMediumSquare Size = "medium-square"
	SizeLargeSquare  Size = "large-square"
	SizeWide         Size = "wide"
	SizeTall         Size = "tall"
)

// Sizes lists every known size tag.
var Sizes = []Size{SizeThin, SizeSmallSquare, SizeMediumSquare, SizeLargeSquare, SizeWide, SizeTall}

// Valid reports whether s is one of the known size tags.
func (s Size) Valid() bool {
	for _, k := range Sizes {
		if s == k {
			return true
		}
	}
	return false
}

// ParseSize converts s to a Size, rejecting unknown tags.
func ParseSize(s string) (Size, error) {
	sz := Size(strings.ToLower(strings.TrimSpace(s)))
	if !sz.Valid() {
		return "", lgerrors.New(lgerrors.ErrCodeInvalidSize, "unknown widget size: %q", s)
	}
	return sz, nil
}

// =============================================================================
// ViewMode
// =============================================================================

// ViewMode selects the coordinate space and dimension table in use.
type ViewMode string

// View modes.
const (
	Desktop ViewMode = "desktop"
	Mobile  ViewMode = "mobile"
)

// Views lists both view modes, desktop first.
var Views = []ViewMode{Desktop, Mobile}

// Valid reports whether v is a known view mode.
func (v ViewMode) Valid() bool { return v == Desktop || v == Mobile }

// Other returns the opposite view mode.
func (v ViewMode) Other() ViewMode {
	if v == Mobile {
		return Desktop
	}
	return Mobile
}

// ParseViewMode converts s to a ViewMode. "web" is accepted as an alias
// for desktop since stored records use that name.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desktop", "web":
		return Desktop, nil
	case "mobile":
		return Mobile, nil
	}
	return "", lgerrors.New(lgerrors.ErrCodeInvalidView, "unknown view mode: %q (must be desktop or mobile)", s)
}

// =============================================================================
// Point & Positions
// =============================================================================

// Point is a top-left corner in canvas pixels.
type Point struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Finite reports whether both coordinates are real numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// String formats the point as "(x, y)".
func (p Point) String() string {
	return fmt.Sprintf("(%s, %s)", formatCoord(p.X), formatCoord(p.Y))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Positions holds one point per view mode.
type Positions struct {
	Desktop Point `json:"desktop" yaml:"desktop"`
	Mobile  Point `json:"mobile" yaml:"mobile"`
}

// Get returns the position for v.
func (p Positions) Get(v ViewMode) Point {
	if v == Mobile {
		return p.Mobile
	}
	return p.Desktop
}

// Set returns a copy of p with the position for v replaced.
func (p Positions) Set(v ViewMode, pt Point) Positions {
	if v == Mobile {
		p.Mobile = pt
	} else {
		p.Desktop = pt
	}
	return p
}

// =============================================================================
// Widget
// =============================================================================

// Widget is one tile on a page.
type Widget struct {
	ID        string    `json:"id" yaml:"id"`
	Type      Type      `json:"type" yaml:"type"`
	Size      Size      `json:"size" yaml:"size"`
	Positions Positions `json:"positions" yaml:"positions"`

	// Legacy is the generic pre-split position, carried through unchanged.
	Legacy *Point `json:"legacy_position,omitempty" yaml:"legacy_position,omitempty"`
}

// Position returns the widget's position in view v.
func (w Widget) Position(v ViewMode) Point { return w.Positions.Get(v) }

// WithPosition returns a copy of w placed at p in view v. The other view's
// position is left untouched.
func (w Widget) WithPosition(v ViewMode, p Point) Widget {
	w.Positions = w.Positions.Set(v, p)
	return w
}

// WithSize returns a copy of w with a new size tag.
func (w Widget) WithSize(s Size) Widget {
	w.Size = s
	return w
}

// Index returns the index of the widget with the given id, or -1.
func Index(ws []Widget, id string) int {
	for i, w := range ws {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a shallow copy of ws.
func Clone(ws []Widget) []Widget {
	if ws == nil {
		return nil
	}
	out := make([]Widget, len(ws))
	copy(out, ws)
	return out
}
