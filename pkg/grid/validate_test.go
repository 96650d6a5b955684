package grid

import (
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

func TestValidate(t *testing.T) {
	o := DefaultOptions()
	ws := []widget.Widget{
		at("a", widget.SizeThin, widget.Desktop, 20, 20),
		at("b", widget.SizeThin, widget.Desktop, 20, 40),
		at("c", widget.SizeLargeSquare, widget.Desktop, 400, 200),
		at("d", widget.SizeSmallSquare, widget.Desktop, -20, 600),
	}

	got := o.Validate(ws, widget.Desktop, 600)
	want := []Violation{
		{Kind: ViolationBounds, View: widget.Desktop, A: "c"},
		{Kind: ViolationBounds, View: widget.Desktop, A: "d"},
		{Kind: ViolationOverlap, View: widget.Desktop, A: "a", B: "b"},
	}
	if len(got) != len(want) {
		t.Fatalf("Validate() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("violation %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestValidateIsPerView(t *testing.T) {
	o := DefaultOptions()
	ws := []widget.Widget{
		at("a", widget.SizeThin, widget.Desktop, 20, 20),
		at("b", widget.SizeThin, widget.Desktop, 20, 20).WithPosition(widget.Mobile, widget.Point{X: 164, Y: 20}),
	}
	ws[0] = ws[0].WithPosition(widget.Mobile, widget.Point{X: 20, Y: 20})

	if len(o.Validate(ws, widget.Desktop, 0)) != 1 {
		t.Error("expected one desktop overlap")
	}
	if v := o.Validate(ws, widget.Mobile, 0); len(v) != 0 {
		t.Errorf("unexpected mobile violations: %v", v)
	}
}

func TestValidateNonFinite(t *testing.T) {
	o := DefaultOptions()
	ws := []widget.Widget{
		at("a", widget.SizeThin, widget.Desktop, 20, 400),
		at("b", widget.SizeThin, widget.Desktop, math.NaN(), 20),
		at("c", widget.SizeThin, widget.Desktop, 20, math.Inf(1)),
	}
	got := o.Validate(ws, widget.Desktop, 0)
	want := []Violation{
		{Kind: ViolationBounds, View: widget.Desktop, A: "b"},
		{Kind: ViolationBounds, View: widget.Desktop, A: "c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Validate() = %v, want %v", got, want)
	}
}

func TestViolationString(t *testing.T) {
	v := Violation{Kind: ViolationOverlap, View: widget.Mobile, A: "a", B: "b"}
	if got := v.String(); got != "mobile: a overlaps b" {
		t.Errorf("String() = %q", got)
	}
	v = Violation{Kind: ViolationBounds, View: widget.Desktop, A: "a"}
	if got := v.String(); got != "desktop: a is out of bounds" {
		t.Errorf("String() = %q", got)
	}
}
