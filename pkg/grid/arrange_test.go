package grid

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/linkgrid/pkg/widget"
)

func TestAutoArrangeNoOp(t *testing.T) {
	o := DefaultOptions()
	ws := []widget.Widget{
		at("a", widget.SizeThin, widget.Mobile, 20, 20),
		at("b", widget.SizeThin, widget.Mobile, 164, 20),
		at("c", widget.SizeThin, widget.Mobile, 40, 300),
	}
	before := widget.Clone(ws)

	got, changed := o.AutoArrange(ws)
	if changed {
		t.Fatal("AutoArrange reported a change for distinct positions")
	}
	if !reflect.DeepEqual(got, before) {
		t.Errorf("AutoArrange() = %v, want %v", got, before)
	}
}

func TestAutoArrangeNormalizes(t *testing.T) {
	o := DefaultOptions()
	var ws []widget.Widget
	for i := 0; i < 5; i++ {
		w := at(fmt.Sprintf("w%d", i), widget.SizeLargeSquare, widget.Mobile, 20, 20)
		ws = append(ws, w.WithPosition(widget.Desktop, widget.Point{X: float64(i) * 7, Y: 1}))
	}

	got, changed := o.AutoArrange(ws)
	if !changed {
		t.Fatal("AutoArrange did not report a change")
	}
	for i, w := range got {
		want := widget.Point{X: 20 + float64(i%2)*144, Y: 20 + float64(i/2)*144}
		if w.Position(widget.Mobile) != want {
			t.Errorf("widget %d mobile = %v, want %v", i, w.Position(widget.Mobile), want)
		}
		if w.Position(widget.Desktop) != ws[i].Position(widget.Desktop) {
			t.Errorf("widget %d desktop position changed", i)
		}
	}
	if v := o.Validate(got, widget.Mobile, 0); len(v) != 0 {
		t.Errorf("arranged layout invalid: %v", v)
	}
	if ws[0].Position(widget.Mobile) != (widget.Point{X: 20, Y: 20}) || ws[1].Position(widget.Mobile) != (widget.Point{X: 20, Y: 20}) {
		t.Error("AutoArrange mutated its input")
	}
}

func TestAutoArrangeSinglePairTriggersAll(t *testing.T) {
	o := DefaultOptions()
	ws := []widget.Widget{
		at("a", widget.SizeThin, widget.Mobile, 500, 500),
		at("b", widget.SizeThin, widget.Mobile, 0, 0),
		at("c", widget.SizeThin, widget.Mobile, 0, 0),
	}
	got, changed := o.AutoArrange(ws)
	if !changed {
		t.Fatal("expected arrangement")
	}
	if got[0].Position(widget.Mobile) != o.MobileCell(0) {
		t.Errorf("first widget not normalized: %v", got[0].Position(widget.Mobile))
	}
}

func TestAutoArrangeEmpty(t *testing.T) {
	got, changed := DefaultOptions().AutoArrange(nil)
	if changed || got != nil {
		t.Errorf("AutoArrange(nil) = %v, %v", got, changed)
	}
}
