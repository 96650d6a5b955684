package preview

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

func sample() []widget.Widget {
	a := widget.Widget{ID: "alpha", Type: widget.TypeLink, Size: widget.SizeThin}.
		WithPosition(widget.Desktop, widget.Point{X: 20, Y: 20}).
		WithPosition(widget.Mobile, widget.Point{X: 20, Y: 20})
	b := widget.Widget{ID: "beta", Type: widget.TypeImage, Size: widget.SizeWide}.
		WithPosition(widget.Desktop, widget.Point{X: 20, Y: 100}).
		WithPosition(widget.Mobile, widget.Point{X: 164, Y: 20})
	return []widget.Widget{a, b}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), Options{Labels: true, ShowGrid: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") || !strings.Contains(out, "</svg>") {
		t.Fatalf("not an svg document:\n%s", out)
	}
	if got := strings.Count(out, "<rect"); got != 3 {
		t.Errorf("rect count = %d, want 3 (canvas + 2 widgets)", got)
	}
	if !strings.Contains(out, `width="600"`) {
		t.Error("desktop canvas should be 600 wide")
	}
	if !strings.Contains(out, "alpha link thin") {
		t.Error("missing desktop label")
	}
	if strings.Contains(out, strokeBad) {
		t.Error("valid layout rendered with violation stroke")
	}
}

func TestRenderMarksOverlap(t *testing.T) {
	ws := sample()
	ws[1] = ws[1].WithPosition(widget.Desktop, widget.Point{X: 20, Y: 40})

	var buf bytes.Buffer
	if err := Render(&buf, ws, Options{}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), strokeBad); got != 2 {
		t.Errorf("violation strokes = %d, want 2", got)
	}
}

func TestRenderMobileWidth(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sample(), Options{View: widget.Mobile}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `width="312"`) {
		t.Errorf("mobile canvas width not 312:\n%s", buf.String())
	}
}

func TestLayoutHash(t *testing.T) {
	ws := sample()
	h1, err := LayoutHash(ws, widget.Desktop)
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := LayoutHash(ws, widget.Desktop)
	if h1 != h2 {
		t.Error("hash not stable")
	}

	// Moving in mobile does not change the desktop preview.
	moved := append([]widget.Widget(nil), ws...)
	moved[0] = moved[0].WithPosition(widget.Mobile, widget.Point{X: 20, Y: 164})
	if h3, _ := LayoutHash(moved, widget.Desktop); h3 != h1 {
		t.Error("desktop hash changed after a mobile move")
	}
	if h4, _ := LayoutHash(moved, widget.Mobile); h4 == h1 {
		t.Error("mobile hash should differ")
	}
}

// countingCache counts writes on top of an in-memory map.
type countingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets atomic.Int32
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets.Add(1)
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *countingCache) Close() error { return nil }

var _ cache.Cache = (*countingCache)(nil)

func TestRunnerCaches(t *testing.T) {
	c := &countingCache{data: make(map[string][]byte)}
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, hit, err := r.Render(ctx, sample(), Options{})
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.Render(ctx, sample(), Options{})
	if err != nil || !hit {
		t.Fatalf("second render: hit=%v err=%v", hit, err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached preview differs from rendered one")
	}
	if _, hit, _ := r.Render(ctx, sample(), Options{Labels: true}); hit {
		t.Error("different options must not hit the cache")
	}
	if got := c.sets.Load(); got != 2 {
		t.Errorf("cache sets = %d, want 2", got)
	}
}

func TestRunnerKeysOnGeometry(t *testing.T) {
	c := &countingCache{data: make(map[string][]byte)}
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	if _, _, err := r.Render(ctx, sample(), Options{}); err != nil {
		t.Fatal(err)
	}
	wider := grid.DefaultOptions()
	wider.DesktopSizes[widget.SizeThin] = grid.Extent{Width: 400, Height: 48}
	changed := []grid.Options{
		{Margin: 8},
		{MobileSide: 96},
		wider,
	}
	for _, lo := range changed {
		if _, hit, err := r.Render(ctx, sample(), Options{Layout: lo}); err != nil || hit {
			t.Errorf("Layout %+v: hit=%v err=%v, want a fresh render", lo, hit, err)
		}
	}
	if _, hit, _ := r.Render(ctx, sample(), Options{Layout: grid.DefaultOptions()}); !hit {
		t.Error("default geometry should hit the first render")
	}
}

func TestRunnerWithoutCache(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	for i := 0; i < 2; i++ {
		_, hit, err := r.Render(context.Background(), sample(), Options{})
		if err != nil || hit {
			t.Fatalf("render %d: hit=%v err=%v", i, hit, err)
		}
	}
}
