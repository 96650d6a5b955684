package editor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/page"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

// Three widgets share a string-encoded stale mobile position; after load
// they occupy distinct, non-overlapping grid cells.
func TestMaterializeStaleStringPositions(t *testing.T) {
	stale := raw(`"{\"x\":20,\"y\":20}"`)
	records := []widget.Record{
		{ID: "a", Type: "link", Size: "thin", WebPosition: raw(`{"x":20,"y":20}`), MobilePosition: stale},
		{ID: "b", Type: "image", Size: "wide", WebPosition: raw(`{"x":20,"y":100}`), MobilePosition: stale},
		{ID: "c", Type: "text", Size: "tall", WebPosition: raw(`{"x":360,"y":100}`), MobilePosition: stale},
	}

	opts := grid.DefaultOptions()
	got := Materialize(records, opts)

	if !got.Arranged {
		t.Fatal("expected auto-arrange to run")
	}
	if len(got.Issues) != 0 {
		t.Errorf("unexpected issues: %v", got.Issues)
	}
	seen := map[widget.Point]bool{}
	for i, w := range got.Widgets {
		p := w.Position(widget.Mobile)
		if seen[p] {
			t.Errorf("widget %s shares mobile position %v", w.ID, p)
		}
		seen[p] = true
		if p != opts.MobileCell(i) {
			t.Errorf("widget %s mobile = %v, want %v", w.ID, p, opts.MobileCell(i))
		}
	}
	if v := opts.Validate(got.Widgets, widget.Mobile, 0); len(v) != 0 {
		t.Errorf("mobile layout invalid: %v", v)
	}
}

func TestMaterializeFallbacks(t *testing.T) {
	records := []widget.Record{
		// Legacy only: desktop comes from the legacy position.
		{ID: "legacy", Type: "link", Size: "thin", Position: raw(`{"x":20,"y":200}`)},
		// Malformed web position and absent mobile position.
		{ID: "broken", Type: "link", Size: "thin", WebPosition: raw(`{"x":`), MobilePosition: raw(`null`)},
		// Stored positions later in the list must not be overlapped by defaults.
		{ID: "stored", Type: "link", Size: "thin", WebPosition: raw(`{"x":20,"y":20}`), MobilePosition: raw(`{"x":20,"y":20}`)},
	}

	opts := grid.DefaultOptions()
	got := Materialize(records, opts)
	if len(got.Widgets) != 3 {
		t.Fatalf("got %d widgets", len(got.Widgets))
	}

	legacy := got.Widgets[0]
	if legacy.Legacy == nil || *legacy.Legacy != (widget.Point{X: 20, Y: 200}) {
		t.Errorf("legacy position not kept: %+v", legacy.Legacy)
	}
	if legacy.Position(widget.Desktop) != (widget.Point{X: 20, Y: 200}) {
		t.Errorf("legacy desktop = %v", legacy.Position(widget.Desktop))
	}

	if len(got.Issues) != 1 || got.Issues[0].WidgetID != "broken" || got.Issues[0].Field != "web_position" {
		t.Errorf("issues = %v", got.Issues)
	}
	// legacy mobile, broken desktop and broken mobile were computed.
	if got.Defaulted != 3 {
		t.Errorf("Defaulted = %d, want 3", got.Defaulted)
	}
	if got.Arranged {
		t.Error("unexpected auto-arrange")
	}
	for _, v := range widget.Views {
		if vs := opts.Validate(got.Widgets, v, 0); len(vs) != 0 {
			t.Errorf("%s layout invalid: %v", v, vs)
		}
	}
}

func TestMaterializeSkipsBadIDs(t *testing.T) {
	records := []widget.Record{
		{ID: "", Type: "link", Size: "thin"},
		{ID: "../etc", Type: "link", Size: "thin"},
		{ID: "a", Type: "link", Size: "thin"},
		{ID: "a", Type: "text", Size: "wide"},
	}
	got := Materialize(records, grid.DefaultOptions())
	if len(got.Widgets) != 1 || got.Widgets[0].Type != widget.TypeLink {
		t.Fatalf("widgets = %+v", got.Widgets)
	}
	if len(got.Issues) != 3 {
		t.Errorf("issues = %v", got.Issues)
	}
	if !lgerrors.Is(got.Issues[2].Err, lgerrors.ErrCodeDuplicateWidget) {
		t.Errorf("duplicate issue = %v", got.Issues[2])
	}
}

func TestMaterializeKeepsUnknownTags(t *testing.T) {
	got := Materialize([]widget.Record{{ID: "a", Type: "hologram", Size: "huge"}}, grid.DefaultOptions())
	w := got.Widgets[0]
	if w.Type != "hologram" || w.Size != "huge" {
		t.Errorf("tags rewritten: %+v", w)
	}
	if len(got.Issues) != 2 {
		t.Errorf("issues = %v", got.Issues)
	}
}

func TestMaterializeRejectsNegativeCoordinates(t *testing.T) {
	got := Materialize([]widget.Record{
		{ID: "a", Type: "link", Size: "thin", WebPosition: raw(`{"x":-40,"y":20}`)},
	}, grid.DefaultOptions())
	if p := got.Widgets[0].Position(widget.Desktop); p.X < 0 {
		t.Errorf("negative position kept: %v", p)
	}
	if len(got.Issues) != 1 {
		t.Errorf("issues = %v", got.Issues)
	}
}

type listerFunc func(ctx context.Context, pageID string) ([]widget.Record, error)

func (f listerFunc) ListWidgets(ctx context.Context, pageID string) ([]widget.Record, error) {
	return f(ctx, pageID)
}

func TestLoad(t *testing.T) {
	src := listerFunc(func(_ context.Context, pageID string) ([]widget.Record, error) {
		if pageID != "home" {
			return nil, errors.New("unexpected page")
		}
		return []widget.Record{
			{ID: "a", Type: "link", Size: "thin", WebPosition: raw(`{"x":20,"y":20}`), MobilePosition: raw(`{"x":20,"y":20}`)},
		}, nil
	})

	e, loaded, err := Load(context.Background(), src, "home")
	if err != nil {
		t.Fatal(err)
	}
	if e.PageID() != "home" || e.Len() != 1 || len(loaded.Widgets) != 1 {
		t.Errorf("Load() editor page=%s len=%d", e.PageID(), e.Len())
	}

	if _, _, err := Load(context.Background(), src, ""); !lgerrors.Is(err, lgerrors.ErrCodeInvalidID) {
		t.Errorf("Load with empty page err = %v", err)
	}

	failing := listerFunc(func(context.Context, string) ([]widget.Record, error) { return nil, errors.New("offline") })
	if _, _, err := Load(context.Background(), failing, "home"); err == nil {
		t.Error("Load should propagate list errors")
	}
}

func TestLoadFlushPersistsComputedPositions(t *testing.T) {
	src := listerFunc(func(context.Context, string) ([]widget.Record, error) {
		return []widget.Record{
			{ID: "a", Type: "link", Size: "thin", WebPosition: raw(`{"x":20,"y":20}`), MobilePosition: raw(`{"x":20,"y":20}`)},
			{ID: "b", Type: "link", Size: "thin", WebPosition: raw(`{"x":20,"y":100}`), MobilePosition: raw(`"{\"x\":20,\"y\":20}"`)},
			{ID: "c", Type: "link", Size: "thin", Position: raw(`{"x":20,"y":180}`)},
		}, nil
	})
	st := newFakeStore()
	ctx := context.Background()

	e, loaded, err := Load(ctx, src, "home", WithStore(st))
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Arranged {
		t.Fatal("duplicate mobile positions should have been arranged")
	}
	if got := e.Pending(); got != 3 {
		t.Fatalf("Pending() = %d, want 3", got)
	}

	saved, err := e.Flush(ctx)
	if err != nil || saved != 3 {
		t.Fatalf("Flush() = %d, %v", saved, err)
	}
	want := []string{
		"position b mobile (164, 20)",
		"position c desktop (20, 180)",
		"position c mobile (20, 164)",
	}
	if len(st.calls) != len(want) {
		t.Fatalf("store calls = %v", st.calls)
	}
	for i := range want {
		if st.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, st.calls[i], want[i])
		}
	}
	if e.Pending() != 0 {
		t.Errorf("Pending() after flush = %d", e.Pending())
	}
	if saved, _ := e.Flush(ctx); saved != 0 {
		t.Errorf("second Flush() saved %d", saved)
	}
}

func TestFlushKeepsFailedPositionsPending(t *testing.T) {
	src := listerFunc(func(context.Context, string) ([]widget.Record, error) {
		return []widget.Record{{ID: "a", Type: "link", Size: "thin"}}, nil
	})
	st := newFakeStore()
	st.fail = errors.New("disk full")

	e, _, err := Load(context.Background(), src, "home", WithStore(st))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Flush(context.Background()); !lgerrors.Is(err, lgerrors.ErrCodePersistence) {
		t.Fatalf("Flush() err = %v", err)
	}
	if e.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", e.Pending())
	}
}

func TestMaterializeLegacyExamplePage(t *testing.T) {
	p, err := page.Read("../../examples/pages/legacy.yaml")
	if err != nil {
		t.Fatal(err)
	}
	opts := grid.DefaultOptions()
	got := Materialize(p.Widgets, opts)

	if len(got.Issues) != 1 || got.Issues[0].WidgetID != "reel" || got.Issues[0].Field != "web_position" {
		t.Errorf("issues = %v, want one for reel web_position", got.Issues)
	}
	if !got.Arranged {
		t.Error("duplicate mobile positions should be arranged")
	}

	desktop := map[string]widget.Point{
		"shop":    {X: 20, Y: 20},
		"podcast": {X: 280, Y: 20},
		"app":     {X: 280, Y: 100},
	}
	for i, w := range got.Widgets {
		if want, ok := desktop[w.ID]; ok && w.Position(widget.Desktop) != want {
			t.Errorf("%s desktop = %v, want %v", w.ID, w.Position(widget.Desktop), want)
		}
		if want := opts.MobileCell(i); w.Position(widget.Mobile) != want {
			t.Errorf("%s mobile = %v, want %v", w.ID, w.Position(widget.Mobile), want)
		}
	}
	for _, v := range widget.Views {
		if vs := opts.Validate(got.Widgets, v, 0); len(vs) != 0 {
			t.Errorf("%s violations: %v", v, vs)
		}
	}
}
