package page

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

const yamlDoc = `id: home
widgets:
  - id: a
    type: link
    size: thin
    web_position: {x: 20, y: 20}
    mobile_position: '{"x":20,"y":20}'
  - id: b
    type: image
    size: wide
    position:
      x: 0
      y: 100
`

func TestDecodeYAML(t *testing.T) {
	p, err := Decode(strings.NewReader(yamlDoc), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "home" || len(p.Widgets) != 2 {
		t.Fatalf("page = %+v", p)
	}

	a := p.Widgets[0]
	if pt, err := widget.ParsePoint(a.WebPosition); err != nil || pt != (widget.Point{X: 20, Y: 20}) {
		t.Errorf("a web = %v, %v", pt, err)
	}
	if pt, err := widget.ParsePoint(a.MobilePosition); err != nil || pt != (widget.Point{X: 20, Y: 20}) {
		t.Errorf("a mobile (string) = %v, %v", pt, err)
	}
	b := p.Widgets[1]
	if pt, err := widget.ParsePoint(b.Position); err != nil || pt != (widget.Point{X: 0, Y: 100}) {
		t.Errorf("b legacy = %v, %v", pt, err)
	}
	if b.WebPosition != nil {
		t.Errorf("b web = %s, want absent", b.WebPosition)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src, err := Decode(strings.NewReader(yamlDoc), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"home.json", "home.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Write(path, src); err != nil {
				t.Fatal(err)
			}
			got, err := Read(path)
			if err != nil {
				t.Fatal(err)
			}
			if got.ID != src.ID || len(got.Widgets) != len(src.Widgets) {
				t.Fatalf("round trip = %+v", got)
			}
			for i := range src.Widgets {
				for _, v := range widget.Views {
					want, _ := widget.ParsePoint(src.Widgets[i].PositionFor(v))
					have, _ := widget.ParsePoint(got.Widgets[i].PositionFor(v))
					if want != have {
						t.Errorf("widget %d %s = %v, want %v", i, v, have, want)
					}
				}
			}
		})
	}
}

func TestReadDefaultsIDToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landing.json")
	if err := os.WriteFile(path, []byte(`{"widgets":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "landing" {
		t.Errorf("ID = %q, want landing", p.ID)
	}
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]Format{"a.json": FormatJSON, "a.YAML": FormatYAML, "a.yml": FormatYAML} {
		if got, err := FormatFor(path); err != nil || got != want {
			t.Errorf("FormatFor(%s) = %s, %v", path, got, err)
		}
	}
	if _, err := FormatFor("a.txt"); !lgerrors.Is(err, lgerrors.ErrCodeInvalidPath) {
		t.Errorf("FormatFor(a.txt) err = %v", err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode(strings.NewReader("{"), FormatJSON); !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
		t.Errorf("json err = %v", err)
	}
	if _, err := Decode(strings.NewReader("widgets: [\n"), FormatYAML); !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
		t.Errorf("yaml err = %v", err)
	}
}

func TestFromWidgets(t *testing.T) {
	w := widget.Widget{ID: "a", Type: widget.TypeLink, Size: widget.SizeThin}.
		WithPosition(widget.Mobile, widget.Point{X: 164, Y: 20})
	p, err := FromWidgets("home", []widget.Widget{w})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, p, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"mobile_position": {`) {
		t.Errorf("encoded page:\n%s", buf.String())
	}
}

func TestListWidgets(t *testing.T) {
	p := &Page{ID: "home", Widgets: []widget.Record{{ID: "a", Type: "link", Size: "thin"}}}
	rs, err := p.ListWidgets(context.Background(), "home")
	if err != nil || len(rs) != 1 {
		t.Fatalf("ListWidgets = %v, %v", rs, err)
	}
	rs[0].ID = "changed"
	if p.Widgets[0].ID != "a" {
		t.Error("ListWidgets must return a copy")
	}
	if _, err := p.ListWidgets(context.Background(), "other"); !lgerrors.IsNotFound(err) {
		t.Errorf("other page err = %v", err)
	}
}
