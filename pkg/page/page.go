// Package page reads and writes page documents: a page id plus its widget
// records, as JSON or YAML.
//
//	{"id": "home", "widgets": [{"id": "w1", "type": "link", "size": "thin",
//	  "web_position": {"x": 20, "y": 20}, "mobile_position": "{\"x\":20,\"y\":20}"}]}
//
// Positions are passed through untouched so that files exported from a
// store can be checked, repaired and pushed back without losing legacy
// encodings.
package page

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Format is a page file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", lgerrors.New(lgerrors.ErrCodeInvalidPath, "unsupported page file extension: %s", path)
}

// Page is one page document.
type Page struct {
	ID      string          `json:"id"`
	Widgets []widget.Record `json:"widgets"`
}

// FromWidgets builds a page from materialized widgets.
func FromWidgets(id string, ws []widget.Widget) (*Page, error) {
	p := &Page{ID: id, Widgets: make([]widget.Record, len(ws))}
	for i, w := range ws {
		r, err := widget.NewRecord(w)
		if err != nil {
			return nil, err
		}
		p.Widgets[i] = r
	}
	return p, nil
}

// ListWidgets returns the page's records, letting a page file stand in for
// a store when loading an editor.
func (p *Page) ListWidgets(_ context.Context, pageID string) ([]widget.Record, error) {
	if pageID != p.ID {
		return nil, lgerrors.New(lgerrors.ErrCodeNotFound, "page not found: %s", pageID)
	}
	return append([]widget.Record(nil), p.Widgets...), nil
}

// Read loads a page file.
func Read(path string) (*Page, error) {
	if err := lgerrors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.ID == "" {
		p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Write stores a page file, replacing any existing file atomically.
func Write(path string, p *Page) error {
	if err := lgerrors.ValidatePath(path); err != nil {
		return err
	}
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, p, format); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".page-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Decode reads a page in the given format.
func Decode(r io.Reader, format Format) (*Page, error) {
	switch format {
	case FormatJSON:
		var p Page
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "decode page")
		}
		return &p, nil
	case FormatYAML:
		var doc yamlPage
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "decode page")
		}
		return doc.page()
	}
	return nil, lgerrors.New(lgerrors.ErrCodeUnsupported, "unsupported format: %s", format)
}

// Encode writes a page in the given format.
func Encode(w io.Writer, p *Page, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case FormatYAML:
		doc, err := newYAMLPage(p)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return lgerrors.New(lgerrors.ErrCodeUnsupported, "unsupported format: %s", format)
}

// =============================================================================
// YAML
// =============================================================================

// YAML has no raw-message type, so positions are decoded generically and
// re-encoded as JSON.
type yamlPage struct {
	ID      string       `yaml:"id"`
	Widgets []yamlRecord `yaml:"widgets"`
}

type yamlRecord struct {
	ID             string `yaml:"id"`
	Type           string `yaml:"type"`
	Size           string `yaml:"size"`
	Position       any    `yaml:"position,omitempty"`
	WebPosition    any    `yaml:"web_position,omitempty"`
	MobilePosition any    `yaml:"mobile_position,omitempty"`
}

func (d yamlPage) page() (*Page, error) {
	p := &Page{ID: d.ID, Widgets: make([]widget.Record, len(d.Widgets))}
	for i, y := range d.Widgets {
		r := widget.Record{ID: y.ID, Type: y.Type, Size: y.Size}
		var err error
		if r.Position, err = toJSON(y.Position); err != nil {
			return nil, fmt.Errorf("widget %s position: %w", y.ID, err)
		}
		if r.WebPosition, err = toJSON(y.WebPosition); err != nil {
			return nil, fmt.Errorf("widget %s web_position: %w", y.ID, err)
		}
		if r.MobilePosition, err = toJSON(y.MobilePosition); err != nil {
			return nil, fmt.Errorf("widget %s mobile_position: %w", y.ID, err)
		}
		p.Widgets[i] = r
	}
	return p, nil
}

func newYAMLPage(p *Page) (yamlPage, error) {
	doc := yamlPage{ID: p.ID, Widgets: make([]yamlRecord, len(p.Widgets))}
	for i, r := range p.Widgets {
		y := yamlRecord{ID: r.ID, Type: r.Type, Size: r.Size}
		var err error
		if y.Position, err = fromJSON(r.Position); err != nil {
			return doc, err
		}
		if y.WebPosition, err = fromJSON(r.WebPosition); err != nil {
			return doc, err
		}
		if y.MobilePosition, err = fromJSON(r.MobilePosition); err != nil {
			return doc, err
		}
		doc.Widgets[i] = y
	}
	return doc, nil
}

func toJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func fromJSON(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
