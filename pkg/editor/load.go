package editor

import (
	"context"
	"errors"
	"fmt"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Issue describes a stored value that could not be used as-is. Issues are
// recovered from locally and never fail a load.
type Issue struct {
	WidgetID string
	Field    string
	Err      error
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %v", i.WidgetID, i.Field, i.Err)
}

// Loaded is the result of Materialize.
type Loaded struct {
	Widgets []widget.Widget
	Issues  []Issue
	// Defaulted counts view positions that were computed rather than read.
	Defaulted int
	// Arranged is true if the mobile auto-arranger rewrote mobile positions.
	Arranged bool
}

// Materialize turns stored records into widgets. Positions are read
// defensively: a missing web position falls back to the legacy position,
// and any view position that is absent or malformed is replaced by the
// initial placement a new widget would get. Records with an unusable or
// duplicate id are skipped. Unknown type and size tags are kept; layout
// treats them with the fallback dimension. Finally the mobile
// auto-arranger runs once.
func Materialize(records []widget.Record, opts grid.Options) Loaded {
	opts.SetDefaults()
	var out Loaded

	type pending struct {
		w    widget.Widget
		have [2]bool
	}
	rows := make([]pending, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		if err := lgerrors.ValidateWidgetID(r.ID); err != nil {
			out.Issues = append(out.Issues, Issue{WidgetID: r.ID, Field: "id", Err: err})
			continue
		}
		if _, dup := seen[r.ID]; dup {
			out.Issues = append(out.Issues, Issue{WidgetID: r.ID, Field: "id",
				Err: lgerrors.New(lgerrors.ErrCodeDuplicateWidget, "duplicate widget id")})
			continue
		}
		seen[r.ID] = struct{}{}

		row := pending{w: widget.Widget{ID: r.ID, Type: widget.Type(r.Type), Size: widget.Size(r.Size)}}
		if t, err := widget.ParseType(r.Type); err != nil {
			out.Issues = append(out.Issues, Issue{WidgetID: r.ID, Field: "type", Err: err})
		} else {
			row.w.Type = t
		}
		if s, err := widget.ParseSize(r.Size); err != nil {
			out.Issues = append(out.Issues, Issue{WidgetID: r.ID, Field: "size", Err: err})
		} else {
			row.w.Size = s
		}

		if p, ok := readPoint(&out, r.ID, "position", r.Position); ok {
			legacy := p
			row.w.Legacy = &legacy
		}
		if p, ok := readPoint(&out, r.ID, "web_position", r.WebPosition); ok {
			row.w = row.w.WithPosition(widget.Desktop, p)
			row.have[0] = true
		} else if row.w.Legacy != nil {
			row.w = row.w.WithPosition(widget.Desktop, *row.w.Legacy)
			row.have[0] = true
		}
		if p, ok := readPoint(&out, r.ID, "mobile_position", r.MobilePosition); ok {
			row.w = row.w.WithPosition(widget.Mobile, p)
			row.have[1] = true
		}
		rows = append(rows, row)
	}

	// Defaults are resolved against every widget that already has a
	// position in that view, including ones later in the list.
	for vi, v := range widget.Views {
		placed := make([]widget.Widget, 0, len(rows))
		for _, row := range rows {
			if row.have[vi] {
				placed = append(placed, row.w)
			}
		}
		for i := range rows {
			if rows[i].have[vi] {
				continue
			}
			p := opts.PlaceNew(rows[i].w, placed, v)
			rows[i].w = rows[i].w.WithPosition(v, p.Point)
			placed = append(placed, rows[i].w)
			out.Defaulted++
		}
	}

	out.Widgets = make([]widget.Widget, len(rows))
	for i, row := range rows {
		out.Widgets[i] = row.w
	}
	out.Widgets, out.Arranged = opts.AutoArrange(out.Widgets)
	return out
}

// readPoint parses one position field, recording an issue if it is present
// but unusable.
func readPoint(out *Loaded, id, field string, raw []byte) (widget.Point, bool) {
	p, err := widget.ParsePoint(raw)
	if errors.Is(err, widget.ErrNoPosition) {
		return widget.Point{}, false
	}
	if err == nil && (p.X < 0 || p.Y < 0) {
		err = fmt.Errorf("negative coordinate %v", p)
	}
	if err != nil {
		out.Issues = append(out.Issues, Issue{WidgetID: id, Field: field, Err: err})
		return widget.Point{}, false
	}
	return p, true
}

// Lister reads a page's records. It is satisfied by the backends in
// package store.
type Lister interface {
	ListWidgets(ctx context.Context, pageID string) ([]widget.Record, error)
}

// Load reads a page from src, materializes it and returns an editor over
// the result. Recovered issues are logged as warnings.
func Load(ctx context.Context, src Lister, pageID string, opts ...Option) (*Editor, Loaded, error) {
	if err := lgerrors.ValidatePageID(pageID); err != nil {
		return nil, Loaded{}, err
	}
	records, err := src.ListWidgets(ctx, pageID)
	if err != nil {
		return nil, Loaded{}, err
	}

	e := New(pageID, nil, opts...)
	loaded := Materialize(records, e.opts)
	e.widgets = loaded.Widgets
	e.pending = unsaved(records, loaded.Widgets)
	for _, issue := range loaded.Issues {
		e.logger.Warn("recovered stored widget", "page", pageID, "id", issue.WidgetID, "field", issue.Field, "err", issue.Err)
	}
	if loaded.Arranged {
		e.logger.Info("mobile positions normalized", "page", pageID, "widgets", len(loaded.Widgets))
	}
	return e, loaded, nil
}

// unsaved compares materialized widgets with the records they came from and
// marks every view position the store does not hold verbatim. A desktop
// position taken from the legacy field counts as unsaved.
func unsaved(records []widget.Record, ws []widget.Widget) map[string][2]bool {
	byID := make(map[string]widget.Record, len(records))
	for _, r := range records {
		if _, ok := byID[r.ID]; !ok {
			byID[r.ID] = r
		}
	}
	out := make(map[string][2]bool)
	for _, w := range ws {
		r := byID[w.ID]
		var flags [2]bool
		for vi, v := range widget.Views {
			p, err := widget.ParsePoint(r.PositionFor(v))
			flags[vi] = err != nil || p != w.Position(v)
		}
		if flags != ([2]bool{}) {
			out[w.ID] = flags
		}
	}
	return out
}
