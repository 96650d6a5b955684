package editor

import (
	"context"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// dragState is the transient state of a drag in progress.
type dragState struct {
	id      string
	origin  widget.Point
	preview widget.Point
	shown   bool
}

// BeginDrag starts dragging widget id in the current view. A drag already
// in progress is abandoned.
func (e *Editor) BeginDrag(id string) error {
	i, err := e.index(id)
	if err != nil {
		return err
	}
	e.drag = &dragState{id: id, origin: e.widgets[i].Position(e.view)}
	return nil
}

// Dragging returns the id of the widget being dragged.
func (e *Editor) Dragging() (string, bool) {
	if e.drag == nil {
		return "", false
	}
	return e.drag.id, true
}

// Preview returns where the dragged widget would land if dropped at target.
// The widget list is not modified.
func (e *Editor) Preview(target widget.Point) (widget.Point, error) {
	if e.drag == nil {
		return widget.Point{}, lgerrors.New(lgerrors.ErrCodeNoActiveDrag, "no drag in progress")
	}
	w, ok := e.Widget(e.drag.id)
	if !ok {
		id := e.drag.id
		e.drag = nil
		return widget.Point{}, lgerrors.New(lgerrors.ErrCodeWidgetNotFound, "widget not found: %s", id)
	}
	p := e.opts.Resolve(grid.Request{Widget: w, Others: e.widgets, View: e.view, Target: target})
	e.drag.preview, e.drag.shown = p.Point, true
	return p.Point, nil
}

// PreviewPoint returns the last preview computed for the current drag.
func (e *Editor) PreviewPoint() (widget.Point, bool) {
	if e.drag == nil || !e.drag.shown {
		return widget.Point{}, false
	}
	return e.drag.preview, true
}

// DragOrigin returns where the dragged widget was when the drag began.
func (e *Editor) DragOrigin() (widget.Point, bool) {
	if e.drag == nil {
		return widget.Point{}, false
	}
	return e.drag.origin, true
}

// Drop ends the drag by moving the widget to the nearest free position to
// target and persisting it.
func (e *Editor) Drop(ctx context.Context, target widget.Point) (widget.Point, error) {
	if e.drag == nil {
		return widget.Point{}, lgerrors.New(lgerrors.ErrCodeNoActiveDrag, "no drag in progress")
	}
	id := e.drag.id
	e.drag = nil
	return e.Move(ctx, id, target)
}

// CancelDrag discards the drag without touching the widget. It reports
// whether a drag was active.
func (e *Editor) CancelDrag() bool {
	active := e.drag != nil
	e.drag = nil
	return active
}
