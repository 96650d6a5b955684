// Package editor hosts an editing session over one page's widgets.
//
// An [Editor] owns the mutable widget list and the view mode, calls the
// pure layout functions in package grid on each interaction and hands every
// finalized change to a [Store]. State changes are optimistic: the widget
// list is updated first and a failed store call is returned as a
// PERSISTENCE_FAILED error without rolling anything back. Callers show the
// error and keep going.
//
// An Editor is not safe for concurrent use. It expects a single input
// stream, as produced by one user's pointer and keyboard.
package editor

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/linkgrid/pkg/cache"
	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/observability"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Store is the persistence collaborator. It is satisfied by the backends
// in package store.
type Store interface {
	CreateWidget(ctx context.Context, pageID string, r widget.Record) error
	UpdatePosition(ctx context.Context, id string, view widget.ViewMode, p widget.Point) error
	UpdateSize(ctx context.Context, id string, size widget.Size) error
	DeleteWidget(ctx context.Context, id string) error
}

// Store operation names, as reported to hooks and logs.
const (
	OpCreate   = "create"
	OpPosition = "update-position"
	OpSize     = "update-size"
	OpDelete   = "delete"
)

// Editor is an editing session for one page.
type Editor struct {
	pageID  string
	opts    grid.Options
	widgets []widget.Widget
	view    widget.ViewMode
	drag    *dragState

	// pending marks view positions that differ from what the store holds,
	// indexed like widget.Views.
	pending map[string][2]bool

	store  Store
	logger *log.Logger
	newID  func() string
}

// Option configures an Editor.
type Option func(*Editor)

// WithStore sets the persistence collaborator. Without one, changes stay
// in memory.
func WithStore(s Store) Option {
	return func(e *Editor) { e.store = s }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithOptions replaces the default layout options.
func WithOptions(o grid.Options) Option {
	return func(e *Editor) {
		o.SetDefaults()
		e.opts = o
	}
}

// WithIDGenerator replaces the UUID generator used by Add.
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New starts a session in the desktop view over a copy of widgets.
func New(pageID string, widgets []widget.Widget, opts ...Option) *Editor {
	e := &Editor{
		pageID:  pageID,
		opts:    grid.DefaultOptions(),
		widgets: widget.Clone(widgets),
		view:    widget.Desktop,
		logger:  log.New(io.Discard),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// =============================================================================
// Accessors
// =============================================================================

// PageID returns the page being edited.
func (e *Editor) PageID() string { return e.pageID }

// Options returns the layout options in use.
func (e *Editor) Options() grid.Options { return e.opts }

// Widgets returns a copy of the current widget list.
func (e *Editor) Widgets() []widget.Widget { return widget.Clone(e.widgets) }

// Widget returns the widget with the given id.
func (e *Editor) Widget(id string) (widget.Widget, bool) {
	i := widget.Index(e.widgets, id)
	if i < 0 {
		return widget.Widget{}, false
	}
	return e.widgets[i], true
}

// Len returns the number of widgets.
func (e *Editor) Len() int { return len(e.widgets) }

// =============================================================================
// View Mode
// =============================================================================

// View returns the current view mode.
func (e *Editor) View() widget.ViewMode { return e.view }

// Toggle switches to the other view mode and returns it. Stored positions
// are not touched; an active drag is cancelled since its preview belongs to
// the old coordinate space.
func (e *Editor) Toggle() widget.ViewMode {
	e.view = e.view.Other()
	e.drag = nil
	return e.view
}

// SetView switches to v.
func (e *Editor) SetView(v widget.ViewMode) error {
	if !v.Valid() {
		return lgerrors.New(lgerrors.ErrCodeInvalidView, "unknown view mode: %q", v)
	}
	if v != e.view {
		e.Toggle()
	}
	return nil
}

// =============================================================================
// Placement
// =============================================================================

// resolve runs the placement resolver for w in the current view and
// reports the outcome to the layout hooks.
func (e *Editor) resolve(ctx context.Context, w widget.Widget, view widget.ViewMode, target widget.Point) grid.Placement {
	start := time.Now()
	p := e.opts.Resolve(grid.Request{Widget: w, Others: e.widgets, View: view, Target: target})
	observability.Layout().OnPlace(ctx, string(view), p.Strategy.String(), p.Probes, time.Since(start))
	if p.Strategy == grid.Overflow {
		e.logger.Warn("no free slot near target, stacking below", "id", w.ID, "view", view, "target", target, "at", p.Point)
	}
	return p
}

func (e *Editor) index(id string) (int, error) {
	i := widget.Index(e.widgets, id)
	if i < 0 {
		return -1, lgerrors.New(lgerrors.ErrCodeWidgetNotFound, "widget not found: %s", id)
	}
	return i, nil
}

// Add creates a widget and places it in both views from the default
// anchors. The widget is kept even if persisting it fails.
func (e *Editor) Add(ctx context.Context, typ widget.Type, size widget.Size) (widget.Widget, error) {
	if !typ.Valid() {
		return widget.Widget{}, lgerrors.New(lgerrors.ErrCodeInvalidType, "unknown widget type: %q", typ)
	}
	if !size.Valid() {
		return widget.Widget{}, lgerrors.New(lgerrors.ErrCodeInvalidSize, "unknown widget size: %q", size)
	}

	w := widget.Widget{ID: e.newID(), Type: typ, Size: size}
	if widget.Index(e.widgets, w.ID) >= 0 {
		return widget.Widget{}, lgerrors.New(lgerrors.ErrCodeDuplicateWidget, "widget id already in use: %s", w.ID)
	}
	for _, v := range widget.Views {
		start := time.Now()
		p := e.opts.PlaceNew(w, e.widgets, v)
		observability.Layout().OnPlace(ctx, string(v), p.Strategy.String(), p.Probes, time.Since(start))
		w = w.WithPosition(v, p.Point)
	}
	e.widgets = append(e.widgets, w)
	e.logger.Info("added widget", "id", w.ID, "type", w.Type, "size", w.Size,
		"desktop", w.Position(widget.Desktop), "mobile", w.Position(widget.Mobile))

	err := e.persist(ctx, OpCreate, w.ID, func(ctx context.Context) error {
		r, err := widget.NewRecord(w)
		if err != nil {
			return err
		}
		return e.store.CreateWidget(ctx, e.pageID, r)
	})
	return w, err
}

// Move drops widget id at the nearest free position to target in the
// current view and persists the result.
func (e *Editor) Move(ctx context.Context, id string, target widget.Point) (widget.Point, error) {
	i, err := e.index(id)
	if err != nil {
		return widget.Point{}, err
	}
	view := e.view
	p := e.resolve(ctx, e.widgets[i], view, target)
	e.widgets[i] = e.widgets[i].WithPosition(view, p.Point)
	e.logger.Debug("moved widget", "id", id, "view", view, "target", target, "at", p.Point, "strategy", p.Strategy)

	return p.Point, e.savePosition(ctx, id, view, p.Point)
}

// Resize changes a widget's size tag. If the new desktop box collides with
// another widget or crosses the canvas edge, the desktop position is
// re-resolved from where the widget is. The mobile position never changes
// since mobile dimensions do not depend on size.
func (e *Editor) Resize(ctx context.Context, id string, size widget.Size) (widget.Widget, error) {
	if !size.Valid() {
		return widget.Widget{}, lgerrors.New(lgerrors.ErrCodeInvalidSize, "unknown widget size: %q", size)
	}
	i, err := e.index(id)
	if err != nil {
		return widget.Widget{}, err
	}

	w := e.widgets[i].WithSize(size)
	moved := false
	if e.misplaced(w, widget.Desktop) {
		p := e.resolve(ctx, w, widget.Desktop, w.Position(widget.Desktop))
		moved = p.Point != w.Position(widget.Desktop)
		w = w.WithPosition(widget.Desktop, p.Point)
	}
	e.widgets[i] = w
	e.logger.Debug("resized widget", "id", id, "size", size, "moved", moved)

	if err := e.persist(ctx, OpSize, id, func(ctx context.Context) error {
		return e.store.UpdateSize(ctx, id, size)
	}); err != nil {
		return w, err
	}
	if moved {
		return w, e.savePosition(ctx, id, widget.Desktop, w.Position(widget.Desktop))
	}
	return w, nil
}

func (e *Editor) misplaced(w widget.Widget, v widget.ViewMode) bool {
	if e.opts.CollidesAny(w, e.widgets, v) {
		return true
	}
	b := e.opts.Bounds(w, v)
	return b.Left < 0 || b.Top < 0 || (b.Right > e.opts.CanvasWidth(v) && b.Left > 0)
}

// Delete removes a widget.
func (e *Editor) Delete(ctx context.Context, id string) error {
	i, err := e.index(id)
	if err != nil {
		return err
	}
	if e.drag != nil && e.drag.id == id {
		e.drag = nil
	}
	e.widgets = append(e.widgets[:i:i], e.widgets[i+1:]...)
	delete(e.pending, id)
	e.logger.Info("deleted widget", "id", id)

	return e.persist(ctx, OpDelete, id, func(ctx context.Context) error {
		return e.store.DeleteWidget(ctx, id)
	})
}

// Arrange runs the mobile auto-arranger over the session and persists every
// mobile position that changed. It reports whether anything moved.
func (e *Editor) Arrange(ctx context.Context) (bool, error) {
	arranged, changed := e.opts.AutoArrange(e.widgets)
	if !changed {
		return false, nil
	}
	prev := e.widgets
	e.widgets = arranged
	observability.Layout().OnArrange(ctx, e.pageID, len(arranged))
	e.logger.Info("auto-arranged mobile layout", "page", e.pageID, "widgets", len(arranged))

	var firstErr error
	for i, w := range arranged {
		at := w.Position(widget.Mobile)
		if at == prev[i].Position(widget.Mobile) {
			continue
		}
		if err := e.savePosition(ctx, w.ID, widget.Mobile, at); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return true, firstErr
}

// Pending returns the number of view positions held only in memory, such
// as defaults computed at load time.
func (e *Editor) Pending() int {
	n := 0
	for _, flags := range e.pending {
		for _, f := range flags {
			if f {
				n++
			}
		}
	}
	return n
}

// Flush persists every pending position in widget order and returns how
// many were saved.
func (e *Editor) Flush(ctx context.Context) (int, error) {
	var firstErr error
	saved := 0
	for _, w := range e.widgets {
		flags, ok := e.pending[w.ID]
		if !ok {
			continue
		}
		for vi, v := range widget.Views {
			if !flags[vi] {
				continue
			}
			if err := e.savePosition(ctx, w.ID, v, w.Position(v)); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			saved++
		}
	}
	if saved > 0 {
		e.logger.Info("saved computed positions", "page", e.pageID, "positions", saved)
	}
	return saved, firstErr
}

// Validate reports layout problems in the current view.
func (e *Editor) Validate() []grid.Violation {
	return e.opts.Validate(e.widgets, e.view, 0)
}

// =============================================================================
// Persistence
// =============================================================================

// savePosition persists one view position and clears its pending mark.
func (e *Editor) savePosition(ctx context.Context, id string, v widget.ViewMode, p widget.Point) error {
	if err := e.persist(ctx, OpPosition, id, func(ctx context.Context) error {
		return e.store.UpdatePosition(ctx, id, v, p)
	}); err != nil {
		return err
	}
	if flags, ok := e.pending[id]; ok {
		flags[viewIndex(v)] = false
		if flags == ([2]bool{}) {
			delete(e.pending, id)
		} else {
			e.pending[id] = flags
		}
	}
	return nil
}

func viewIndex(v widget.ViewMode) int {
	if v == widget.Mobile {
		return 1
	}
	return 0
}

// persist runs one store call, retrying transient failures. In-memory
// state has already been updated by the caller and is never rolled back.
func (e *Editor) persist(ctx context.Context, op, id string, call func(context.Context) error) error {
	if e.store == nil {
		return nil
	}
	start := time.Now()
	err := cache.RetryWithBackoff(ctx, func() error { return call(ctx) })
	observability.Store().OnPersist(ctx, op, id, time.Since(start), err)
	if err != nil {
		e.logger.Error("could not save change", "op", op, "id", id, "err", err)
		return lgerrors.Wrap(lgerrors.ErrCodePersistence, err, "%s %s not saved", op, id)
	}
	return nil
}
