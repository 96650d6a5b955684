// Package widget defines the data model shared by the layout engine, the
// editor and the storage backends.
//
// # Widgets
//
// A [Widget] is one rectangular tile on a page. Its [Type] only affects
// rendering; its [Size] tag determines its pixel dimensions in the desktop
// view. Every widget carries one position per [ViewMode]:
//
//	w := widget.Widget{ID: "w1", Type: widget.TypeLink, Size: widget.SizeThin}
//	w = w.WithPosition(widget.Desktop, widget.Point{X: 20, Y: 20})
//	p := w.Position(widget.Mobile) // unaffected by the desktop update
//
// Reading or writing the position "for the current view" always goes through
// [Widget.Position] and [Widget.WithPosition]; there is no other accessor.
//
// # Records
//
// A [Record] is the storage shape of a widget. Positions are kept as raw
// JSON because stored data may be an object, a string holding an object, or
// missing entirely. [ParsePoint] decodes any of those defensively; turning
// records into widgets (with fallback positions) is the editor's job.
package widget
