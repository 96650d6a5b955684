// Package grid implements the widget layout engine: dimension lookup, grid
// snapping, collision detection, placement resolution and the mobile
// auto-arranger.
//
// Every function here is pure. Callers own the widget list, pass it in and
// receive new positions back; nothing in this package performs I/O or keeps
// state between calls.
//
// # Placement
//
// [Options.Resolve] is the core algorithm. Given a widget, the other widgets
// on the canvas and a raw target point it:
//
//  1. Snaps the target to the grid and clamps it inside the canvas.
//  2. Returns it unchanged if it collides with nothing (the fast path).
//  3. Otherwise searches rings of increasing radius around it, one grid unit
//     at a time, row-major within each ring, and returns the first free
//     candidate.
//  4. If no ring up to MaxSearch has room, stacks the widget beneath the
//     lowest occupied box.
//
// The result is deterministic: identical inputs always produce the same
// point.
//
// # Views
//
// Desktop and mobile use separate coordinates and dimension tables. In the
// mobile view every widget is a fixed square regardless of its size tag.
package grid
