// Package pkg holds the libraries behind linkgrid, a layout engine for
// link-in-bio pages.
//
// # Overview
//
// A page is a list of widgets. Each widget has a type, a size tag and one
// position per view mode (desktop and mobile). Linkgrid keeps those
// positions on a snapped grid and free of overlaps while a user drags,
// resizes and adds widgets. The data flow is:
//
//	stored records (store, page files)
//	         ↓
//	    [editor] Materialize (defensive parsing, defaults, mobile arrange)
//	         ↓
//	    [editor] Editor (drag, drop, resize, delete, view toggle)
//	         ↓  calls
//	    [grid] pure layout functions (snap, collide, resolve, arrange)
//	         ↓
//	    [store] optimistic persistence, [preview] SVG output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/linkgrid/pkg/editor"
//	    "github.com/matzehuels/linkgrid/pkg/store"
//	    "github.com/matzehuels/linkgrid/pkg/widget"
//	)
//
//	st := store.NewMemoryStore()
//	ed, _, _ := editor.Load(ctx, st, "home", editor.WithStore(st))
//	w, _ := ed.Add(ctx, widget.TypeLink, widget.SizeThin)
//	_ = ed.BeginDrag(w.ID)
//	preview, _ := ed.Preview(widget.Point{X: 200, Y: 40})
//	at, err := ed.Drop(ctx, widget.Point{X: 200, Y: 40})
//
// # Main Packages
//
// [widget] - Widget, size, type and view-mode vocabulary plus the storage
// record and the tolerant position parser.
//
// [grid] - Pure geometry: dimension tables, the grid snapper, the collision
// detector, the placement resolver (ring search with overflow fallback),
// the mobile auto-arranger and layout validation.
//
// [editor] - One editing session over a page. Owns the widget list, the view
// mode and the drag state, and hands finalized changes to a store.
//
// [store] - Memory, SQLite, PostgreSQL and MongoDB widget stores.
//
// [page] - JSON and YAML page files.
//
// [preview] - SVG previews through a cache with request coalescing.
//
// [cache] - File, Redis and null caches plus retry helpers.
//
// [config] - TOML configuration with XDG paths and environment overrides.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Hooks for layout, store, cache and HTTP events.
//
// [buildinfo] - Version information set at link time.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/grid/...     # Specific package
//	go test -run Example ./... # Examples only
//
// [widget]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/widget
// [grid]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/grid
// [editor]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/editor
// [store]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/store
// [page]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/page
// [preview]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/preview
// [cache]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/linkgrid/pkg/buildinfo
package pkg
