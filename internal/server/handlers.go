package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/linkgrid/pkg/buildinfo"
	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/editor"
	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/grid"
	"github.com/matzehuels/linkgrid/pkg/observability"
	"github.com/matzehuels/linkgrid/pkg/preview"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// =============================================================================
// Wire types
// =============================================================================

type pageResponse struct {
	Page        string          `json:"page"`
	View        widget.ViewMode `json:"view"`
	CanvasWidth float64         `json:"canvas_width"`
	Widgets     []widgetJSON    `json:"widgets"`
}

type widgetJSON struct {
	widget.Widget
	Position widget.Point `json:"position"`
}

type addRequest struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

type pointRequest struct {
	View string  `json:"view"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type sizeRequest struct {
	Size string `json:"size"`
}

type pointResponse struct {
	ID   string          `json:"id"`
	View widget.ViewMode `json:"view"`
	widget.Point
}

type arrangeResponse struct {
	Page     string `json:"page"`
	Arranged bool   `json:"arranged"`
	Saved    int    `json:"saved"`
}

type checkResponse struct {
	Page       string           `json:"page"`
	View       widget.ViewMode  `json:"view"`
	Valid      bool             `json:"valid"`
	Violations []grid.Violation `json:"violations"`
}

// =============================================================================
// Helpers
// =============================================================================

func parseView(s string) (widget.ViewMode, error) {
	if s == "" {
		return widget.Desktop, nil
	}
	return widget.ParseViewMode(s)
}

// open loads the page named in the route.
func (s *Server) open(r *http.Request) (*editor.Editor, editor.Loaded, error) {
	return editor.Load(r.Context(), s.store, chi.URLParam(r, "page"),
		editor.WithStore(s.store),
		editor.WithLogger(s.logger),
		editor.WithOptions(s.layout),
	)
}

// widgets returns the materialized page, from the page cache when possible.
func (s *Server) widgets(ctx context.Context, pageID string) ([]widget.Widget, error) {
	key := s.keyer.PageKey(pageID)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var ws []widget.Widget
		if err := json.Unmarshal(data, &ws); err == nil {
			observability.Cache().OnCacheHit(ctx, cache.KeyTypePage)
			return ws, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, cache.KeyTypePage)

	e, _, err := editor.Load(ctx, s.store, pageID, editor.WithLogger(s.logger), editor.WithOptions(s.layout))
	if err != nil {
		return nil, err
	}
	ws := e.Widgets()
	if data, err := json.Marshal(ws); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.TTLPage); err != nil {
			s.logger.Warn("page cache write failed", "page", pageID, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.KeyTypePage, len(data))
		}
	}
	return ws, nil
}

// invalidate drops the cached page after a mutation. It runs even when the
// mutation failed to persist, since part of it may have been written.
func (s *Server) invalidate(ctx context.Context, pageID string) {
	if err := s.cache.Delete(ctx, s.keyer.PageKey(pageID)); err != nil {
		s.logger.Warn("page cache invalidation failed", "page", pageID, "err", err)
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	view, err := parseView(r.URL.Query().Get("view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageID := chi.URLParam(r, "page")
	if err := lgerrors.ValidatePageID(pageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.widgets(r.Context(), pageID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := pageResponse{Page: pageID, View: view, CanvasWidth: s.layout.CanvasWidth(view), Widgets: make([]widgetJSON, len(ws))}
	for i, wd := range ws {
		resp.Widgets[i] = widgetJSON{Widget: wd, Position: wd.Position(view)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	typ, err := widget.ParseType(req.Type)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := widget.ParseSize(req.Size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, _, err := s.open(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.invalidate(r.Context(), e.PageID())

	wd, err := e.Add(r.Context(), typ, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := parseView(req.View)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, _, err := s.open(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := e.SetView(view); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := e.BeginDrag(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := e.Preview(widget.Point{X: req.X, Y: req.Y})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointResponse{ID: id, View: view, Point: p})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := parseView(req.View)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, _, err := s.open(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := e.SetView(view); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	defer s.invalidate(r.Context(), e.PageID())

	p, err := e.Move(r.Context(), id, widget.Point{X: req.X, Y: req.Y})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pointResponse{ID: id, View: view, Point: p})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := widget.ParseSize(req.Size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, _, err := s.open(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.invalidate(r.Context(), e.PageID())

	wd, err := e.Resize(r.Context(), chi.URLParam(r, "id"), size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	e, _, err := s.open(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.invalidate(r.Context(), e.PageID())

	if err := e.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	e, loaded, err := s.open(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.invalidate(r.Context(), e.PageID())

	arranged, err := e.Arrange(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Load may already have arranged the page in memory; Flush writes those
	// positions along with any other computed defaults.
	saved, err := e.Flush(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, arrangeResponse{Page: e.PageID(), Arranged: arranged || loaded.Arranged, Saved: saved})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	view, err := parseView(r.URL.Query().Get("view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageID := chi.URLParam(r, "page")
	if err := lgerrors.ValidatePageID(pageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.widgets(r.Context(), pageID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	vs := s.layout.Validate(ws, view, 0)
	if vs == nil {
		vs = []grid.Violation{}
	}
	writeJSON(w, http.StatusOK, checkResponse{Page: pageID, View: view, Valid: len(vs) == 0, Violations: vs})
}

func (s *Server) handlePreviewSVG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := parseView(q.Get("view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageID := chi.URLParam(r, "page")
	if err := lgerrors.ValidatePageID(pageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.widgets(r.Context(), pageID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	data, hit, err := s.preview.Render(r.Context(), ws, preview.Options{
		View:     view,
		Labels:   q.Get("labels") != "false",
		ShowGrid: q.Get("grid") == "true",
		Layout:   s.layout,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := "MISS"
	if hit {
		status = "HIT"
	}
	s.logger.Debug("preview", "page", pageID, "view", view, "cache", status, "duration", time.Since(start))

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Cache", status)
	_, _ = w.Write(data)
}
