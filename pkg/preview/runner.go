package preview

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/observability"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Runner renders previews through a cache. Concurrent requests for the same
// key share one render.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	group singleflight.Group
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses cache.DefaultKeyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// layoutEntry is the part of a widget that affects a preview.
type layoutEntry struct {
	ID    string       `json:"id"`
	Type  widget.Type  `json:"type"`
	Size  widget.Size  `json:"size"`
	Point widget.Point `json:"p"`
}

// LayoutHash identifies the rendered content of ws in view v.
func LayoutHash(ws []widget.Widget, v widget.ViewMode) (string, error) {
	entries := make([]layoutEntry, len(ws))
	for i, w := range ws {
		entries[i] = layoutEntry{ID: w.ID, Type: w.Type, Size: w.Size, Point: w.Position(v)}
	}
	return cache.HashJSON(entries)
}

// Render returns the SVG for ws and whether it came from the cache.
func (r *Runner) Render(ctx context.Context, ws []widget.Widget, opts Options) ([]byte, bool, error) {
	opts.SetDefaults()

	hash, err := LayoutHash(ws, opts.View)
	if err != nil {
		return nil, false, err
	}
	geometry, err := cache.HashJSON(opts.Layout)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.PreviewKey(hash, cache.PreviewKeyOpts{
		View:        string(opts.View),
		CanvasWidth: opts.CanvasWidth,
		Labels:      opts.Labels,
		Grid:        opts.ShowGrid,
		Layout:      geometry,
	})

	if data, hit, err := r.Cache.Get(ctx, key); err != nil {
		r.Logger.Warn("preview cache read failed", "error", err)
	} else if hit {
		observability.Cache().OnCacheHit(ctx, cache.KeyTypePreview)
		r.Logger.Debug("preview cache hit", "view", opts.View)
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, cache.KeyTypePreview)

	v, err, _ := r.group.Do(key, func() (any, error) {
		start := time.Now()
		var buf bytes.Buffer
		if err := Render(&buf, ws, opts); err != nil {
			return nil, err
		}
		data := buf.Bytes()
		r.Logger.Debug("rendered preview", "view", opts.View, "widgets", len(ws), "bytes", len(data), "duration", time.Since(start))

		if err := r.Cache.Set(ctx, key, data, cache.TTLPreview); err != nil {
			r.Logger.Warn("preview cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cache.KeyTypePreview, len(data))
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
