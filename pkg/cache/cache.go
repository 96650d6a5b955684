// Package cache provides the byte cache behind rendered previews and page
// listings.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for the HTTP server, and [NullCache] when caching is disabled. Keys are
// built by a [Keyer] so that every component derives identical keys from
// identical inputs; [ScopedKeyer] prefixes them per tenant.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs per key type.
const (
	// TTLPreview is long since preview keys are content hashes.
	TTLPreview = 7 * 24 * time.Hour

	// TTLPage bounds staleness of cached page listings that were not
	// invalidated explicitly.
	TTLPage = 5 * time.Minute
)

// Key types reported to observability hooks.
const (
	KeyTypePreview = "preview"
	KeyTypePage    = "page"
)

// =============================================================================
// Keys
// =============================================================================

// Keyer builds cache keys.
type Keyer interface {
	// PreviewKey returns the key for a rendered preview of a layout.
	PreviewKey(layoutHash string, opts PreviewKeyOpts) string

	// PageKey returns the key for the materialized widget list of a page.
	PageKey(pageID string) string
}

// PreviewKeyOpts holds the render options that change preview output.
type PreviewKeyOpts struct {
	View        string  `json:"view"`
	CanvasWidth float64 `json:"canvas_width"`
	Labels      bool    `json:"labels"`
	Grid        bool    `json:"grid"`
	// Layout is a hash of the geometry constants the preview was drawn with.
	Layout string `json:"layout"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PreviewKey hashes the layout hash together with the render options.
func (DefaultKeyer) PreviewKey(layoutHash string, opts PreviewKeyOpts) string {
	return hashKey(KeyTypePreview, layoutHash, opts)
}

// PageKey is readable so operators can find and drop a page by hand.
func (DefaultKeyer) PageKey(pageID string) string {
	return KeyTypePage + ":" + pageID
}
