// Package store persists widget records.
//
// [Store] is the persistence collaborator of the editor. Backends:
//
//   - [MemoryStore]: process-local, for tests and ephemeral servers.
//   - [SQLStore]: SQLite (modernc.org/sqlite) or PostgreSQL (lib/pq).
//   - [MongoStore]: MongoDB documents.
//
// Positions are stored as raw JSON so that legacy encodings written by
// older clients survive a round trip untouched. Interpreting them is left
// to widget.ParsePoint at load time.
package store

import (
	"context"
	"fmt"
	"strings"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// Store reads and writes widget records keyed by widget id.
type Store interface {
	// ListWidgets returns a page's records in insertion order.
	ListWidgets(ctx context.Context, pageID string) ([]widget.Record, error)

	// CreateWidget inserts a record. An existing id is DUPLICATE_WIDGET.
	CreateWidget(ctx context.Context, pageID string, r widget.Record) error

	// SaveWidget inserts or replaces a record, keeping its original order.
	SaveWidget(ctx context.Context, pageID string, r widget.Record) error

	// UpdatePosition writes one view's position as a JSON object.
	UpdatePosition(ctx context.Context, id string, view widget.ViewMode, p widget.Point) error

	// UpdateSize writes the size tag.
	UpdateSize(ctx context.Context, id string, size widget.Size) error

	// DeleteWidget removes a record.
	DeleteWidget(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// DSN is a file path for sqlite, a connection string for postgres and
	// a URI for mongo.
	DSN string
	// Database is the MongoDB database name.
	Database string
}

// Open connects to the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(cfg.DSN)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case BackendMongo:
		return OpenMongo(ctx, cfg.DSN, cfg.Database)
	}
	return nil, lgerrors.New(lgerrors.ErrCodeUnsupported,
		"unknown storage backend %q (must be memory, sqlite, postgres or mongo)", cfg.Backend)
}

func notFound(id string) error {
	return lgerrors.New(lgerrors.ErrCodeWidgetNotFound, "widget not found: %s", id)
}

func duplicate(id string) error {
	return lgerrors.New(lgerrors.ErrCodeDuplicateWidget, "widget already exists: %s", id)
}

// positionField maps a view to the record field that stores it.
func positionField(v widget.ViewMode) (string, error) {
	switch v {
	case widget.Desktop:
		return "web_position", nil
	case widget.Mobile:
		return "mobile_position", nil
	}
	return "", lgerrors.New(lgerrors.ErrCodeInvalidView, "unknown view mode: %q", v)
}

func checkRecord(pageID string, r widget.Record) error {
	if err := lgerrors.ValidatePageID(pageID); err != nil {
		return err
	}
	if err := lgerrors.ValidateWidgetID(r.ID); err != nil {
		return err
	}
	return nil
}

func wrapf(err error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, err)...)
}
